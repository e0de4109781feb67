package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/domain/service"
	applogger "SignalDesk/pkg/logger"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("inference: empty response")

// generator is the slice of *genai.Models the client needs.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config configures the Gemini client.
type Config struct {
	APIKey      string
	Model       string
	Timeout     time.Duration
	RPS         float64
	Temperature float32
	Retry       RetryPolicy
}

// Gemini implements service.Inference over google.golang.org/genai.
type Gemini struct {
	gen     generator
	cfg     Config
	limiter *rate.Limiter
	log     *applogger.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

var _ service.Inference = (*Gemini)(nil)

// NewGemini creates the client. An empty API key is an error; callers decide whether to run
// without inference.
func NewGemini(ctx context.Context, cfg Config, l *applogger.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("inference: api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("init genai client: %w", err)
	}
	return newGemini(client.Models, cfg, l), nil
}

func newGemini(gen generator, cfg Config, l *applogger.Logger) *Gemini {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Retry == (RetryPolicy{}) {
		cfg.Retry = DefaultRetryPolicy()
	}
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &Gemini{
		gen:     gen,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		log:     l.Named("inference"),
		sleep:   sleepCtx,
	}
}

// Generate sends one request and returns the concatenated text of the first non-empty
// candidate. Rate-limit and transient errors are retried per the policy.
func (g *Gemini) Generate(ctx context.Context, req models.InferenceRequest) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" && req.Image == nil {
		return "", errors.New("inference: empty prompt")
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	contents := []*genai.Content{genai.NewContentFromParts(parts(req), genai.RoleUser)}
	config := g.contentConfig(req)

	start := time.Now()
	var lastErr error
	for attempt := 0; attempt <= g.cfg.Retry.MaxRetries; attempt++ {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("inference: rate limiter: %w", err)
		}

		resp, err := g.gen.GenerateContent(ctx, g.cfg.Model, contents, config)
		if err == nil {
			text := responseText(resp)
			if text == "" {
				return "", ErrEmptyResponse
			}
			g.log.Debug("inference completed",
				applogger.String("model", g.cfg.Model),
				applogger.Int("attempts", attempt+1),
				applogger.Int("response_length", len(text)),
				applogger.Duration("duration_ms", time.Since(start)),
			)
			return text, nil
		}
		lastErr = err

		if attempt == g.cfg.Retry.MaxRetries || !(IsRateLimitError(err) || IsTransientError(err)) {
			break
		}
		backoff := g.cfg.Retry.Backoff(attempt, ExtractRetryDelay(err))
		g.log.Warn("retrying inference call",
			applogger.Int("attempt", attempt+1),
			applogger.Duration("backoff_ms", backoff),
			applogger.Bool("rate_limited", IsRateLimitError(err)),
			applogger.Error(err),
		)
		if err := g.sleep(ctx, backoff); err != nil {
			return "", fmt.Errorf("inference: %w (last error: %v)", err, lastErr)
		}
	}
	return "", fmt.Errorf("inference: generate content: %w", lastErr)
}

func (g *Gemini) contentConfig(req models.InferenceRequest) *genai.GenerateContentConfig {
	temp := req.Temperature
	if temp <= 0 {
		temp = g.cfg.Temperature
	}
	config := &genai.GenerateContentConfig{Temperature: genai.Ptr(temp)}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		config.ResponseMIMEType = "application/json"
	}
	return config
}

func parts(req models.InferenceRequest) []*genai.Part {
	out := make([]*genai.Part, 0, 2)
	if req.Image != nil && len(req.Image.Data) > 0 {
		mime := req.Image.MIME
		if mime == "" {
			mime = "image/png"
		}
		out = append(out, genai.NewPartFromBytes(req.Image.Data, mime))
	}
	if req.Prompt != "" {
		out = append(out, genai.NewPartFromText(req.Prompt))
	}
	return out
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if p != nil && p.Text != "" && !p.Thought {
				b.WriteString(p.Text)
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	return b.String()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
