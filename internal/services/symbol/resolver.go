package symbol

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/domain/service"
	"SignalDesk/internal/services/coerce"
	"SignalDesk/internal/services/parse"
	"SignalDesk/pkg/cache"
	"SignalDesk/pkg/logger"
)

// Where a resolution came from.
const (
	SourceInference = "inference"
	SourceHeuristic = "heuristic"
	SourceCache     = "cache"
)

const notFoundSentinel = "NOT_FOUND"

const resolvePrompt = `You map free-text market queries to exchange-qualified tickers.
Reply with JSON only: {"ticker": "EXCHANGE:SYMBOL", "name": "display name", "price": last price as a number}.
Use BINANCE:<BASE>USDT for crypto, SSE:/SZSE: for mainland China A-shares, NASDAQ:/NYSE: for US listings.
If you cannot identify the instrument reply with NOT_FOUND and nothing else.`

var (
	ErrEmptyQuery = errors.New("symbol: query is empty")

	errNotFound    = errors.New("symbol: not found")
	errNoInference = errors.New("symbol: no inference client")
)

// Resolver resolves queries through the inference service and falls back to Heuristic on any
// failure. Resolutions are cached by normalized query when a cache is configured.
type Resolver struct {
	inference    service.Inference
	cache        cache.Service
	logger       *logger.Logger
	timeout      time.Duration
	ttl          time.Duration
	heuristicTTL time.Duration
}

// Option configures Resolver.
type Option func(*Resolver)

// WithCache enables caching; heuristic results are kept for a shorter period so a transient
// inference outage is not remembered for long.
func WithCache(c cache.Service, ttl, heuristicTTL time.Duration) Option {
	return func(r *Resolver) {
		r.cache = c
		if ttl > 0 {
			r.ttl = ttl
		}
		if heuristicTTL > 0 {
			r.heuristicTTL = heuristicTTL
		}
	}
}

// WithTimeout bounds the inference call.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a resolver. inference may be nil, in which case only the heuristic runs.
func NewResolver(inference service.Inference, opts ...Option) *Resolver {
	r := &Resolver{
		inference:    inference,
		logger:       logger.Nop(),
		timeout:      8 * time.Second,
		ttl:          24 * time.Hour,
		heuristicTTL: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve never fails for a non-empty query.
func (r *Resolver) Resolve(ctx context.Context, query string) (models.SymbolResolution, error) {
	norm := Normalize(query)
	if norm == "" {
		return models.SymbolResolution{}, ErrEmptyQuery
	}
	key := cache.GenerateKey("symbol", norm)

	if r.cache != nil {
		if res, err := cache.GetTyped[models.SymbolResolution](ctx, r.cache, key); err == nil {
			res.Source = SourceCache
			return res, nil
		}
	}

	res, err := r.infer(ctx, query)
	ttl := r.ttl
	if err != nil {
		r.logger.Warn("symbol inference failed, using heuristic",
			logger.String("query", norm),
			logger.Error(err),
		)
		res = Heuristic(query)
		ttl = r.heuristicTTL
	}

	if r.cache != nil {
		if cerr := r.cache.Set(ctx, key, res, ttl); cerr != nil {
			r.logger.Debug("symbol cache set failed", logger.String("query", norm), logger.Error(cerr))
		}
	}
	return res, nil
}

func (r *Resolver) infer(ctx context.Context, query string) (models.SymbolResolution, error) {
	if r.inference == nil {
		return models.SymbolResolution{}, errNoInference
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	text, err := r.inference.Generate(ctx, models.InferenceRequest{
		System: resolvePrompt,
		Prompt: fmt.Sprintf("Query: %s", strings.TrimSpace(query)),
		JSON:   true,
	})
	if err != nil {
		return models.SymbolResolution{}, fmt.Errorf("generate: %w", err)
	}
	if strings.Contains(strings.ToUpper(text), notFoundSentinel) {
		return models.SymbolResolution{}, errNotFound
	}

	obj, _, err := parse.ExtractAndParse(text)
	if err != nil {
		return models.SymbolResolution{}, err
	}
	ticker := Normalize(coerce.String(obj["ticker"]))
	if ticker == "" {
		return models.SymbolResolution{}, errNotFound
	}
	name := coerce.String(obj["name"])
	if name == "" {
		name = strings.TrimSpace(query)
	}
	return models.SymbolResolution{
		Ticker: ticker,
		Name:   name,
		Price:  coerce.Clamp(coerce.Number(obj["price"]), 0, 1e12),
		Source: SourceInference,
	}, nil
}
