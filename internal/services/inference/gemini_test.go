package inference

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/services/backfill"
	"SignalDesk/internal/services/parse"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	mu      sync.Mutex
	errs    []error
	text    string
	calls   int
	configs []*genai.GenerateContentConfig
	parts   [][]*genai.Part
}

func (f *fakeGenerator) GenerateContent(_ context.Context, _ string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.configs = append(f.configs, config)
	f.parts = append(f.parts, contents[0].Parts)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: "thinking", Thought: true}}}},
			{Content: genai.NewContentFromText(f.text, genai.RoleModel)},
		},
	}, nil
}

func newTestClient(gen generator) (*Gemini, *[]time.Duration) {
	g := newGemini(gen, Config{Temperature: 0.2}, nil)
	var slept []time.Duration
	g.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return g, &slept
}

func TestGenerateReturnsFirstNonEmptyCandidate(t *testing.T) {
	gen := &fakeGenerator{text: `{"winRate": 70}`}
	g, _ := newTestClient(gen)

	out, err := g.Generate(context.Background(), models.InferenceRequest{System: "sys", Prompt: "hello", JSON: true})
	require.NoError(t, err)
	assert.Equal(t, `{"winRate": 70}`, out)

	cfg := gen.configs[0]
	assert.Equal(t, "application/json", cfg.ResponseMIMEType)
	require.NotNil(t, cfg.SystemInstruction)
	assert.Equal(t, "sys", cfg.SystemInstruction.Parts[0].Text)
	assert.InDelta(t, 0.2, float64(*cfg.Temperature), 1e-6)
}

func TestGenerateAttachesImageBeforeText(t *testing.T) {
	gen := &fakeGenerator{text: "ok"}
	g, _ := newTestClient(gen)

	_, err := g.Generate(context.Background(), models.InferenceRequest{
		Prompt: "chart",
		Image:  &models.Image{Data: []byte{0x89, 0x50}, MIME: "image/jpeg"},
	})
	require.NoError(t, err)
	p := gen.parts[0]
	require.Len(t, p, 2)
	require.NotNil(t, p[0].InlineData)
	assert.Equal(t, "image/jpeg", p[0].InlineData.MIMEType)
	assert.Equal(t, "chart", p[1].Text)
}

func TestGenerateRetriesRateLimit(t *testing.T) {
	gen := &fakeGenerator{
		text: "done",
		errs: []error{
			errors.New("Error 429, RESOURCE_EXHAUSTED. Please retry in 4.5s"),
			errors.New("Error 503 UNAVAILABLE"),
		},
	}
	g, slept := newTestClient(gen)

	out, err := g.Generate(context.Background(), models.InferenceRequest{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.Equal(t, 3, gen.calls)
	assert.Equal(t, []time.Duration{4500 * time.Millisecond, 4 * time.Second}, *slept)
}

func TestGenerateDoesNotRetryPermanentErrors(t *testing.T) {
	gen := &fakeGenerator{errs: []error{errors.New("Error 400 INVALID_ARGUMENT")}}
	g, slept := newTestClient(gen)

	_, err := g.Generate(context.Background(), models.InferenceRequest{Prompt: "x"})
	require.Error(t, err)
	assert.Equal(t, 1, gen.calls)
	assert.Empty(t, *slept)
}

func TestGenerateGivesUpAfterMaxRetries(t *testing.T) {
	e := errors.New("429 quota exceeded")
	gen := &fakeGenerator{errs: []error{e, e, e, e, e}}
	g, _ := newTestClient(gen)

	_, err := g.Generate(context.Background(), models.InferenceRequest{Prompt: "x"})
	require.ErrorIs(t, err, e)
	assert.Equal(t, DefaultRetryPolicy().MaxRetries+1, gen.calls)
}

func TestGenerateEmptyPrompt(t *testing.T) {
	g, _ := newTestClient(&fakeGenerator{})
	_, err := g.Generate(context.Background(), models.InferenceRequest{Prompt: "  "})
	assert.Error(t, err)
}

func TestGenerateEmptyResponse(t *testing.T) {
	g, _ := newTestClient(&fakeGenerator{text: ""})
	_, err := g.Generate(context.Background(), models.InferenceRequest{Prompt: "x"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), Config{}, nil)
	assert.Error(t, err)
}

func TestBackoff(t *testing.T) {
	p := RetryPolicy{MaxRetries: 3, InitialBackoff: time.Second, MaxBackoff: 5 * time.Second, Multiplier: 2}
	assert.Equal(t, time.Second, p.Backoff(0, 0))
	assert.Equal(t, 4*time.Second, p.Backoff(2, 0))
	assert.Equal(t, 5*time.Second, p.Backoff(3, 0))
	assert.Equal(t, 3*time.Second, p.Backoff(0, 3*time.Second))
}

func TestExtractRetryDelay(t *testing.T) {
	assert.Equal(t, 12*time.Second, ExtractRetryDelay(errors.New("Please retry in 12s")))
	assert.Equal(t, 7*time.Second, ExtractRetryDelay(errors.New(`"retryDelay": "7s"`)))
	assert.Zero(t, ExtractRetryDelay(errors.New("boom")))
	assert.Zero(t, ExtractRetryDelay(nil))
}

// Every structured section of the schema must be recognised by the decoder.
func TestAnalysisSchemaDecodesFully(t *testing.T) {
	req := AnalysisRequest("NASDAQ:AAPL", "Apple", 190.5, models.AnalysisContext{MarketSegment: models.SegmentUSEquity, Timeframe: "1D"})
	assert.True(t, req.JSON)
	assert.Contains(t, req.Prompt, "NASDAQ:AAPL (Apple)")
	assert.Contains(t, req.Prompt, "Current price: 190.5")

	obj, _, err := parse.ExtractAndParse(analysisSchema)
	require.NoError(t, err)
	r := backfill.Decode(obj, models.AnalysisContext{MarketSegment: models.SegmentUSEquity, Timeframe: "1D"})
	assert.False(t, r.Meta.IsBackfilled(models.PartRedTeam))
	assert.False(t, r.Meta.IsBackfilled(models.PartTradingSetup))
	assert.True(t, r.Meta.DriversProvided)
	assert.True(t, r.Meta.ConsensusProvided)
}
