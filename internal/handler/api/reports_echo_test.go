package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/services/parse"
	"SignalDesk/internal/usecase"

	"github.com/labstack/echo/v4"
)

type fakeReports struct {
	err       error
	build     models.BuildReportRequest
	generate  models.GenerateReportRequest
	query     string
	auditSym  string
	auditLim  int
	auditRows []models.AuditRecord
}

func (f *fakeReports) BuildReport(_ context.Context, req models.BuildReportRequest) (*models.AnalysisReport, error) {
	f.build = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.AnalysisReport{ID: "r1", Symbol: req.Symbol, Signal: models.SignalBuy}, nil
}

func (f *fakeReports) GenerateReport(_ context.Context, req models.GenerateReportRequest) (*models.AnalysisReport, error) {
	f.generate = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.AnalysisReport{ID: "r2", Symbol: req.Symbol}, nil
}

func (f *fakeReports) ResolveSymbol(_ context.Context, q string) (models.SymbolResolution, error) {
	f.query = q
	return models.SymbolResolution{Ticker: "NASDAQ:" + strings.ToUpper(q), Source: "heuristic"}, f.err
}

func (f *fakeReports) RecentAudit(_ context.Context, symbol string, limit int) ([]models.AuditRecord, error) {
	f.auditSym, f.auditLim = symbol, limit
	return f.auditRows, f.err
}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func serve(t *testing.T, h *ReportsEchoHandler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	if env.Status != rec.Code {
		t.Fatalf("envelope status %d != http status %d", env.Status, rec.Code)
	}
	return rec, env
}

func TestBuildEndpoint(t *testing.T) {
	f := &fakeReports{}
	rec, env := serve(t, NewReportsEchoHandler(nil, f, nil), http.MethodPost, "/api/v1/reports", `{"rawText":"{}","symbol":"AAPL"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var r models.AnalysisReport
	if err := json.Unmarshal(env.Data, &r); err != nil || r.ID != "r1" {
		t.Fatalf("unexpected report %s (%v)", env.Data, err)
	}
	if f.build.MarketSegment != "US_EQUITY" || f.build.Timeframe != "1D" {
		t.Fatalf("defaults not applied: %+v", f.build)
	}
}

func TestBuildEndpointValidation(t *testing.T) {
	rec, env := serve(t, NewReportsEchoHandler(nil, &fakeReports{}, nil), http.MethodPost, "/api/v1/reports", `{"symbol":"AAPL"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(string(env.Data), "ERR_REQUIRED") || !strings.Contains(string(env.Data), "rawText") {
		t.Fatalf("unexpected validation body %s", env.Data)
	}
}

func TestErrorMapping(t *testing.T) {
	secret := "RAW UPSTREAM TEXT"
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{&parse.ExtractionFailure{Raw: secret, Reason: "missing opening bracket"}, http.StatusUnprocessableEntity, "ERR_ANALYSIS_FAILED"},
		{&parse.MalformedPayloadError{Raw: secret, Err: errors.New("bad")}, http.StatusUnprocessableEntity, "ERR_ANALYSIS_FAILED"},
		{fmt.Errorf("%w: 503", usecase.ErrInferenceUnavailable), http.StatusBadGateway, "ERR_UPSTREAM"},
		{usecase.ErrInvalidImage, http.StatusBadRequest, "ERR_BAD_REQUEST"},
		{errors.New("boom"), http.StatusInternalServerError, "ERR_INTERNAL"},
	}
	for _, tc := range cases {
		rec, env := serve(t, NewReportsEchoHandler(nil, &fakeReports{err: tc.err}, nil), http.MethodPost, "/api/v1/reports/generate", `{"symbol":"AAPL"}`)
		if rec.Code != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, rec.Code)
		}
		if !strings.Contains(string(env.Data), tc.code) {
			t.Fatalf("%v: expected code %s in %s", tc.err, tc.code, env.Data)
		}
		if strings.Contains(rec.Body.String(), secret) {
			t.Fatalf("raw upstream text leaked: %s", rec.Body)
		}
	}
}

func TestResolveEndpoint(t *testing.T) {
	f := &fakeReports{}
	rec, env := serve(t, NewReportsEchoHandler(nil, f, nil), http.MethodGet, "/api/v1/symbols/resolve?q=nvda", "")
	if rec.Code != http.StatusOK || f.query != "nvda" {
		t.Fatalf("unexpected %d query=%q", rec.Code, f.query)
	}
	if !strings.Contains(string(env.Data), "NASDAQ:NVDA") {
		t.Fatalf("unexpected body %s", env.Data)
	}

	rec, _ = serve(t, NewReportsEchoHandler(nil, f, nil), http.MethodGet, "/api/v1/symbols/resolve", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without q, got %d", rec.Code)
	}
}

func TestAuditEndpoint(t *testing.T) {
	f := &fakeReports{auditRows: []models.AuditRecord{{Symbol: "AAPL", Outcome: "ok"}}}
	rec, env := serve(t, NewReportsEchoHandler(nil, f, nil), http.MethodGet, "/api/v1/audit?symbol=AAPL", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if f.auditSym != "AAPL" || f.auditLim != 50 {
		t.Fatalf("unexpected args %q %d", f.auditSym, f.auditLim)
	}
	var list struct {
		Rows  []models.AuditRecord `json:"rows"`
		Total int64                `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil || list.Total != 1 {
		t.Fatalf("unexpected list %s (%v)", env.Data, err)
	}

	rec, _ = serve(t, NewReportsEchoHandler(nil, f, nil), http.MethodGet, "/api/v1/audit?limit=9999", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized limit, got %d", rec.Code)
	}
}

func TestRateLimitedRoutes(t *testing.T) {
	blocked := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return c.JSON(http.StatusTooManyRequests, map[string]int{"status": http.StatusTooManyRequests})
		}
	}
	h := NewReportsEchoHandler(nil, &fakeReports{}, blocked)

	rec, _ := serve(t, h, http.MethodPost, "/api/v1/reports/generate", `{"symbol":"AAPL"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("generate should be limited, got %d", rec.Code)
	}
	rec, _ = serve(t, h, http.MethodPost, "/api/v1/reports", `{"rawText":"{}"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("build should not be limited, got %d", rec.Code)
	}
}
