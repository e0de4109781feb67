package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestAnalysisFailedResponseHidesCause(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)

	cause := errors.New(`malformed payload: {"winRate": 7`)
	if err := AppErrorResponse(c, AnalysisFailedError(cause)); err != nil {
		t.Fatalf("AppErrorResponse: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, CodeAnalysisFailed) {
		t.Fatalf("missing code in %s", body)
	}
	if strings.Contains(body, "winRate") {
		t.Fatalf("raw payload leaked into response: %s", body)
	}
}

func TestAppErrorResponseFallsBackTo500(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	_ = AppErrorResponse(c, errors.New("boom"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

type sampleRequest struct {
	Name  string `json:"name" validate:"required"`
	Kind  string `json:"kind" default:"basic" validate:"oneof=basic premium"`
	Count int    `json:"count" validate:"gte=0,lte=10"`
}

func TestPrepareRequest(t *testing.T) {
	req := &sampleRequest{Name: "x"}
	if errs := PrepareRequest(context.Background(), req); len(errs) != 0 {
		t.Fatalf("unexpected errors %+v", errs)
	}
	if req.Kind != "basic" {
		t.Fatalf("default not applied: %q", req.Kind)
	}

	errs := PrepareRequest(context.Background(), &sampleRequest{Count: 11})
	if len(errs) != 2 {
		t.Fatalf("errors = %+v, want 2", errs)
	}
	fields := map[string]string{}
	for _, e := range errs {
		fields[e.Field] = e.Code
	}
	if fields["name"] != "ERR_REQUIRED" || fields["count"] != "ERR_LTE" {
		t.Fatalf("unexpected errors %+v", errs)
	}
}

func TestClientSendAndParse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") != "AAPL" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("missing symbol"))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]float64{"c": 189.5})
	}))
	defer srv.Close()

	c := NewClient(WithTimeout(2 * time.Second))
	var out struct {
		C float64 `json:"c"`
	}
	err := c.SendAndParse(context.Background(), &RequestOptions{
		Method:      MethodGet,
		URL:         srv.URL,
		QueryParams: map[string][]string{"symbol": {"AAPL"}},
	}, &out)
	if err != nil {
		t.Fatalf("SendAndParse: %v", err)
	}
	if out.C != 189.5 {
		t.Fatalf("price = %v", out.C)
	}

	err = c.SendAndParse(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL}, &out)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadRequest {
		t.Fatalf("expected StatusError 400, got %v", err)
	}
}
