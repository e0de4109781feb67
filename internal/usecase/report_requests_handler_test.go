package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	pkgkafka "SignalDesk/pkg/kafka"
)

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestReportRequestsHandler(t *testing.T) {
	f := newServiceFixture()
	h := NewReportRequestsHandler("analysis.requests", f.svc, nil)
	if h.Topic() != "analysis.requests" {
		t.Fatalf("unexpected topic %q", h.Topic())
	}

	cases := []struct {
		name      string
		payload   []byte
		inferErr  error
		wantErr   bool
		permanent bool
	}{
		{name: "build", payload: mustJSON(t, map[string]any{"rawText": fullPayload, "symbol": "AAPL", "anchorPrice": 100})},
		{name: "generate", payload: mustJSON(t, map[string]any{"symbol": "msft"})},
		{name: "garbage", payload: []byte("not json"), wantErr: true, permanent: true},
		{name: "invalid segment", payload: mustJSON(t, map[string]any{"rawText": "{}", "marketSegment": "BONDS"}), wantErr: true, permanent: true},
		{name: "missing symbol", payload: mustJSON(t, map[string]any{"timeframe": "1D"}), wantErr: true, permanent: true},
		{name: "analysis failure", payload: mustJSON(t, map[string]any{"rawText": "sorry, no idea"}), wantErr: true, permanent: true},
		{name: "inference outage", payload: mustJSON(t, map[string]any{"symbol": "tsla"}), inferErr: errors.New("503"), wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f.inference.err = tc.inferErr
			err := h.Handle(context.Background(), tc.payload)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil && pkgkafka.IsPermanent(err) != tc.permanent {
				t.Fatalf("permanent = %v, want %v (err %v)", pkgkafka.IsPermanent(err), tc.permanent, err)
			}
		})
	}

	if got := len(f.publisher.published); got != 2 {
		t.Fatalf("expected 2 published reports, got %d", got)
	}
}
