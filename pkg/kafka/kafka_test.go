package kafka

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

func TestPermanent(t *testing.T) {
	if Permanent(nil) != nil {
		t.Fatalf("Permanent(nil) should be nil")
	}
	base := errors.New("bad payload")
	wrapped := fmt.Errorf("handle: %w", Permanent(base))
	if !IsPermanent(wrapped) {
		t.Fatalf("expected wrapped error to be permanent")
	}
	if !errors.Is(wrapped, base) {
		t.Fatalf("permanent error should unwrap to its cause")
	}
	if IsPermanent(base) {
		t.Fatalf("plain error reported as permanent")
	}
}

func TestBackoffWithJitterBounds(t *testing.T) {
	min, max := 50*time.Millisecond, 400*time.Millisecond
	for attempt := 1; attempt <= 10; attempt++ {
		d := backoffWithJitter(min, max, attempt)
		if d <= 0 || d > max {
			t.Fatalf("attempt %d: backoff %v out of (0, %v]", attempt, d, max)
		}
	}
	if d := backoffWithJitter(0, 0, 0); d <= 0 {
		t.Fatalf("zero config should fall back to a positive backoff, got %v", d)
	}
}

func TestEncodeValue(t *testing.T) {
	cases := []struct {
		in   interface{}
		want string
	}{
		{[]byte("raw"), "raw"},
		{"text", "text"},
		{map[string]int{"a": 1}, `{"a":1}`},
	}
	for _, tc := range cases {
		got, err := encodeValue(tc.in)
		if err != nil {
			t.Fatalf("encodeValue(%v): %v", tc.in, err)
		}
		if string(got) != tc.want {
			t.Fatalf("encodeValue(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
	if _, err := encodeValue(func() {}); err == nil {
		t.Fatalf("expected error for unencodable value")
	}
}

func TestRequestIDHook(t *testing.T) {
	km := kafka.Message{Headers: []kafka.Header{{Key: RequestIDHeader, Value: []byte("req-42")}}}
	ctx, data, err := RequestIDHook().BeforeHandle(context.Background(), "analysis.requests", km, []byte("{}"))
	if err != nil {
		t.Fatalf("BeforeHandle: %v", err)
	}
	if got := RequestIDFrom(ctx); got != "req-42" {
		t.Fatalf("request id = %q, want req-42", got)
	}
	if string(data) != "{}" {
		t.Fatalf("payload changed: %q", data)
	}

	ctx, _, _ = RequestIDHook().BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	if RequestIDFrom(ctx) != "" {
		t.Fatalf("expected empty request id without header")
	}
}

func TestNewConsumerRequiresBrokers(t *testing.T) {
	if _, err := NewConsumer(); err == nil {
		t.Fatalf("expected error without brokers")
	}
	if _, err := NewProducer(); err == nil {
		t.Fatalf("expected error without brokers")
	}
}
