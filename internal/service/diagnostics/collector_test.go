package diagnostics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"SignalDesk/internal/services/parse"
	"SignalDesk/pkg/kafka"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingPublisher struct {
	mu      sync.Mutex
	topics  []string
	batches [][]Entry
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ []byte, value interface{}, _ ...kafka.Header) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.batches = append(p.batches, value.([]Entry))
	return nil
}

func (p *recordingPublisher) all() [][]Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]Entry(nil), p.batches...)
}

func TestKindAndRaw(t *testing.T) {
	_, _, err := parse.ExtractAndParse("no braces here")
	assert.Equal(t, KindExtraction, Kind(err))
	assert.Equal(t, "no braces here", Raw(err))

	_, _, err = parse.ExtractAndParse("{broken: ]}")
	assert.Equal(t, KindMalformed, Kind(err))
	assert.Equal(t, "{broken: ]}", Raw(err))

	assert.Equal(t, KindOther, Kind(errors.New("x")))
	assert.Empty(t, Raw(errors.New("x")))
}

func TestCollectorAggregatesAndFlushesOnClose(t *testing.T) {
	pub := &recordingPublisher{}
	c := New(Config{FlushInterval: time.Hour, CountThreshold: 100, Topic: "diag", Publisher: pub})

	_, _, err := parse.ExtractAndParse("no json")
	c.Record("AAPL", err)
	c.Record("AAPL", err)
	c.Record("MSFT", err)
	c.Record("AAPL", nil)
	assert.Equal(t, 2, c.Pending())

	c.Close()

	batches := pub.all()
	require.Len(t, batches, 1)
	assert.Equal(t, []string{"diag"}, pub.topics)
	counts := map[string]int{}
	for _, e := range batches[0] {
		counts[e.Symbol] = e.Count
		assert.Equal(t, KindExtraction, e.Kind)
		assert.Equal(t, "no json", e.Sample)
	}
	assert.Equal(t, map[string]int{"AAPL": 2, "MSFT": 1}, counts)
}

func TestCollectorFlushesAtThreshold(t *testing.T) {
	pub := &recordingPublisher{}
	c := New(Config{FlushInterval: time.Hour, CountThreshold: 2, Publisher: pub})
	defer c.Close()

	c.Record("A", errors.New("one"))
	c.Record("A", errors.New("two"))
	assert.Equal(t, 0, c.Pending())

	assert.Eventually(t, func() bool { return len(pub.all()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Len(t, pub.all()[0], 2)
}

func TestCollectorFlushesOnInterval(t *testing.T) {
	pub := &recordingPublisher{}
	c := New(Config{FlushInterval: 10 * time.Millisecond, CountThreshold: 100, Publisher: pub})
	defer c.Close()

	c.Record("A", errors.New("boom"))
	assert.Eventually(t, func() bool { return len(pub.all()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestCollectorIgnoresRecordsAfterClose(t *testing.T) {
	c := New(Config{FlushInterval: time.Hour})
	c.Close()
	c.Record("A", errors.New("late"))
	assert.Equal(t, 0, c.Pending())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abcdef", 3))
	assert.Equal(t, "ab", truncate("ab", 3))
}
