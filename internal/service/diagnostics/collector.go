package diagnostics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
	"sync"
	"time"

	"SignalDesk/internal/services/parse"
	"SignalDesk/pkg/kafka"
	"SignalDesk/pkg/logger"
)

// Failure kinds.
const (
	KindExtraction = "extraction"
	KindMalformed  = "malformed"
	KindOther      = "other"
)

const maxSample = 1024

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}, headers ...kafka.Header) error
}

// Config controls flushing. A nil Publisher makes the collector log its batches instead.
type Config struct {
	FlushInterval  time.Duration
	CountThreshold int
	Topic          string
	Publisher      Publisher
	Logger         *logger.Logger
}

// Entry aggregates identical analysis failures between two flushes.
// Sample holds the raw upstream text of the first occurrence, truncated; it is only ever
// shipped to the diagnostics topic.
type Entry struct {
	Kind      string    `json:"kind"`
	Reason    string    `json:"reason"`
	Symbol    string    `json:"symbol,omitempty"`
	Count     int       `json:"count"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
	Sample    string    `json:"sample"`
}

// Collector batches analysis failures and flushes them on an interval or once the number of
// distinct entries reaches the threshold.
type Collector struct {
	cfg Config
	log *logger.Logger
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*Entry
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New starts the collector's flush loop. Call Close to stop it.
func New(cfg Config) *Collector {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 30 * time.Second
	}
	if cfg.CountThreshold <= 0 {
		cfg.CountThreshold = 50
	}
	if cfg.Topic == "" {
		cfg.Topic = "analysis.diagnostics"
	}
	l := cfg.Logger
	if l == nil {
		l = logger.Nop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Collector{
		cfg:     cfg,
		log:     l.Named("diagnostics"),
		now:     time.Now,
		entries: make(map[string]*Entry),
		ctx:     ctx,
		cancel:  cancel,
	}
	c.wg.Add(1)
	go c.loop()
	return c
}

// Kind classifies a pipeline error.
func Kind(err error) string {
	switch {
	case errors.Is(err, parse.ErrExtraction):
		return KindExtraction
	case errors.Is(err, parse.ErrMalformedPayload):
		return KindMalformed
	default:
		return KindOther
	}
}

// Raw returns the upstream text carried by an analysis failure, if any.
func Raw(err error) string {
	var ef *parse.ExtractionFailure
	if errors.As(err, &ef) {
		return ef.Raw
	}
	var mp *parse.MalformedPayloadError
	if errors.As(err, &mp) {
		return mp.Raw
	}
	return ""
}

// Record adds one failure. Nil errors are ignored.
func (c *Collector) Record(symbol string, err error) {
	if err == nil {
		return
	}
	kind, reason, raw := Kind(err), err.Error(), Raw(err)
	key := entryKey(kind, reason, symbol)
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if e, ok := c.entries[key]; ok {
		e.Count++
		e.LastSeen = now
	} else {
		c.entries[key] = &Entry{
			Kind:      kind,
			Reason:    reason,
			Symbol:    symbol,
			Count:     1,
			FirstSeen: now,
			LastSeen:  now,
			Sample:    truncate(raw, maxSample),
		}
	}
	if len(c.entries) >= c.cfg.CountThreshold {
		c.flushLocked()
	}
}

// Pending returns the number of distinct entries waiting for the next flush.
func (c *Collector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close flushes what is pending and waits for in-flight publishes.
func (c *Collector) Close() {
	c.cancel()
	c.wg.Wait()
}

func (c *Collector) loop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			c.flushLocked()
			c.mu.Unlock()
		case <-c.ctx.Done():
			c.mu.Lock()
			c.closed = true
			c.flushLocked()
			c.mu.Unlock()
			return
		}
	}
}

// flushLocked hands the current batch to a publishing goroutine. Caller holds mu.
func (c *Collector) flushLocked() {
	if len(c.entries) == 0 {
		return
	}
	batch := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		batch = append(batch, *e)
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].FirstSeen.Before(batch[j].FirstSeen) })
	c.entries = make(map[string]*Entry)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.publish(batch)
	}()
}

func (c *Collector) publish(batch []Entry) {
	if c.cfg.Publisher == nil {
		for _, e := range batch {
			c.log.Warn("analysis failure",
				logger.String("kind", e.Kind),
				logger.String("reason", e.Reason),
				logger.String("symbol", e.Symbol),
				logger.Int("count", e.Count),
			)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := c.cfg.Publisher.Publish(ctx, c.cfg.Topic, nil, batch); err != nil {
		c.log.Error("publish diagnostics failed",
			logger.Int("entries", len(batch)),
			logger.Error(err),
		)
	}
}

func entryKey(kind, reason, symbol string) string {
	h := sha256.Sum256([]byte(kind + "\x00" + reason + "\x00" + symbol))
	return hex.EncodeToString(h[:])
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
