package usecase

import (
	"context"
	"sync"

	"SignalDesk/internal/domain/models"
)

type recordingMetrics struct {
	mu         sync.Mutex
	reports    []string
	guardrails []string
	failures   []string
	latencies  []string
}

func (m *recordingMetrics) RecordReport(signal, strategy string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, signal+"/"+strategy)
}

func (m *recordingMetrics) RecordGuardrail(rule string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.guardrails = append(m.guardrails, rule)
}

func (m *recordingMetrics) RecordFailure(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, kind)
}

func (m *recordingMetrics) RecordLatency(op string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies = append(m.latencies, op)
}

type fakeInference struct {
	mu    sync.Mutex
	reply string
	err   error
	reqs  []models.InferenceRequest
}

func (f *fakeInference) Generate(_ context.Context, req models.InferenceRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return f.reply, f.err
}

type fakeQuotes struct {
	quote models.Quote
	err   error
}

func (f *fakeQuotes) Quote(_ context.Context, ticker string) (models.Quote, error) {
	q := f.quote
	q.Symbol = ticker
	return q, f.err
}

type fakeAudit struct {
	mu      sync.Mutex
	records []models.AuditRecord
}

func (f *fakeAudit) Init(context.Context) error { return nil }

func (f *fakeAudit) Record(_ context.Context, rec models.AuditRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeAudit) Recent(_ context.Context, symbol string, limit int) ([]models.AuditRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.AuditRecord{}
	for _, r := range f.records {
		if symbol == "" || r.Symbol == symbol {
			out = append(out, r)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeAudit) Health(context.Context) error { return nil }

type fakePublisher struct {
	mu        sync.Mutex
	published []*models.AnalysisReport
}

func (f *fakePublisher) Publish(_ context.Context, r *models.AnalysisReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, r)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeBroadcaster struct {
	mu   sync.Mutex
	sent []*models.AnalysisReport
}

func (f *fakeBroadcaster) Broadcast(r *models.AnalysisReport) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, r)
}

type fakeFailures struct {
	mu   sync.Mutex
	errs []error
}

func (f *fakeFailures) Record(_ string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, err)
}
