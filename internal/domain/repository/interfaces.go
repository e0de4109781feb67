package repository

import (
	"context"

	"SignalDesk/internal/domain/models"
)

// QuoteSource returns the latest price for a ticker.
type QuoteSource interface {
	Quote(ctx context.Context, ticker string) (models.Quote, error)
}

// ReportPublisher fans finished reports out to downstream consumers.
type ReportPublisher interface {
	Publish(ctx context.Context, r *models.AnalysisReport) error
	Close() error
}

// AuditStore records the outcome of every build (never the report body).
type AuditStore interface {
	Init(ctx context.Context) error
	Record(ctx context.Context, rec models.AuditRecord) error
	Recent(ctx context.Context, symbol string, limit int) ([]models.AuditRecord, error)
	Health(ctx context.Context) error
}

// Broadcaster pushes finished reports to live subscribers.
type Broadcaster interface {
	Broadcast(r *models.AnalysisReport)
}

type Metrics interface {
	RecordReport(signal string, repairStrategy string)
	RecordGuardrail(rule string)
	RecordFailure(kind string)
	RecordLatency(op string, seconds float64)
}
