package service

import (
	"context"

	"SignalDesk/internal/domain/models"
)

// Inference sends one prompt (optionally with an image) to the generative service
// and returns its raw text reply.
type Inference interface {
	Generate(ctx context.Context, req models.InferenceRequest) (string, error)
}

// SymbolResolver resolves free text into an exchange-qualified ticker. It never fails for a
// non-empty query.
type SymbolResolver interface {
	Resolve(ctx context.Context, query string) (models.SymbolResolution, error)
}

// ReportBuilder turns raw inference text into a validated report.
type ReportBuilder interface {
	Build(ctx context.Context, in models.ReportInput) (*models.AnalysisReport, error)
}
