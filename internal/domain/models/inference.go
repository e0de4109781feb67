package models

import "time"

// Image is an optional chart screenshot sent alongside a prompt.
type Image struct {
	Data []byte
	MIME string
}

// InferenceRequest is one call to the generative service.
type InferenceRequest struct {
	System      string
	Prompt      string
	Image       *Image
	Temperature float32
	JSON        bool
}

// ReportInput is everything the pipeline needs for one report.
type ReportInput struct {
	RawText     string
	AnchorPrice float64
	Symbol      string
	Context     AnalysisContext
}

// AuditRecord is the per-build row kept for analysis of guardrail behaviour.
type AuditRecord struct {
	ReportID       string    `json:"reportId"`
	Symbol         string    `json:"symbol"`
	Segment        string    `json:"segment"`
	Timeframe      string    `json:"timeframe"`
	Signal         string    `json:"signal"`
	WinRate        float64   `json:"winRate"`
	Verdict        string    `json:"verdict"`
	RepairStrategy string    `json:"repairStrategy"`
	Guardrails     []string  `json:"guardrails"`
	Backfilled     []string  `json:"backfilled"`
	Outcome        string    `json:"outcome"`
	CreatedAt      time.Time `json:"createdAt"`
}
