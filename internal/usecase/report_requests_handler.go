package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/services/parse"
	xhttp "SignalDesk/pkg/http"
	pkgkafka "SignalDesk/pkg/kafka"
	"SignalDesk/pkg/logger"
)

// ReportRequestsHandler consumes report requests from Kafka. A message carrying rawText is
// built directly; otherwise the symbol is analysed through the inference service. Finished
// reports leave through the service's publisher.
type ReportRequestsHandler struct {
	topic   string
	reports *ReportService
	log     *logger.Logger
}

func NewReportRequestsHandler(topic string, reports *ReportService, l *logger.Logger) *ReportRequestsHandler {
	if l == nil {
		l = logger.Nop()
	}
	return &ReportRequestsHandler{topic: topic, reports: reports, log: l.Named("report_requests")}
}

func (h *ReportRequestsHandler) Topic() string { return h.topic }

// incoming message schema: BuildReportRequest or GenerateReportRequest fields
type reportRequestMessage struct {
	RawText       string  `json:"rawText"`
	Symbol        string  `json:"symbol"`
	AnchorPrice   float64 `json:"anchorPrice"`
	MarketSegment string  `json:"marketSegment"`
	Timeframe     string  `json:"timeframe"`
	Image         string  `json:"image"`
	ImageMIME     string  `json:"imageMime"`
}

// Handle returns a permanent error for anything a retry cannot fix: undecodable or invalid
// messages and analysis failures. Inference outages are returned as-is so the consumer retries.
func (h *ReportRequestsHandler) Handle(ctx context.Context, b []byte) error {
	var m reportRequestMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return pkgkafka.Permanent(fmt.Errorf("decode report request: %w", err))
	}

	var err error
	if m.RawText != "" {
		req := models.BuildReportRequest{
			RawText:       m.RawText,
			AnchorPrice:   m.AnchorPrice,
			Symbol:        m.Symbol,
			MarketSegment: m.MarketSegment,
			Timeframe:     m.Timeframe,
		}
		if verrs := xhttp.PrepareRequest(ctx, &req); len(verrs) > 0 {
			return pkgkafka.Permanent(fmt.Errorf("invalid build request: %s", verrs[0].Message))
		}
		_, err = h.reports.BuildReport(ctx, req)
	} else {
		req := models.GenerateReportRequest{
			Symbol:        m.Symbol,
			AnchorPrice:   m.AnchorPrice,
			MarketSegment: m.MarketSegment,
			Timeframe:     m.Timeframe,
			Image:         m.Image,
			ImageMIME:     m.ImageMIME,
		}
		if verrs := xhttp.PrepareRequest(ctx, &req); len(verrs) > 0 {
			return pkgkafka.Permanent(fmt.Errorf("invalid generate request: %s", verrs[0].Message))
		}
		_, err = h.reports.GenerateReport(ctx, req)
	}

	switch {
	case err == nil:
		return nil
	case parse.IsAnalysisFailure(err), errors.Is(err, ErrInvalidImage):
		h.log.Warn("report request failed permanently",
			logger.String("symbol", m.Symbol),
			logger.String("request_id", pkgkafka.RequestIDFrom(ctx)),
			logger.Error(err),
		)
		return pkgkafka.Permanent(err)
	default:
		return err
	}
}

var _ pkgkafka.MessageHandler = (*ReportRequestsHandler)(nil)
