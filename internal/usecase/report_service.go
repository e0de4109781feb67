package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
	"SignalDesk/internal/domain/service"
	"SignalDesk/internal/service/diagnostics"
	"SignalDesk/internal/services/inference"
	"SignalDesk/pkg/logger"
	"SignalDesk/pkg/metrics"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrInvalidImage is returned when the chart image is not valid base64.
	ErrInvalidImage = errors.New("image is not valid base64")
	// ErrInferenceUnavailable wraps any failure to obtain text from the inference service.
	ErrInferenceUnavailable = errors.New("inference service unavailable")
)

// OutcomeOK is the audit outcome of a successful build; failures use the diagnostics kind.
const OutcomeOK = "ok"

// FailureRecorder receives analysis failures for offline diagnosis.
type FailureRecorder interface {
	Record(symbol string, err error)
}

type nopRecorder struct{}

func (nopRecorder) Record(string, error) {}

// ReportService is the host around the pipeline: it fetches inference text and a fresh anchor,
// builds the report, then audits, publishes and broadcasts it.
type ReportService struct {
	pipeline    service.ReportBuilder
	inference   service.Inference
	resolver    service.SymbolResolver
	quotes      domrepo.QuoteSource
	audit       domrepo.AuditStore
	publisher   domrepo.ReportPublisher
	broadcaster domrepo.Broadcaster
	failures    FailureRecorder
	metrics     domrepo.Metrics
	log         *logger.Logger
}

// ReportServiceDeps lists the collaborators. Only Pipeline and Resolver are required.
type ReportServiceDeps struct {
	Pipeline    service.ReportBuilder
	Inference   service.Inference
	Resolver    service.SymbolResolver
	Quotes      domrepo.QuoteSource
	Audit       domrepo.AuditStore
	Publisher   domrepo.ReportPublisher
	Broadcaster domrepo.Broadcaster
	Failures    FailureRecorder
	Metrics     domrepo.Metrics
	Logger      *logger.Logger
}

func NewReportService(d ReportServiceDeps) *ReportService {
	s := &ReportService{
		pipeline:    d.Pipeline,
		inference:   d.Inference,
		resolver:    d.Resolver,
		quotes:      d.Quotes,
		audit:       d.Audit,
		publisher:   d.Publisher,
		broadcaster: d.Broadcaster,
		failures:    d.Failures,
		metrics:     d.Metrics,
		log:         d.Logger,
	}
	if s.failures == nil {
		s.failures = nopRecorder{}
	}
	if s.metrics == nil {
		s.metrics = metrics.Nop{}
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	s.log = s.log.Named("reports")
	return s
}

// BuildReport runs the pipeline over caller-supplied inference text.
func (s *ReportService) BuildReport(ctx context.Context, req models.BuildReportRequest) (*models.AnalysisReport, error) {
	in := models.ReportInput{
		RawText:     req.RawText,
		AnchorPrice: req.AnchorPrice,
		Symbol:      strings.ToUpper(strings.TrimSpace(req.Symbol)),
		Context: models.AnalysisContext{
			MarketSegment: models.NormalizeSegment(req.MarketSegment),
			Timeframe:     req.Timeframe,
		},
	}
	r, err := s.pipeline.Build(ctx, in)
	return s.finish(ctx, in, r, err)
}

// GenerateReport resolves the symbol, asks the inference service for an analysis while
// refreshing the anchor price, then builds the report from the reply.
func (s *ReportService) GenerateReport(ctx context.Context, req models.GenerateReportRequest) (*models.AnalysisReport, error) {
	image, err := decodeImage(req.Image, req.ImageMIME)
	if err != nil {
		return nil, err
	}
	if s.inference == nil {
		return nil, ErrInferenceUnavailable
	}

	res, err := s.resolver.Resolve(ctx, req.Symbol)
	if err != nil {
		return nil, fmt.Errorf("resolve symbol: %w", err)
	}

	actx := models.AnalysisContext{
		MarketSegment: models.NormalizeSegment(req.MarketSegment),
		Timeframe:     req.Timeframe,
	}
	anchor := req.AnchorPrice
	if anchor <= 0 {
		anchor = res.Price
	}

	ireq := inference.AnalysisRequest(res.Ticker, res.Name, anchor, actx)
	ireq.Image = image

	start := time.Now()
	var text string
	refreshed := anchor
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := s.inference.Generate(gctx, ireq)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInferenceUnavailable, err)
		}
		text = out
		return nil
	})
	if s.quotes != nil && req.AnchorPrice <= 0 {
		g.Go(func() error {
			q, err := s.quotes.Quote(gctx, res.Ticker)
			if err != nil {
				s.log.Warn("anchor refresh failed", logger.String("symbol", res.Ticker), logger.Error(err))
				return nil
			}
			if q.Price > 0 {
				refreshed = q.Price
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.metrics.RecordFailure("inference")
		s.log.Error("inference failed", logger.String("symbol", res.Ticker), logger.Error(err))
		return nil, err
	}
	s.metrics.RecordLatency("generate", time.Since(start).Seconds())

	in := models.ReportInput{
		RawText:     text,
		AnchorPrice: refreshed,
		Symbol:      res.Ticker,
		Context:     actx,
	}
	r, err := s.pipeline.Build(ctx, in)
	if r != nil && r.DisplayName == "" {
		r.DisplayName = res.Name
	}
	return s.finish(ctx, in, r, err)
}

// ResolveSymbol exposes the resolver.
func (s *ReportService) ResolveSymbol(ctx context.Context, query string) (models.SymbolResolution, error) {
	return s.resolver.Resolve(ctx, query)
}

// RecentAudit lists the latest audit rows, optionally for one symbol.
func (s *ReportService) RecentAudit(ctx context.Context, symbol string, limit int) ([]models.AuditRecord, error) {
	if s.audit == nil {
		return []models.AuditRecord{}, nil
	}
	return s.audit.Recent(ctx, strings.ToUpper(strings.TrimSpace(symbol)), limit)
}

// finish records the outcome and fans a successful report out. Side-channel failures are
// logged, never returned.
func (s *ReportService) finish(ctx context.Context, in models.ReportInput, r *models.AnalysisReport, err error) (*models.AnalysisReport, error) {
	if err != nil {
		s.failures.Record(in.Symbol, err)
		s.record(ctx, models.AuditRecord{
			Symbol:    in.Symbol,
			Segment:   string(in.Context.MarketSegment),
			Timeframe: in.Context.Timeframe,
			Outcome:   diagnostics.Kind(err),
		})
		return nil, err
	}

	s.record(ctx, models.AuditRecord{
		ReportID:       r.ID,
		Symbol:         r.Symbol,
		Segment:        string(r.MarketSegment),
		Timeframe:      r.Timeframe,
		Signal:         string(r.Signal),
		WinRate:        r.WinRate,
		Verdict:        string(r.Consensus.Verdict),
		RepairStrategy: r.Meta.RepairStrategy,
		Guardrails:     r.Guardrails,
		Backfilled:     r.Meta.Backfilled,
		Outcome:        OutcomeOK,
		CreatedAt:      r.Meta.GeneratedAt,
	})

	if s.publisher != nil {
		if perr := s.publisher.Publish(ctx, r); perr != nil {
			s.metrics.RecordFailure("publish")
			s.log.Error("publish report failed", logger.String("report_id", r.ID), logger.Error(perr))
		}
	}
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(r)
	}
	return r, nil
}

func (s *ReportService) record(ctx context.Context, rec models.AuditRecord) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, rec); err != nil {
		s.metrics.RecordFailure("audit")
		s.log.Warn("audit record failed", logger.String("symbol", rec.Symbol), logger.Error(err))
	}
}

// decodeImage accepts raw base64 or a data URL.
func decodeImage(encoded, mime string) (*models.Image, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, nil
	}
	if rest, ok := strings.CutPrefix(encoded, "data:"); ok {
		header, payload, found := strings.Cut(rest, ",")
		if !found {
			return nil, ErrInvalidImage
		}
		if m, _, _ := strings.Cut(header, ";"); m != "" {
			mime = m
		}
		encoded = payload
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(data) == 0 {
		return nil, ErrInvalidImage
	}
	if mime == "" {
		mime = "image/png"
	}
	return &models.Image{Data: data, MIME: mime}, nil
}
