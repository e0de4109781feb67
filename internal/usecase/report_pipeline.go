package usecase

import (
	"context"
	"fmt"
	"time"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
	"SignalDesk/internal/domain/service"
	"SignalDesk/internal/service/diagnostics"
	"SignalDesk/internal/services/backfill"
	"SignalDesk/internal/services/guardrail"
	"SignalDesk/internal/services/parse"
	"SignalDesk/internal/services/scenario"
	"SignalDesk/pkg/logger"
	"SignalDesk/pkg/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ReportPipeline turns raw inference text into a validated report:
// extract, parse, backfill, guardrails, scenario normalization, commentary refresh, validation.
// It keeps no per-call state and is safe for concurrent use.
type ReportPipeline struct {
	engine   *guardrail.Engine
	validate *validator.Validate
	metrics  domrepo.Metrics
	log      *logger.Logger
	now      func() time.Time
	newID    func() string
}

var _ service.ReportBuilder = (*ReportPipeline)(nil)

// NewReportPipeline builds a pipeline over the default rule table.
func NewReportPipeline(m domrepo.Metrics, l *logger.Logger) *ReportPipeline {
	if m == nil {
		m = metrics.Nop{}
	}
	if l == nil {
		l = logger.Nop()
	}
	return &ReportPipeline{
		engine:   guardrail.NewEngine(),
		validate: validator.New(),
		metrics:  m,
		log:      l.Named("pipeline"),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Build runs the pipeline. The only errors it returns match parse.ErrExtraction or
// parse.ErrMalformedPayload.
func (p *ReportPipeline) Build(ctx context.Context, in models.ReportInput) (*models.AnalysisReport, error) {
	start := time.Now()
	anchor := scenario.Anchor(in.AnchorPrice)
	actx := models.AnalysisContext{
		MarketSegment: models.NormalizeSegment(string(in.Context.MarketSegment)),
		Timeframe:     in.Context.Timeframe,
	}

	obj, strategy, err := parse.ExtractAndParse(in.RawText)
	if err != nil {
		p.metrics.RecordFailure(diagnostics.Kind(err))
		p.log.Warn("analysis payload rejected",
			logger.String("symbol", in.Symbol),
			logger.String("kind", diagnostics.Kind(err)),
			logger.Error(err),
		)
		return nil, err
	}

	decoded := backfill.Decode(obj, actx)
	decoded.Meta.RepairStrategy = strategy

	outcome := p.engine.Apply(decoded)
	r := outcome.Report
	r.Scenarios = scenario.Normalize(r.Scenarios, anchor)
	r.TradingSetup = scenario.ReconcileSetup(r.TradingSetup, r.Scenarios, anchor)
	backfill.RefreshCommentary(r)

	r.ID = p.newID()
	r.Symbol = in.Symbol
	r.AnchorPrice = anchor
	r.Meta.GeneratedAt = p.now().UTC()
	if r.Meta.Backfilled == nil {
		r.Meta.Backfilled = []string{}
	}

	if err := p.validate.StructCtx(ctx, r); err != nil {
		p.metrics.RecordFailure(diagnostics.KindMalformed)
		return nil, &parse.MalformedPayloadError{Raw: in.RawText, Err: fmt.Errorf("report validation: %w", err)}
	}

	p.metrics.RecordReport(string(r.Signal), strategy)
	for _, rule := range outcome.Fired {
		p.metrics.RecordGuardrail(rule)
	}
	p.metrics.RecordLatency("build", time.Since(start).Seconds())

	p.log.Debug("report built",
		logger.String("report_id", r.ID),
		logger.String("symbol", r.Symbol),
		logger.String("signal", string(r.Signal)),
		logger.Float64("win_rate", r.WinRate),
		logger.String("weighting", string(outcome.Weighting)),
		logger.Strings("guardrails", r.Guardrails),
		logger.String("repair_strategy", strategy),
	)
	return r, nil
}
