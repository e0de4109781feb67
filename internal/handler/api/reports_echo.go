package api

import (
	"context"
	"errors"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/services/parse"
	"SignalDesk/internal/services/symbol"
	"SignalDesk/internal/usecase"
	xhttp "SignalDesk/pkg/http"
	xlogger "SignalDesk/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ReportAPI is what the HTTP layer needs from the report service.
type ReportAPI interface {
	BuildReport(ctx context.Context, req models.BuildReportRequest) (*models.AnalysisReport, error)
	GenerateReport(ctx context.Context, req models.GenerateReportRequest) (*models.AnalysisReport, error)
	ResolveSymbol(ctx context.Context, query string) (models.SymbolResolution, error)
	RecentAudit(ctx context.Context, symbol string, limit int) ([]models.AuditRecord, error)
}

// ReportsEchoHandler serves the report endpoints.
type ReportsEchoHandler struct {
	logger  *xlogger.Logger
	reports ReportAPI
	limit   echo.MiddlewareFunc
}

// NewReportsEchoHandler creates the handler. limit, if non-nil, guards the endpoints that
// reach the inference service.
func NewReportsEchoHandler(logger *xlogger.Logger, reports ReportAPI, limit echo.MiddlewareFunc) *ReportsEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &ReportsEchoHandler{logger: logger.Named("api"), reports: reports, limit: limit}
}

func (h *ReportsEchoHandler) RegisterRoutes(e *echo.Echo) {
	var guarded []echo.MiddlewareFunc
	if h.limit != nil {
		guarded = append(guarded, h.limit)
	}

	g := e.Group("/api/v1")
	g.POST("/reports", h.Build)
	g.POST("/reports/generate", h.Generate, guarded...)
	g.GET("/symbols/resolve", h.Resolve, guarded...)
	g.GET("/audit", h.Audit)
}

// Build turns caller-supplied inference text into a report.
func (h *ReportsEchoHandler) Build(c echo.Context) error {
	req := &models.BuildReportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	report, err := h.reports.BuildReport(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, "build report", err)
	}
	return xhttp.SuccessResponse(c, report)
}

// Generate runs a full analysis for a symbol, optionally with a chart image.
func (h *ReportsEchoHandler) Generate(c echo.Context) error {
	req := &models.GenerateReportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	report, err := h.reports.GenerateReport(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, "generate report", err)
	}
	return xhttp.SuccessResponse(c, report)
}

func (h *ReportsEchoHandler) Resolve(c echo.Context) error {
	req := &models.ResolveSymbolRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.reports.ResolveSymbol(c.Request().Context(), req.Query)
	if err != nil {
		return h.fail(c, "resolve symbol", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, res)
}

func (h *ReportsEchoHandler) Audit(c echo.Context) error {
	req := &models.AuditQueryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows, err := h.reports.RecentAudit(c.Request().Context(), req.Symbol, req.Limit)
	if err != nil {
		return h.fail(c, "audit query", err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *ReportsEchoHandler) fail(c echo.Context, op string, err error) error {
	appErr := toAppError(err)
	fields := []xlogger.Field{
		xlogger.String("op", op),
		xlogger.String("code", appErr.Code),
		xlogger.Error(err),
	}
	if appErr.Status >= 500 {
		h.logger.Error("request failed", fields...)
	} else {
		h.logger.Warn("request rejected", fields...)
	}
	return xhttp.AppErrorResponse(c, appErr)
}

// toAppError maps service errors to transport errors. Both analysis failures collapse into
// one generic message.
func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case parse.IsAnalysisFailure(err):
		return xhttp.AnalysisFailedError(err)
	case errors.Is(err, usecase.ErrInvalidImage):
		return xhttp.BadRequestError("image must be base64 encoded").WithError(err)
	case errors.Is(err, symbol.ErrEmptyQuery):
		return xhttp.BadRequestError("query is empty").WithError(err)
	case errors.Is(err, usecase.ErrInferenceUnavailable):
		return xhttp.UpstreamError("The analysis service is unavailable. Please retry.").WithError(err)
	default:
		return xhttp.InternalError("Something went wrong").WithError(err)
	}
}
