package di

import (
	"context"
	"fmt"
	"time"

	"SignalDesk/internal/domain/repository"
	"SignalDesk/internal/domain/service"
	"SignalDesk/internal/handler/api"
	"SignalDesk/internal/handler/ws"
	internalrepo "SignalDesk/internal/repository"
	"SignalDesk/internal/service/diagnostics"
	"SignalDesk/internal/service/finnhub"
	"SignalDesk/internal/service/ratelimit"
	"SignalDesk/internal/services/inference"
	"SignalDesk/internal/services/symbol"
	"SignalDesk/internal/usecase"
	"SignalDesk/pkg/cache"
	pkgch "SignalDesk/pkg/clickhouse"
	"SignalDesk/pkg/config"
	xhttp "SignalDesk/pkg/http"
	pkgkafka "SignalDesk/pkg/kafka"
	applogger "SignalDesk/pkg/logger"
	"SignalDesk/pkg/metrics"
	"SignalDesk/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache creates the symbol cache: memory in front of Redis when Redis is enabled,
// memory only otherwise.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, func(), error) {
	if !cfg.Redis.Enabled {
		mc := cache.NewMemoryCache(cache.WithMemoryMaxSize(10000))
		return mc, func() { _ = mc.Close() }, nil
	}

	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	lc := cache.NewLayeredCache(rc, cache.WithLayeredMemoryTTL(cfg.Redis.MemoryTTL))
	l.Info("redis cache connected", applogger.String("addr", cfg.Redis.Addr))
	return lc, func() { _ = lc.Close() }, nil
}

// ProvideInference creates the Gemini client, or nil when no API key is configured. Without it
// only /reports (caller-supplied text) and heuristic symbol resolution work.
func ProvideInference(cfg *config.Config, l *applogger.Logger) (service.Inference, error) {
	if cfg.Inference.APIKey == "" {
		l.Warn("inference disabled: no api key configured")
		return nil, nil
	}
	policy := inference.DefaultRetryPolicy()
	policy.MaxRetries = cfg.Inference.MaxRetries

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	g, err := inference.NewGemini(ctx, inference.Config{
		APIKey:      cfg.Inference.APIKey,
		Model:       cfg.Inference.Model,
		Timeout:     cfg.Inference.Timeout,
		RPS:         cfg.Inference.RPS,
		Temperature: cfg.Inference.Temperature,
		Retry:       policy,
	}, l)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// ProvideResolver creates the cached symbol resolver.
func ProvideResolver(inf service.Inference, c cache.Service, cfg *config.Config, l *applogger.Logger) service.SymbolResolver {
	return symbol.NewResolver(inf,
		symbol.WithCache(c, cfg.Symbols.CacheTTL, cfg.Symbols.HeuristicTTL),
		symbol.WithTimeout(cfg.Symbols.Timeout),
		symbol.WithLogger(l.Named("symbols")),
	)
}

// ProvideQuotes creates the Finnhub quote client, or nil without an API key.
func ProvideQuotes(cfg *config.Config, l *applogger.Logger) repository.QuoteSource {
	if cfg.Quotes.APIKey == "" {
		l.Warn("anchor refresh disabled: no quotes api key configured")
		return nil
	}
	return finnhub.New(cfg.Quotes.APIKey, cfg.Quotes.BaseURL, cfg.Quotes.Deadline, l)
}

// ProvideClickHouseClient connects to ClickHouse, or returns nil when it is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, false),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideAuditStore creates the audit store and its schema. Without ClickHouse reports are not
// audited.
func ProvideAuditStore(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) (repository.AuditStore, error) {
	if ch == nil {
		return nil, nil
	}
	store := internalrepo.NewCHAuditStore(ch, cfg.ClickHouse.AuditTable, cfg.ClickHouse.AuditTTL, l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("audit schema: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideReportPublisher publishes finished reports to Kafka, or drops them when Kafka is off.
func ProvideReportPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.ReportPublisher {
	if producer == nil {
		return internalrepo.NopPublisher{}
	}
	return internalrepo.NewKafkaReportPublisher(producer, cfg.Kafka.ReportsTopic)
}

// ProvideDiagnostics starts the failure collector. Without Kafka batches go to the log.
func ProvideDiagnostics(producer *pkgkafka.Producer, cfg *config.Config, l *applogger.Logger) (*diagnostics.Collector, func()) {
	dcfg := diagnostics.Config{
		FlushInterval:  cfg.Diagnostics.FlushInterval,
		CountThreshold: cfg.Diagnostics.CountThreshold,
		Topic:          cfg.Kafka.DiagnosticsTopic,
		Logger:         l,
	}
	if producer != nil {
		dcfg.Publisher = producer
	}
	c := diagnostics.New(dcfg)
	return c, c.Close
}

// ProvideHub creates the websocket hub.
func ProvideHub(cfg *config.Config, l *applogger.Logger) *ws.Hub {
	return ws.NewHub(l, cfg.Server.CORSOrigins)
}

// ProvidePipeline creates the report pipeline.
func ProvidePipeline(m repository.Metrics, l *applogger.Logger) *usecase.ReportPipeline {
	return usecase.NewReportPipeline(m, l)
}

// ProvideReportService assembles the report service.
func ProvideReportService(
	pipeline *usecase.ReportPipeline,
	inf service.Inference,
	resolver service.SymbolResolver,
	quotes repository.QuoteSource,
	audit repository.AuditStore,
	publisher repository.ReportPublisher,
	hub *ws.Hub,
	failures *diagnostics.Collector,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.ReportService {
	return usecase.NewReportService(usecase.ReportServiceDeps{
		Pipeline:    pipeline,
		Inference:   inf,
		Resolver:    resolver,
		Quotes:      quotes,
		Audit:       audit,
		Publisher:   publisher,
		Broadcaster: hub,
		Failures:    failures,
		Metrics:     m,
		Logger:      l,
	})
}

// ProvideRateLimiter creates the per-client limiter for inference-backed endpoints.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst)
}

// ProvideReportsHandler creates the REST handler.
func ProvideReportsHandler(l *applogger.Logger, svc *usecase.ReportService, limiter *ratelimit.Limiter) *api.ReportsEchoHandler {
	return api.NewReportsEchoHandler(l, svc, limiter.Middleware())
}

// ProvideHTTPServer creates the echo server with every route.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, reports *api.ReportsEchoHandler, hub *ws.Hub) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithBodyLimit(cfg.Server.BodyLimit),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(l),
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		opts = append(opts, xhttp.WithCORSOrigins(cfg.Server.CORSOrigins...))
	}
	return xhttp.NewServer([]xhttp.Handler{reports, hub}, opts...)
}

// ProvideRequestsHandler creates the Kafka intake handler.
func ProvideRequestsHandler(cfg *config.Config, svc *usecase.ReportService, l *applogger.Logger) *usecase.ReportRequestsHandler {
	return usecase.NewReportRequestsHandler(cfg.Kafka.RequestsTopic, svc, l)
}

// ProvideKafkaConsumer creates the intake consumer, or nil when Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger, h *usecase.ReportRequestsHandler) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.RequestIDHook())
	consumer.RegisterHandler(h)
	return consumer, nil
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	hub *ws.Hub,
	limiter *ratelimit.Limiter,
) *server.App {
	return server.New(cfg, l, httpServer, consumer, hub, limiter)
}
