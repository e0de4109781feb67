package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/domain/repository"
	pkgch "SignalDesk/pkg/clickhouse"
	applogger "SignalDesk/pkg/logger"
)

const defaultAuditTable = "report_audit"

// CHAuditStore records one row per build in ClickHouse. The report body is never stored.
type CHAuditStore struct {
	db    *sql.DB
	table string
	ttl   time.Duration
	l     *applogger.Logger
}

// NewCHAuditStore creates the audit store. Rows expire after ttl (0 keeps them forever).
func NewCHAuditStore(ch *pkgch.Client, table string, ttl time.Duration, l *applogger.Logger) *CHAuditStore {
	if table == "" {
		table = defaultAuditTable
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &CHAuditStore{db: ch.DB(), table: table, ttl: ttl, l: l.Named("audit_store")}
}

var _ repository.AuditStore = (*CHAuditStore)(nil)

func (s *CHAuditStore) schema() []string {
	ddl := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            created_at      DateTime64(3, 'UTC'),
            report_id       String,
            symbol          LowCardinality(String),
            segment         LowCardinality(String),
            timeframe       LowCardinality(String),
            signal          LowCardinality(String),
            win_rate        Float64,
            verdict         LowCardinality(String),
            repair_strategy LowCardinality(String),
            guardrails      Array(String),
            backfilled      Array(String),
            outcome         LowCardinality(String)
        )
        ENGINE = MergeTree
        PARTITION BY toYYYYMM(created_at)
        ORDER BY (symbol, created_at)`, s.table)
	if s.ttl > 0 {
		ddl += fmt.Sprintf("\n        TTL toDateTime(created_at) + INTERVAL %d HOUR", int(s.ttl.Hours()))
	}
	return []string{ddl}
}

// Init creates the audit table when missing.
func (s *CHAuditStore) Init(ctx context.Context) error {
	for _, stmt := range s.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init audit schema: %w", err)
		}
	}
	return nil
}

// Record inserts one audit row.
func (s *CHAuditStore) Record(ctx context.Context, rec models.AuditRecord) error {
	q := fmt.Sprintf(`INSERT INTO %s (created_at, report_id, symbol, segment, timeframe, signal, win_rate,
        verdict, repair_strategy, guardrails, backfilled, outcome) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)
	if _, err := s.db.ExecContext(ctx, q, auditArgs(rec)...); err != nil {
		s.l.Error("clickhouse audit insert error",
			applogger.String("report_id", rec.ReportID),
			applogger.String("symbol", rec.Symbol),
			applogger.Error(err),
		)
		return fmt.Errorf("record audit: %w", err)
	}
	return nil
}

// Recent returns the latest rows for symbol, newest first. An empty symbol matches all.
func (s *CHAuditStore) Recent(ctx context.Context, symbol string, limit int) ([]models.AuditRecord, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	q := fmt.Sprintf(`SELECT created_at, report_id, symbol, segment, timeframe, signal, win_rate,
        verdict, repair_strategy, guardrails, backfilled, outcome
        FROM %s WHERE (? = '' OR symbol = ?) ORDER BY created_at DESC LIMIT ?`, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit: %w", err)
	}
	defer rows.Close()

	out := make([]models.AuditRecord, 0, limit)
	for rows.Next() {
		var rec models.AuditRecord
		if err := rows.Scan(&rec.CreatedAt, &rec.ReportID, &rec.Symbol, &rec.Segment, &rec.Timeframe,
			&rec.Signal, &rec.WinRate, &rec.Verdict, &rec.RepairStrategy, &rec.Guardrails,
			&rec.Backfilled, &rec.Outcome); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Health pings ClickHouse.
func (s *CHAuditStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func auditArgs(rec models.AuditRecord) []interface{} {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return []interface{}{
		created.UTC(),
		rec.ReportID,
		rec.Symbol,
		rec.Segment,
		rec.Timeframe,
		rec.Signal,
		rec.WinRate,
		rec.Verdict,
		rec.RepairStrategy,
		nonNil(rec.Guardrails),
		nonNil(rec.Backfilled),
		rec.Outcome,
	}
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
