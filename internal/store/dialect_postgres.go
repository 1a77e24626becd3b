package store

import (
	"fmt"
	"strings"
)

// PostgresDialect implements Dialect for PostgreSQL via pgx/stdlib.
type PostgresDialect struct{}

func (d *PostgresDialect) Name() string       { return "postgres" }
func (d *PostgresDialect) DriverName() string { return "pgx" }

func (d *PostgresDialect) NewParamBuilder() ParamBuilder {
	return &pgParamBuilder{}
}

func (d *PostgresDialect) NowExpr() string { return "NOW()" }

func (d *PostgresDialect) SystemTablesSQL() string {
	return pgSystemTablesSQL
}

func (d *PostgresDialect) MapError(err error) error {
	if err == nil {
		return nil
	}
	// With pgx/stdlib, the underlying error message includes the PG code
	errStr := err.Error()
	if strings.Contains(errStr, "23505") || strings.Contains(errStr, "unique constraint") || strings.Contains(errStr, "duplicate key") {
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	}
	return err
}

// --- PostgreSQL DDL ---

const pgSystemTablesSQL = `
CREATE TABLE IF NOT EXISTS _thresholds (
    id               TEXT PRIMARY KEY,
    name             TEXT NOT NULL,
    metric           TEXT NOT NULL,
    operator         TEXT NOT NULL,
    value            DOUBLE PRECISION NOT NULL,
    unit             TEXT NOT NULL DEFAULT '',
    enabled          BOOLEAN NOT NULL DEFAULT true,
    notify_email     BOOLEAN NOT NULL DEFAULT false,
    notify_dashboard BOOLEAN NOT NULL DEFAULT true,
    condition        TEXT NOT NULL DEFAULT '',
    position         BIGINT NOT NULL,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    last_triggered   TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS _alert_events (
    id              TEXT PRIMARY KEY,
    threshold_id    TEXT NOT NULL,
    threshold_name  TEXT NOT NULL,
    metric          TEXT NOT NULL,
    current_value   DOUBLE PRECISION NOT NULL,
    threshold_value DOUBLE PRECISION NOT NULL,
    message         TEXT NOT NULL DEFAULT '',
    severity        TEXT NOT NULL DEFAULT 'info',
    triggered_at    TIMESTAMPTZ NOT NULL,
    acknowledged    BOOLEAN NOT NULL DEFAULT false
);
CREATE INDEX IF NOT EXISTS idx_alert_events_triggered ON _alert_events (triggered_at DESC);

CREATE TABLE IF NOT EXISTS _webhook_configs (
    id             TEXT PRIMARY KEY,
    name           TEXT NOT NULL DEFAULT '',
    url            TEXT NOT NULL,
    secret         TEXT NOT NULL DEFAULT '',
    events         JSONB NOT NULL DEFAULT '["*"]',
    is_active      BOOLEAN NOT NULL DEFAULT true,
    retry_count    INT NOT NULL DEFAULT 3,
    retry_delay    INT NOT NULL DEFAULT 5,
    headers        JSONB NOT NULL DEFAULT '{}',
    format         TEXT NOT NULL DEFAULT '',
    position       BIGINT NOT NULL,
    last_triggered TIMESTAMPTZ,
    last_status    TEXT NOT NULL DEFAULT '',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS _webhook_logs (
    id               TEXT PRIMARY KEY,
    channel_id       TEXT NOT NULL,
    channel_name     TEXT NOT NULL DEFAULT '',
    event            TEXT NOT NULL,
    payload          JSONB NOT NULL DEFAULT '{}',
    success          BOOLEAN NOT NULL DEFAULT false,
    status_code      INT,
    response_time_ms BIGINT NOT NULL DEFAULT 0,
    error            TEXT NOT NULL DEFAULT '',
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_webhook_logs_created ON _webhook_logs (created_at DESC);
`

// Compile-time check
var _ Dialect = (*PostgresDialect)(nil)
