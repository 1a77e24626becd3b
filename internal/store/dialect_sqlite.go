package store

import (
	"fmt"
	"strings"
)

// SQLiteDialect implements Dialect for SQLite via modernc.org/sqlite.
type SQLiteDialect struct{}

func (d *SQLiteDialect) Name() string       { return "sqlite" }
func (d *SQLiteDialect) DriverName() string { return "sqlite" }

func (d *SQLiteDialect) NewParamBuilder() ParamBuilder {
	return &sqliteParamBuilder{}
}

func (d *SQLiteDialect) NowExpr() string { return "datetime('now')" }

func (d *SQLiteDialect) SystemTablesSQL() string {
	return sqliteSystemTablesSQL
}

func (d *SQLiteDialect) MapError(err error) error {
	if err == nil {
		return nil
	}
	errStr := err.Error()
	if strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "constraint violation") {
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	}
	return err
}

// --- SQLite DDL ---
//
// Timestamps are stored as RFC3339 text; booleans as 0/1 integers. The
// store's row normalization converts both back on read.

const sqliteSystemTablesSQL = `
CREATE TABLE IF NOT EXISTS _thresholds (
    id               TEXT PRIMARY KEY,
    name             TEXT NOT NULL,
    metric           TEXT NOT NULL,
    operator         TEXT NOT NULL,
    value            REAL NOT NULL,
    unit             TEXT NOT NULL DEFAULT '',
    enabled          INTEGER NOT NULL DEFAULT 1,
    notify_email     INTEGER NOT NULL DEFAULT 0,
    notify_dashboard INTEGER NOT NULL DEFAULT 1,
    condition        TEXT NOT NULL DEFAULT '',
    position         INTEGER NOT NULL,
    created_at       TEXT NOT NULL,
    last_triggered   TEXT
);

CREATE TABLE IF NOT EXISTS _alert_events (
    id              TEXT PRIMARY KEY,
    threshold_id    TEXT NOT NULL,
    threshold_name  TEXT NOT NULL,
    metric          TEXT NOT NULL,
    current_value   REAL NOT NULL,
    threshold_value REAL NOT NULL,
    message         TEXT NOT NULL DEFAULT '',
    severity        TEXT NOT NULL DEFAULT 'info',
    triggered_at    TEXT NOT NULL,
    acknowledged    INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_alert_events_triggered ON _alert_events (triggered_at DESC);

CREATE TABLE IF NOT EXISTS _webhook_configs (
    id             TEXT PRIMARY KEY,
    name           TEXT NOT NULL DEFAULT '',
    url            TEXT NOT NULL,
    secret         TEXT NOT NULL DEFAULT '',
    events         TEXT NOT NULL DEFAULT '["*"]',
    is_active      INTEGER NOT NULL DEFAULT 1,
    retry_count    INTEGER NOT NULL DEFAULT 3,
    retry_delay    INTEGER NOT NULL DEFAULT 5,
    headers        TEXT NOT NULL DEFAULT '{}',
    format         TEXT NOT NULL DEFAULT '',
    position       INTEGER NOT NULL,
    last_triggered TEXT,
    last_status    TEXT NOT NULL DEFAULT '',
    created_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS _webhook_logs (
    id               TEXT PRIMARY KEY,
    channel_id       TEXT NOT NULL,
    channel_name     TEXT NOT NULL DEFAULT '',
    event            TEXT NOT NULL,
    payload          TEXT NOT NULL DEFAULT '{}',
    success          INTEGER NOT NULL DEFAULT 0,
    status_code      INTEGER,
    response_time_ms INTEGER NOT NULL DEFAULT 0,
    error            TEXT NOT NULL DEFAULT '',
    created_at       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_webhook_logs_created ON _webhook_logs (created_at DESC);
`

// Compile-time check
var _ Dialect = (*SQLiteDialect)(nil)
