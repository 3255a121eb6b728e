package monitor

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pagewatch/internals/modules/detector"
	"pagewatch/pkg/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS monitors (
	id                    TEXT PRIMARY KEY,
	url                   TEXT NOT NULL,
	selector              TEXT,
	interval_sec          INTEGER NOT NULL,
	headers               TEXT,
	wait_until            TEXT NOT NULL DEFAULT 'networkidle2',
	wait_delay_ms         INTEGER NOT NULL DEFAULT 10000,
	wait_for_selector     TEXT,
	trigger_type          TEXT NOT NULL DEFAULT 'change',
	trigger_text          TEXT,
	notification_topic    TEXT,
	notification_template TEXT,
	last_hash             TEXT,
	last_checked          INTEGER,
	last_screenshot       TEXT,
	status                TEXT NOT NULL DEFAULT 'active',
	last_error            TEXT,
	created_at            INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_monitors_status ON monitors (status);
`

const selectColumns = `id, url, selector, interval_sec, headers, wait_until, wait_delay_ms,
	wait_for_selector, trigger_type, trigger_text, notification_topic, notification_template,
	last_hash, last_checked, last_screenshot, status, last_error, created_at`

type SQLiteRepository struct {
	db     *sql.DB
	logger *zerolog.Logger
}

// NewSQLiteRepository opens (creating if needed) the database at path and
// migrates the schema. ":memory:" opens a private in-memory database.
func NewSQLiteRepository(ctx context.Context, path string, logger *zerolog.Logger) (*SQLiteRepository, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// sqlite serialises writers anyway; one connection also keeps :memory: alive
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	repo := &SQLiteRepository{db: db, logger: logger}
	if err := repo.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite database: %w", err)
	}

	return repo, nil
}

func (r *SQLiteRepository) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, sqliteSchema)
	return err
}

func (r *SQLiteRepository) Close() error { return r.db.Close() }

func (r *SQLiteRepository) Create(ctx context.Context, m *Monitor) error {
	const op string = "repo.monitor.create"

	headers, err := encodeHeaders(m.Headers)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO monitors (id, url, selector, interval_sec, headers, wait_until, wait_delay_ms,
			wait_for_selector, trigger_type, trigger_text, notification_topic, notification_template,
			last_hash, last_checked, last_screenshot, status, last_error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID.String(), m.URL, utils.ToNullString(m.Selector), m.IntervalSec, utils.ToNullString(headers),
		m.WaitUntil, m.WaitDelayMs, utils.ToNullString(m.WaitForSelector), string(m.TriggerType),
		utils.ToNullString(m.TriggerText), utils.ToNullString(m.NotificationTopic),
		utils.ToNullString(m.NotificationTemplate), utils.ToNullString(m.LastHash),
		utils.ToNullMillis(m.LastChecked), utils.ToNullString(m.LastScreenshot), string(m.Status),
		utils.ToNullString(m.LastError), m.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	return nil
}

func (r *SQLiteRepository) Update(ctx context.Context, m *Monitor) error {
	const op string = "repo.monitor.update"

	headers, err := encodeHeaders(m.Headers)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE monitors SET url = ?, selector = ?, interval_sec = ?, headers = ?, wait_until = ?,
			wait_delay_ms = ?, wait_for_selector = ?, trigger_type = ?, trigger_text = ?,
			notification_topic = ?, notification_template = ?
		WHERE id = ?`,
		m.URL, utils.ToNullString(m.Selector), m.IntervalSec, utils.ToNullString(headers), m.WaitUntil,
		m.WaitDelayMs, utils.ToNullString(m.WaitForSelector), string(m.TriggerType),
		utils.ToNullString(m.TriggerText), utils.ToNullString(m.NotificationTopic),
		utils.ToNullString(m.NotificationTemplate), m.ID.String(),
	)
	return r.expectRow(op, res, err)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const op string = "repo.monitor.delete"

	res, err := r.db.ExecContext(ctx, `DELETE FROM monitors WHERE id = ?`, id.String())
	return r.expectRow(op, res, err)
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id uuid.UUID) (Monitor, error) {
	const op string = "repo.monitor.get"

	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM monitors WHERE id = ?`, id.String())
	m, err := r.scan(row)
	if err != nil {
		return Monitor{}, utils.WrapRepoError(op, err, true, r.logger)
	}
	return m, nil
}

func (r *SQLiteRepository) ListMonitors(ctx context.Context) ([]Monitor, error) {
	const op string = "repo.monitor.list"

	rows, err := r.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM monitors ORDER BY created_at, id`)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	var monitors []Monitor
	for rows.Next() {
		m, err := r.scan(rows)
		if err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		monitors = append(monitors, m)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	return monitors, nil
}

func (r *SQLiteRepository) SetStatus(ctx context.Context, id uuid.UUID, status Status, lastError *string) error {
	const op string = "repo.monitor.set_status"

	var (
		res sql.Result
		err error
	)
	if lastError == nil {
		res, err = r.db.ExecContext(ctx, `UPDATE monitors SET status = ? WHERE id = ?`, string(status), id.String())
	} else {
		res, err = r.db.ExecContext(ctx, `UPDATE monitors SET status = ?, last_error = ? WHERE id = ?`,
			string(status), utils.ToNullString(*lastError), id.String())
	}
	return r.expectRow(op, res, err)
}

func (r *SQLiteRepository) RecordCheckResult(ctx context.Context, id uuid.UUID, cr CheckResult) error {
	const op string = "repo.monitor.record_check_result"

	var (
		res sql.Result
		err error
	)
	if cr.Artifact != "" {
		res, err = r.db.ExecContext(ctx, `
			UPDATE monitors SET last_hash = ?, last_checked = ?, last_screenshot = ?, status = ?, last_error = ?
			WHERE id = ?`,
			utils.ToNullString(cr.Fingerprint), utils.ToNullMillis(cr.CheckedAt), cr.Artifact,
			string(cr.Status), utils.ToNullString(cr.Error), id.String())
	} else {
		res, err = r.db.ExecContext(ctx, `
			UPDATE monitors SET last_hash = ?, last_checked = ?, status = ?, last_error = ?
			WHERE id = ?`,
			utils.ToNullString(cr.Fingerprint), utils.ToNullMillis(cr.CheckedAt),
			string(cr.Status), utils.ToNullString(cr.Error), id.String())
	}
	return r.expectRow(op, res, err)
}

func (r *SQLiteRepository) ResetLastChecked(ctx context.Context, id uuid.UUID) error {
	const op string = "repo.monitor.reset_last_checked"

	res, err := r.db.ExecContext(ctx, `UPDATE monitors SET last_checked = NULL WHERE id = ?`, id.String())
	return r.expectRow(op, res, err)
}

func (r *SQLiteRepository) ReclaimStale(ctx context.Context, message string) (int64, error) {
	const op string = "repo.monitor.reclaim_stale"

	res, err := r.db.ExecContext(ctx, `UPDATE monitors SET status = ?, last_error = ? WHERE status = ?`,
		string(StatusError), message, string(StatusChecking))
	if err != nil {
		return 0, utils.WrapRepoError(op, err, false, r.logger)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, utils.WrapRepoError(op, err, false, r.logger)
	}
	return n, nil
}

func (r *SQLiteRepository) expectRow(op string, res sql.Result, err error) error {
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	if n == 0 {
		return utils.NotFound(op)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLiteRepository) scan(row rowScanner) (Monitor, error) {
	var (
		m           Monitor
		id          string
		selector    sql.NullString
		headers     sql.NullString
		waitFor     sql.NullString
		triggerType string
		triggerText sql.NullString
		topic       sql.NullString
		template    sql.NullString
		lastHash    sql.NullString
		lastChecked sql.NullInt64
		screenshot  sql.NullString
		status      string
		lastError   sql.NullString
		createdAt   int64
	)

	err := row.Scan(&id, &m.URL, &selector, &m.IntervalSec, &headers, &m.WaitUntil, &m.WaitDelayMs,
		&waitFor, &triggerType, &triggerText, &topic, &template,
		&lastHash, &lastChecked, &screenshot, &status, &lastError, &createdAt)
	if err != nil {
		return Monitor{}, err
	}

	m.ID, err = uuid.Parse(id)
	if err != nil {
		return Monitor{}, fmt.Errorf("parse monitor id %q: %w", id, err)
	}
	m.Selector = utils.FromNullString(selector)
	m.Headers = decodeHeaders(utils.FromNullString(headers), m.ID, r.logger)
	m.WaitForSelector = utils.FromNullString(waitFor)
	m.TriggerType = detector.Kind(triggerType)
	m.TriggerText = utils.FromNullString(triggerText)
	m.NotificationTopic = utils.FromNullString(topic)
	m.NotificationTemplate = utils.FromNullString(template)
	m.LastHash = utils.FromNullString(lastHash)
	m.LastChecked = utils.FromNullMillis(lastChecked)
	m.LastScreenshot = utils.FromNullString(screenshot)
	m.Status = Status(status)
	m.LastError = utils.FromNullString(lastError)
	m.CreatedAt = time.UnixMilli(createdAt)

	return m, nil
}
