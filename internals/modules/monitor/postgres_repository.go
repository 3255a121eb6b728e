package monitor

import (
	"context"

	"pagewatch/internals/modules/detector"
	"pagewatch/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS monitors (
	id                    UUID PRIMARY KEY,
	url                   TEXT NOT NULL,
	selector              TEXT,
	interval_sec          INTEGER NOT NULL CHECK (interval_sec > 0),
	headers               TEXT,
	wait_until            TEXT NOT NULL DEFAULT 'networkidle2',
	wait_delay_ms         INTEGER NOT NULL DEFAULT 10000,
	wait_for_selector     TEXT,
	trigger_type          TEXT NOT NULL DEFAULT 'change',
	trigger_text          TEXT,
	notification_topic    TEXT,
	notification_template TEXT,
	last_hash             TEXT,
	last_checked          TIMESTAMPTZ,
	last_screenshot       TEXT,
	status                TEXT NOT NULL DEFAULT 'active',
	last_error            TEXT,
	created_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_monitors_status ON monitors (status);
`

type PostgresRepository struct {
	pool   *pgxpool.Pool
	logger *zerolog.Logger
}

func NewPostgresRepository(pool *pgxpool.Pool, logger *zerolog.Logger) *PostgresRepository {
	return &PostgresRepository{
		pool:   pool,
		logger: logger,
	}
}

// Migrate creates the monitors table when missing.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	const op string = "repo.monitor.migrate"

	if _, err := r.pool.Exec(ctx, postgresSchema); err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	return nil
}

// Close is a no-op, the pool is owned by the container.
func (r *PostgresRepository) Close() error { return nil }

func (r *PostgresRepository) Create(ctx context.Context, m *Monitor) error {
	const op string = "repo.monitor.create"

	headers, err := encodeHeaders(m.Headers)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO monitors (id, url, selector, interval_sec, headers, wait_until, wait_delay_ms,
			wait_for_selector, trigger_type, trigger_text, notification_topic, notification_template,
			last_hash, last_checked, last_screenshot, status, last_error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		utils.ToPgUUID(m.ID), m.URL, utils.ToPgText(m.Selector), m.IntervalSec, utils.ToPgText(headers),
		m.WaitUntil, m.WaitDelayMs, utils.ToPgText(m.WaitForSelector), string(m.TriggerType),
		utils.ToPgText(m.TriggerText), utils.ToPgText(m.NotificationTopic),
		utils.ToPgText(m.NotificationTemplate), utils.ToPgText(m.LastHash),
		utils.ToPgTimestamptz(m.LastChecked), utils.ToPgText(m.LastScreenshot), string(m.Status),
		utils.ToPgText(m.LastError), utils.ToPgTimestamptz(m.CreatedAt),
	)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, m *Monitor) error {
	const op string = "repo.monitor.update"

	headers, err := encodeHeaders(m.Headers)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE monitors SET url = $2, selector = $3, interval_sec = $4, headers = $5, wait_until = $6,
			wait_delay_ms = $7, wait_for_selector = $8, trigger_type = $9, trigger_text = $10,
			notification_topic = $11, notification_template = $12
		WHERE id = $1`,
		utils.ToPgUUID(m.ID), m.URL, utils.ToPgText(m.Selector), m.IntervalSec, utils.ToPgText(headers),
		m.WaitUntil, m.WaitDelayMs, utils.ToPgText(m.WaitForSelector), string(m.TriggerType),
		utils.ToPgText(m.TriggerText), utils.ToPgText(m.NotificationTopic),
		utils.ToPgText(m.NotificationTemplate),
	)
	return r.expectRow(op, tag, err)
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const op string = "repo.monitor.delete"

	tag, err := r.pool.Exec(ctx, `DELETE FROM monitors WHERE id = $1`, utils.ToPgUUID(id))
	return r.expectRow(op, tag, err)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (Monitor, error) {
	const op string = "repo.monitor.get"

	row := r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM monitors WHERE id = $1`, utils.ToPgUUID(id))
	m, err := r.scan(row)
	if err != nil {
		return Monitor{}, utils.WrapRepoError(op, err, true, r.logger)
	}
	return m, nil
}

func (r *PostgresRepository) ListMonitors(ctx context.Context) ([]Monitor, error) {
	const op string = "repo.monitor.list"

	rows, err := r.pool.Query(ctx, `SELECT `+selectColumns+` FROM monitors ORDER BY created_at, id`)
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

func (r *PostgresRepository) SetStatus(ctx context.Context, id uuid.UUID, status Status, lastError *string) error {
	const op string = "repo.monitor.set_status"

	var (
		tag pgconn.CommandTag
		err error
	)
	if lastError == nil {
		tag, err = r.pool.Exec(ctx, `UPDATE monitors SET status = $2 WHERE id = $1`,
			utils.ToPgUUID(id), string(status))
	} else {
		tag, err = r.pool.Exec(ctx, `UPDATE monitors SET status = $2, last_error = $3 WHERE id = $1`,
			utils.ToPgUUID(id), string(status), utils.ToPgText(*lastError))
	}
	return r.expectRow(op, tag, err)
}

func (r *PostgresRepository) RecordCheckResult(ctx context.Context, id uuid.UUID, cr CheckResult) error {
	const op string = "repo.monitor.record_check_result"

	// COALESCE keeps the stored screenshot when this check produced none
	tag, err := r.pool.Exec(ctx, `
		UPDATE monitors SET last_hash = $2, last_checked = $3,
			last_screenshot = COALESCE($4, last_screenshot), status = $5, last_error = $6
		WHERE id = $1`,
		utils.ToPgUUID(id), utils.ToPgText(cr.Fingerprint), utils.ToPgTimestamptz(cr.CheckedAt),
		utils.ToPgText(cr.Artifact), string(cr.Status), utils.ToPgText(cr.Error),
	)
	return r.expectRow(op, tag, err)
}

func (r *PostgresRepository) ResetLastChecked(ctx context.Context, id uuid.UUID) error {
	const op string = "repo.monitor.reset_last_checked"

	tag, err := r.pool.Exec(ctx, `UPDATE monitors SET last_checked = NULL WHERE id = $1`, utils.ToPgUUID(id))
	return r.expectRow(op, tag, err)
}

func (r *PostgresRepository) ReclaimStale(ctx context.Context, message string) (int64, error) {
	const op string = "repo.monitor.reclaim_stale"

	tag, err := r.pool.Exec(ctx, `UPDATE monitors SET status = $1, last_error = $2 WHERE status = $3`,
		string(StatusError), message, string(StatusChecking))
	if err != nil {
		return 0, utils.WrapRepoError(op, err, false, r.logger)
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresRepository) expectRow(op string, tag pgconn.CommandTag, err error) error {
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	if tag.RowsAffected() == 0 {
		return utils.NotFound(op)
	}
	return nil
}

func (r *PostgresRepository) scan(row pgx.Row) (Monitor, error) {
	var (
		m           Monitor
		id          pgtype.UUID
		selector    pgtype.Text
		headers     pgtype.Text
		waitFor     pgtype.Text
		triggerType string
		triggerText pgtype.Text
		topic       pgtype.Text
		template    pgtype.Text
		lastHash    pgtype.Text
		lastChecked pgtype.Timestamptz
		screenshot  pgtype.Text
		status      string
		lastError   pgtype.Text
		createdAt   pgtype.Timestamptz
	)

	err := row.Scan(&id, &m.URL, &selector, &m.IntervalSec, &headers, &m.WaitUntil, &m.WaitDelayMs,
		&waitFor, &triggerType, &triggerText, &topic, &template,
		&lastHash, &lastChecked, &screenshot, &status, &lastError, &createdAt)
	if err != nil {
		return Monitor{}, err
	}

	m.ID = utils.FromPgUUID(id)
	m.Selector = utils.FromPgText(selector)
	m.Headers = decodeHeaders(utils.FromPgText(headers), m.ID, r.logger)
	m.WaitForSelector = utils.FromPgText(waitFor)
	m.TriggerType = detector.Kind(triggerType)
	m.TriggerText = utils.FromPgText(triggerText)
	m.NotificationTopic = utils.FromPgText(topic)
	m.NotificationTemplate = utils.FromPgText(template)
	m.LastHash = utils.FromPgText(lastHash)
	m.LastChecked = utils.FromPgTimestamptz(lastChecked)
	m.LastScreenshot = utils.FromPgText(screenshot)
	m.Status = Status(status)
	m.LastError = utils.FromPgText(lastError)
	m.CreatedAt = utils.FromPgTimestamptz(createdAt)

	return m, nil
}
