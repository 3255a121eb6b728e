package monitor

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Repository is the durable monitor store. Writes are single-row and keyed
// by monitor id; reads always reflect prior writes.
type Repository interface {
	Create(ctx context.Context, m *Monitor) error
	Update(ctx context.Context, m *Monitor) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (Monitor, error)
	ListMonitors(ctx context.Context) ([]Monitor, error)

	// SetStatus updates the status. A nil lastError leaves the stored error untouched.
	SetStatus(ctx context.Context, id uuid.UUID, status Status, lastError *string) error
	RecordCheckResult(ctx context.Context, id uuid.UUID, res CheckResult) error
	ResetLastChecked(ctx context.Context, id uuid.UUID) error
	// ReclaimStale moves every monitor left in checking to error.
	ReclaimStale(ctx context.Context, message string) (int64, error)

	Close() error
}

func encodeHeaders(h map[string]string) (string, error) {
	if len(h) == 0 {
		return "", nil
	}
	b, err := json.Marshal(h)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeHeaders treats malformed stored JSON as no custom headers.
func decodeHeaders(raw string, id uuid.UUID, log *zerolog.Logger) map[string]string {
	if raw == "" {
		return nil
	}
	var h map[string]string
	if err := json.Unmarshal([]byte(raw), &h); err != nil {
		log.Warn().
			Err(err).
			Str("monitor_id", id.String()).
			Msg("ignoring malformed stored headers")
		return nil
	}
	return h
}

var (
	_ Repository = (*SQLiteRepository)(nil)
	_ Repository = (*PostgresRepository)(nil)
)
