package monitor

import (
	"context"
	"testing"
	"time"

	"pagewatch/internals/modules/detector"
	"pagewatch/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(context.Background(), ":memory:", nopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func sampleMonitor() Monitor {
	return Monitor{
		ID:                uuid.New(),
		URL:               "https://example.com/shop",
		Selector:          "#price",
		IntervalSec:       30,
		Headers:           map[string]string{"Cookie": "a=b"},
		WaitUntil:         WaitNetworkIdle2,
		WaitDelayMs:       DefaultWaitDelayMs,
		TriggerType:       detector.KindContains,
		TriggerText:       "SALE",
		NotificationTopic: "deals",
		Status:            StatusActive,
		CreatedAt:         time.UnixMilli(1_700_000_000_000),
	}
}

func TestSQLiteRepositoryCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	m := sampleMonitor()

	require.NoError(t, repo.Create(ctx, &m))

	got, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.URL, got.URL)
	assert.Equal(t, m.Selector, got.Selector)
	assert.Equal(t, m.Headers, got.Headers)
	assert.Equal(t, detector.KindContains, got.TriggerType)
	assert.Equal(t, "SALE", got.TriggerText)
	assert.Equal(t, StatusActive, got.Status)
	assert.Empty(t, got.LastHash)
	assert.True(t, got.LastChecked.IsZero())
	assert.Equal(t, m.CreatedAt.UnixMilli(), got.CreatedAt.UnixMilli())
}

func TestSQLiteRepositoryGetMissing(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.NotFound))
}

func TestSQLiteRepositoryListReflectsDeletes(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	a, b := sampleMonitor(), sampleMonitor()
	b.CreatedAt = a.CreatedAt.Add(time.Second)
	require.NoError(t, repo.Create(ctx, &a))
	require.NoError(t, repo.Create(ctx, &b))

	list, err := repo.ListMonitors(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)

	require.NoError(t, repo.Delete(ctx, a.ID))
	list, err = repo.ListMonitors(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)

	err = repo.Delete(ctx, a.ID)
	assert.True(t, apperror.IsKind(err, apperror.NotFound))
}

func TestSQLiteRepositoryRecordCheckResultKeepsArtifactWhenAbsent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	m := sampleMonitor()
	require.NoError(t, repo.Create(ctx, &m))

	first := time.UnixMilli(1_700_000_100_000)
	require.NoError(t, repo.RecordCheckResult(ctx, m.ID, CheckResult{
		Fingerprint: "h1",
		CheckedAt:   first,
		Artifact:    "monitor-1.png",
		Status:      StatusActive,
	}))

	second := first.Add(time.Minute)
	require.NoError(t, repo.RecordCheckResult(ctx, m.ID, CheckResult{
		Fingerprint: "h1",
		CheckedAt:   second,
		Status:      StatusError,
		Error:       "failed to load page",
	}))

	got, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "h1", got.LastHash)
	assert.Equal(t, "monitor-1.png", got.LastScreenshot)
	assert.Equal(t, StatusError, got.Status)
	assert.Equal(t, "failed to load page", got.LastError)
	assert.Equal(t, second.UnixMilli(), got.LastChecked.UnixMilli())

	// success clears the error
	require.NoError(t, repo.RecordCheckResult(ctx, m.ID, CheckResult{
		Fingerprint: "h2",
		CheckedAt:   second.Add(time.Minute),
		Status:      StatusActive,
	}))
	got, err = repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "h2", got.LastHash)
	assert.Empty(t, got.LastError)
}

func TestSQLiteRepositorySetStatus(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	m := sampleMonitor()
	m.LastError = "old failure"
	require.NoError(t, repo.Create(ctx, &m))

	require.NoError(t, repo.SetStatus(ctx, m.ID, StatusChecking, nil))
	got, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusChecking, got.Status)
	assert.Equal(t, "old failure", got.LastError)

	msg := "new failure"
	require.NoError(t, repo.SetStatus(ctx, m.ID, StatusError, &msg))
	got, err = repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "new failure", got.LastError)

	err = repo.SetStatus(ctx, uuid.New(), StatusActive, nil)
	assert.True(t, apperror.IsKind(err, apperror.NotFound))
}

func TestSQLiteRepositoryReclaimStale(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	stuck, fine := sampleMonitor(), sampleMonitor()
	stuck.Status = StatusChecking
	require.NoError(t, repo.Create(ctx, &stuck))
	require.NoError(t, repo.Create(ctx, &fine))

	n, err := repo.ReclaimStale(ctx, InterruptedMessage)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.GetByID(ctx, stuck.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusError, got.Status)
	assert.Equal(t, InterruptedMessage, got.LastError)

	got, err = repo.GetByID(ctx, fine.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, got.Status)
}

func TestSQLiteRepositoryResetLastChecked(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	m := sampleMonitor()
	m.LastChecked = time.Now()
	require.NoError(t, repo.Create(ctx, &m))

	require.NoError(t, repo.ResetLastChecked(ctx, m.ID))

	got, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, got.LastChecked.IsZero())
	assert.True(t, got.IsDue(time.Now()))
}

func TestSQLiteRepositoryMalformedHeadersAreIgnored(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	m := sampleMonitor()
	require.NoError(t, repo.Create(ctx, &m))

	_, err := repo.db.ExecContext(ctx, `UPDATE monitors SET headers = '{not json' WHERE id = ?`, m.ID.String())
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Headers)
}
