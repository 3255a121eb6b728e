package result

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"pagewatch/config"
	"pagewatch/internals/modules/executor"
	"pagewatch/pkg/rabbitmq"
	"pagewatch/pkg/redisstore"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatusStore struct {
	mu        sync.Mutex
	snapshots map[uuid.UUID]redisstore.Snapshot
	failures  map[uuid.UUID]int64
	err       error
}

func newFakeStatusStore() *fakeStatusStore {
	return &fakeStatusStore{
		snapshots: make(map[uuid.UUID]redisstore.Snapshot),
		failures:  make(map[uuid.UUID]int64),
	}
}

func (s *fakeStatusStore) StoreStatus(_ context.Context, id uuid.UUID, snap redisstore.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.snapshots[id] = snap
	return nil
}

func (s *fakeStatusStore) IncrementFailures(_ context.Context, id uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	s.failures[id]++
	return s.failures[id], nil
}

func (s *fakeStatusStore) ClearFailures(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, id)
	return s.err
}

type fakePublisher struct {
	mu     sync.Mutex
	events []rabbitmq.EventPayload
}

func (p *fakePublisher) Publish(_ context.Context, body []byte) error {
	var ev rabbitmq.EventPayload
	if err := json.Unmarshal(body, &ev); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func runProcessor(t *testing.T, status StatusStore, pub Publisher, events ...executor.CheckEvent) {
	t.Helper()
	logger := zerolog.Nop()

	ch := make(chan executor.CheckEvent, len(events))
	rp := NewProcessor(ch, status, pub, &config.ResultConfig{SuccessWorkers: 2, FailureWorkers: 1}, &logger)
	rp.Start()

	for _, ev := range events {
		ch <- ev
	}
	close(ch)

	done := make(chan struct{})
	go func() {
		rp.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("processor did not drain")
	}
}

func TestProcessor_FailureStreak(t *testing.T) {
	status := newFakeStatusStore()
	pub := &fakePublisher{}
	id := uuid.New()

	fail := executor.CheckEvent{MonitorID: id, URL: "https://example.com", Outcome: executor.OutcomeFailed, Error: "timeout"}
	runProcessor(t, status, pub, fail, fail, fail)

	assert.Equal(t, int64(3), status.failures[id])
	snap := status.snapshots[id]
	assert.Equal(t, "failed", snap.Outcome)
	assert.Equal(t, "timeout", snap.Error)

	require.Len(t, pub.events, 3)
	for _, ev := range pub.events {
		assert.Equal(t, rabbitmq.EventMonitorFailed, ev.Type)
	}
}

func TestProcessor_SuccessClearsStreakAndPublishesChanges(t *testing.T) {
	status := newFakeStatusStore()
	pub := &fakePublisher{}
	id := uuid.New()
	status.failures[id] = 2

	runProcessor(t, status, pub, executor.CheckEvent{
		MonitorID:   id,
		URL:         "https://example.com",
		Outcome:     executor.OutcomeChanged,
		Fingerprint: "abc",
		Notified:    true,
	})

	_, streak := status.failures[id]
	assert.False(t, streak)
	assert.Equal(t, "changed", status.snapshots[id].Outcome)
	assert.True(t, status.snapshots[id].Notified)

	require.Len(t, pub.events, 1)
	assert.Equal(t, rabbitmq.EventMonitorChanged, pub.events[0].Type)

	var payload MonitorEvent
	require.NoError(t, json.Unmarshal(pub.events[0].Payload, &payload))
	assert.Equal(t, id, payload.MonitorID)
	assert.Equal(t, "abc", payload.Fingerprint)
}

func TestProcessor_UnchangedIsNotPublished(t *testing.T) {
	pub := &fakePublisher{}
	runProcessor(t, newFakeStatusStore(), pub,
		executor.CheckEvent{MonitorID: uuid.New(), Outcome: executor.OutcomeBaseline},
		executor.CheckEvent{MonitorID: uuid.New(), Outcome: executor.OutcomeUnchanged},
	)
	assert.Empty(t, pub.events)
}

func TestProcessor_ToleratesMissingBackends(t *testing.T) {
	assert.NotPanics(t, func() {
		runProcessor(t, nil, nil,
			executor.CheckEvent{MonitorID: uuid.New(), Outcome: executor.OutcomeChanged},
			executor.CheckEvent{MonitorID: uuid.New(), Outcome: executor.OutcomeFailed},
		)
	})
}

func TestProcessor_StoreErrorsStillPublish(t *testing.T) {
	status := newFakeStatusStore()
	status.err = errors.New("redis down")
	pub := &fakePublisher{}

	runProcessor(t, status, pub, executor.CheckEvent{MonitorID: uuid.New(), Outcome: executor.OutcomeFailed})
	assert.Len(t, pub.events, 1)
}
