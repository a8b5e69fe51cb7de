package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alimgiray/gitlucky/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingFinalizer struct {
	mu      sync.Mutex
	keys    []string
	started []time.Time
	delay   time.Duration
}

func (f *recordingFinalizer) Finalize(ctx context.Context, key string, createdAt time.Time) (*models.Outcome, error) {
	time.Sleep(f.delay)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	f.started = append(f.started, createdAt)
	return &models.Outcome{DiffURL: key, Verdict: models.VerdictMerged}, nil
}

func (f *recordingFinalizer) startTimes() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.started...)
}

func (f *recordingFinalizer) finalized() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}

func startWorker(t *testing.T, w Worker) (stop func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Start(context.Background())
	}()
	return func() {
		w.Stop()
		<-done
	}
}

func TestRemainingDelay(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	window := 30 * time.Minute

	testCases := []struct {
		name      string
		createdAt time.Time
		want      time.Duration
	}{
		{"just created", now, window},
		{"half way", now.Add(-15 * time.Minute), 15 * time.Minute},
		{"exactly elapsed", now.Add(-window), 0},
		{"elapsed by more than the window", now.Add(-3 * window), 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RemainingDelay(window, tc.createdAt, now))
		})
	}
}

func TestFinalizeWorkerFiresAfterWindow(t *testing.T) {
	finalizer := &recordingFinalizer{}
	w := NewFinalizeWorker("finalize-test", finalizer, 50*time.Millisecond)
	stop := startWorker(t, w)
	defer stop()

	w.Arm("D1", time.Now())
	assert.Empty(t, finalizer.finalized())

	assert.Eventually(t, func() bool {
		return len(finalizer.finalized()) == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"D1"}, finalizer.finalized())
	assert.Equal(t, 0, w.Pending())
}

func TestFinalizeWorkerFiresExpiredRestoreImmediately(t *testing.T) {
	finalizer := &recordingFinalizer{}
	w := NewFinalizeWorker("finalize-test", finalizer, time.Hour)

	// Armed before Start, as restore does at startup
	w.Arm("old", time.Now().Add(-3*time.Hour))
	w.Arm("fresh", time.Now())
	stop := startWorker(t, w)
	defer stop()

	assert.Eventually(t, func() bool {
		return len(finalizer.finalized()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"old"}, finalizer.finalized())
	assert.Equal(t, 1, w.Pending())
}

func TestFinalizeWorkerFiresInDeadlineOrder(t *testing.T) {
	finalizer := &recordingFinalizer{}
	w := NewFinalizeWorker("finalize-test", finalizer, 40*time.Millisecond)
	stop := startWorker(t, w)
	defer stop()

	now := time.Now()
	w.Arm("second", now.Add(40*time.Millisecond))
	w.Arm("first", now)

	assert.Eventually(t, func() bool {
		return len(finalizer.finalized()) == 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"first", "second"}, finalizer.finalized())
}

func TestFinalizeWorkerRearmMovesDeadline(t *testing.T) {
	w := NewFinalizeWorker("finalize-test", &recordingFinalizer{}, time.Minute)
	created := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	w.Arm("D1", created)
	w.Arm("D1", created.Add(10*time.Minute))

	assert.Equal(t, 1, w.Pending())
	fireAt, ok := w.Deadline("D1")
	require.True(t, ok)
	assert.Equal(t, created.Add(11*time.Minute), fireAt)
}

func TestFinalizeWorkerPassesLatestCreationTime(t *testing.T) {
	finalizer := &recordingFinalizer{}
	w := NewFinalizeWorker("finalize-test", finalizer, time.Hour)

	first := time.Now().Add(-3 * time.Hour)
	second := time.Now().Add(-2 * time.Hour)
	w.Arm("D1", first)
	w.Arm("D1", second)
	stop := startWorker(t, w)
	defer stop()

	assert.Eventually(t, func() bool {
		return len(finalizer.finalized()) == 1
	}, time.Second, 5*time.Millisecond)
	started := finalizer.startTimes()
	require.Len(t, started, 1)
	assert.True(t, started[0].Equal(second))
}

func TestFinalizeWorkerStopWaitsForInflight(t *testing.T) {
	finalizer := &recordingFinalizer{delay: 100 * time.Millisecond}
	w := NewFinalizeWorker("finalize-test", finalizer, time.Millisecond)
	stop := startWorker(t, w)

	w.Arm("D1", time.Now().Add(-time.Second))
	// Give the worker a moment to pop the deadline before stopping
	assert.Eventually(t, func() bool { return w.Pending() == 0 }, time.Second, time.Millisecond)

	stop()
	assert.Equal(t, []string{"D1"}, finalizer.finalized())
	assert.False(t, w.IsRunning())
}

func TestFinalizeWorkerStopLeavesPendingArmed(t *testing.T) {
	finalizer := &recordingFinalizer{}
	w := NewFinalizeWorker("finalize-test", finalizer, time.Hour)
	stop := startWorker(t, w)

	w.Arm("D1", time.Now())
	stop()

	assert.Empty(t, finalizer.finalized())
	assert.Equal(t, 1, w.Pending())
}
