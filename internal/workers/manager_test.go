package workers

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSaver struct {
	calls atomic.Int32
	err   error
}

func (s *countingSaver) Save() error {
	s.calls.Add(1)
	return s.err
}

func TestSnapshotWorkerSavesPeriodically(t *testing.T) {
	saver := &countingSaver{}
	w := NewSnapshotWorker("snapshot-test", saver, 10*time.Millisecond)
	stop := startWorker(t, w)
	defer stop()

	assert.Eventually(t, func() bool {
		return saver.calls.Load() >= 3
	}, time.Second, 5*time.Millisecond)
}

func TestSnapshotWorkerKeepsRunningOnError(t *testing.T) {
	saver := &countingSaver{err: errors.New("disk full")}
	w := NewSnapshotWorker("snapshot-test", saver, 10*time.Millisecond)
	stop := startWorker(t, w)
	defer stop()

	assert.Eventually(t, func() bool {
		return saver.calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)
	assert.True(t, w.IsRunning())
}

type countingSweeper struct {
	calls   atomic.Int32
	maxIdle atomic.Int64
}

func (s *countingSweeper) Sweep(maxIdle time.Duration) int {
	s.calls.Add(1)
	s.maxIdle.Store(int64(maxIdle))
	return 1
}

func TestSweepWorkerSweepsPeriodically(t *testing.T) {
	sweeper := &countingSweeper{}
	w := NewSweepWorker("sweep-test", sweeper, 10*time.Millisecond, time.Minute)
	stop := startWorker(t, w)

	assert.Eventually(t, func() bool {
		return sweeper.calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(time.Minute), sweeper.maxIdle.Load())

	stop()
	assert.False(t, w.IsRunning())
}

func TestWorkerManagerLifecycle(t *testing.T) {
	wm := NewWorkerManager()
	finalizeWorker := NewFinalizeWorker("finalize-1", &recordingFinalizer{}, time.Hour)
	snapshotWorker := NewSnapshotWorker("snapshot-1", &countingSaver{}, time.Hour)
	wm.Register(finalizeWorker)
	wm.Register(snapshotWorker)

	require.NoError(t, wm.StartAll())
	assert.Error(t, wm.StartAll(), "starting twice is rejected")

	assert.Eventually(t, func() bool {
		status := wm.GetWorkerStatus()
		return status["finalize-1"] && status["snapshot-1"]
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, wm.StopAll())
	status := wm.GetWorkerStatus()
	assert.False(t, status["finalize-1"])
	assert.False(t, status["snapshot-1"])
}

func TestBaseWorkerStopIsIdempotent(t *testing.T) {
	w := NewBaseWorker("base")
	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
	assert.Equal(t, "base", w.GetWorkerID())
}
