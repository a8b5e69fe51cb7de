package workers

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/alimgiray/gitlucky/internal/models"
	"github.com/alimgiray/gitlucky/pkg/logger"
	"github.com/sirupsen/logrus"
)

// Finalizer closes the vote for one key that started at createdAt
type Finalizer interface {
	Finalize(ctx context.Context, key string, createdAt time.Time) (*models.Outcome, error)
}

// FinalizeWorker keeps one deadline per pull request in a min-heap and
// finalizes each key when its vote window has elapsed.
type FinalizeWorker struct {
	*BaseWorker
	finalizer Finalizer
	window    time.Duration
	now       func() time.Time

	mu    sync.Mutex
	queue deadlineQueue
	index map[string]*deadline
	wake  chan struct{}

	inflight sync.WaitGroup
}

// NewFinalizeWorker creates a FinalizeWorker for the given vote window
func NewFinalizeWorker(workerID string, finalizer Finalizer, window time.Duration) *FinalizeWorker {
	return &FinalizeWorker{
		BaseWorker: NewBaseWorker(workerID),
		finalizer:  finalizer,
		window:     window,
		now:        time.Now,
		index:      make(map[string]*deadline),
		wake:       make(chan struct{}, 1),
	}
}

// RemainingDelay is how much of the window is left for a vote that started at
// createdAt. It is never negative.
func RemainingDelay(window time.Duration, createdAt, now time.Time) time.Duration {
	remaining := window - now.Sub(createdAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Arm schedules key to be finalized one window after createdAt. Arming a key
// that is already armed moves its deadline. Arm may be called before Start.
func (w *FinalizeWorker) Arm(key string, createdAt time.Time) {
	fireAt := createdAt.Add(w.window)

	w.mu.Lock()
	if d, ok := w.index[key]; ok {
		d.createdAt = createdAt
		d.fireAt = fireAt
		heap.Fix(&w.queue, d.index)
	} else {
		d := &deadline{key: key, createdAt: createdAt, fireAt: fireAt}
		heap.Push(&w.queue, d)
		w.index[key] = d
	}
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}

	logger.WithFields(logrus.Fields{
		"diff_url":  key,
		"remaining": RemainingDelay(w.window, createdAt, w.now()).String(),
	}).Debug("Finalizer armed")
}

// Pending returns the number of armed keys that have not fired
func (w *FinalizeWorker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.queue.Len()
}

// Deadline returns when key will fire
func (w *FinalizeWorker) Deadline(key string) (time.Time, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	d, ok := w.index[key]
	if !ok {
		return time.Time{}, false
	}
	return d.fireAt, true
}

// Start sleeps until the earliest deadline, fires every due key and repeats.
// On stop it waits for finalizations already in progress.
func (w *FinalizeWorker) Start(ctx context.Context) error {
	w.setRunning(true)
	defer w.setRunning(false)
	logger.Infof("Finalize worker %s started", w.WorkerID)

	for {
		var fire <-chan time.Time
		var timer *time.Timer
		if delay, ok := w.nextDelay(); ok {
			timer = time.NewTimer(delay)
			fire = timer.C
		}

		select {
		case <-ctx.Done():
			stopTimer(timer)
			w.inflight.Wait()
			logger.Infof("Finalize worker %s stopping due to context cancellation", w.WorkerID)
			return ctx.Err()
		case <-w.StopChan:
			stopTimer(timer)
			w.inflight.Wait()
			logger.Infof("Finalize worker %s stopping", w.WorkerID)
			return nil
		case <-w.wake:
		case <-fire:
			w.fireDue()
		}
		stopTimer(timer)
	}
}

func (w *FinalizeWorker) nextDelay() (time.Duration, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.queue.Len() == 0 {
		return 0, false
	}
	delay := w.queue[0].fireAt.Sub(w.now())
	if delay < 0 {
		delay = 0
	}
	return delay, true
}

// fireDue pops every expired deadline and finalizes each key in its own goroutine
func (w *FinalizeWorker) fireDue() {
	now := w.now()

	w.mu.Lock()
	var due []deadline
	for w.queue.Len() > 0 && !w.queue[0].fireAt.After(now) {
		d := heap.Pop(&w.queue).(*deadline)
		delete(w.index, d.key)
		due = append(due, *d)
	}
	w.mu.Unlock()

	for _, d := range due {
		w.inflight.Add(1)
		go func(key string, createdAt time.Time) {
			defer w.inflight.Done()
			// Finalization is not cancelled by shutdown; the finalizer bounds
			// collaborator calls with its own timeout.
			outcome, err := w.finalizer.Finalize(context.Background(), key, createdAt)
			if outcome == nil {
				if err != nil {
					logger.WithError(err).WithField("diff_url", key).Warn("Finalization finished with error")
				}
				return
			}
			log := logger.WithFields(logrus.Fields{
				"diff_url": key,
				"verdict":  outcome.Verdict,
			})
			if outcome.Failed() {
				log.WithError(err).Warn("Vote finalized, verdict not applied")
				return
			}
			log.Info("Vote finalized")
		}(d.key, d.createdAt)
	}
}

func stopTimer(timer *time.Timer) {
	if timer != nil {
		timer.Stop()
	}
}

type deadline struct {
	key       string
	createdAt time.Time
	fireAt    time.Time
	index     int
}

// deadlineQueue is a container/heap ordered by fireAt
type deadlineQueue []*deadline

func (q deadlineQueue) Len() int { return len(q) }

func (q deadlineQueue) Less(i, j int) bool { return q[i].fireAt.Before(q[j].fireAt) }

func (q deadlineQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *deadlineQueue) Push(x any) {
	d := x.(*deadline)
	d.index = len(*q)
	*q = append(*q, d)
}

func (q *deadlineQueue) Pop() any {
	old := *q
	n := len(old)
	d := old[n-1]
	old[n-1] = nil
	d.index = -1
	*q = old[:n-1]
	return d
}
