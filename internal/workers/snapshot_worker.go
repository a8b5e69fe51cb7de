package workers

import (
	"context"
	"time"

	"github.com/alimgiray/gitlucky/pkg/logger"
)

// Saver persists the vote store
type Saver interface {
	Save() error
}

// SnapshotWorker saves the vote store on a fixed interval
type SnapshotWorker struct {
	*BaseWorker
	saver    Saver
	interval time.Duration
}

// NewSnapshotWorker creates a new snapshot worker
func NewSnapshotWorker(workerID string, saver Saver, interval time.Duration) *SnapshotWorker {
	return &SnapshotWorker{
		BaseWorker: NewBaseWorker(workerID),
		saver:      saver,
		interval:   interval,
	}
}

// Start begins the snapshot loop
func (w *SnapshotWorker) Start(ctx context.Context) error {
	w.setRunning(true)
	defer w.setRunning(false)
	logger.Infof("Snapshot worker %s started, interval %s", w.WorkerID, w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Infof("Snapshot worker %s stopping due to context cancellation", w.WorkerID)
			return ctx.Err()
		case <-w.StopChan:
			logger.Infof("Snapshot worker %s stopping", w.WorkerID)
			return nil
		case <-ticker.C:
			if err := w.saver.Save(); err != nil {
				logger.WithError(err).Error("Periodic snapshot failed")
			}
		}
	}
}
