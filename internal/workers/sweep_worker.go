package workers

import (
	"context"
	"time"

	"github.com/alimgiray/gitlucky/pkg/logger"
	"github.com/sirupsen/logrus"
)

// Sweeper drops state idle for longer than maxIdle
type Sweeper interface {
	Sweep(maxIdle time.Duration) int
}

// SweepWorker runs a Sweeper on a fixed interval
type SweepWorker struct {
	*BaseWorker
	sweeper  Sweeper
	interval time.Duration
	maxIdle  time.Duration
}

// NewSweepWorker creates a new sweep worker
func NewSweepWorker(workerID string, sweeper Sweeper, interval, maxIdle time.Duration) *SweepWorker {
	return &SweepWorker{
		BaseWorker: NewBaseWorker(workerID),
		sweeper:    sweeper,
		interval:   interval,
		maxIdle:    maxIdle,
	}
}

// Start begins the sweep loop
func (w *SweepWorker) Start(ctx context.Context) error {
	w.setRunning(true)
	defer w.setRunning(false)
	logger.Infof("Sweep worker %s started, interval %s", w.WorkerID, w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Infof("Sweep worker %s stopping due to context cancellation", w.WorkerID)
			return ctx.Err()
		case <-w.StopChan:
			logger.Infof("Sweep worker %s stopping", w.WorkerID)
			return nil
		case <-ticker.C:
			if removed := w.sweeper.Sweep(w.maxIdle); removed > 0 {
				logger.WithFields(logrus.Fields{
					"worker":  w.WorkerID,
					"removed": removed,
				}).Debug("Swept idle entries")
			}
		}
	}
}
