package workers

import (
	"context"
	"errors"
	"sync"

	"github.com/alimgiray/gitlucky/pkg/logger"
)

// WorkerManager starts and stops a set of workers together
type WorkerManager struct {
	workers []Worker
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// NewWorkerManager creates a new worker manager
func NewWorkerManager() *WorkerManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerManager{
		workers: make([]Worker, 0),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Register adds a worker; it must be called before StartAll
func (wm *WorkerManager) Register(worker Worker) {
	wm.workers = append(wm.workers, worker)
}

// StartAll starts every registered worker in its own goroutine
func (wm *WorkerManager) StartAll() error {
	if wm.started {
		return errors.New("workers already started")
	}
	wm.started = true

	for _, worker := range wm.workers {
		wm.startWorker(worker)
	}

	logger.Infof("Started %d workers", len(wm.workers))
	return nil
}

// StopAll gracefully stops all workers and waits for them to return
func (wm *WorkerManager) StopAll() error {
	logger.Infof("Stopping all workers...")

	// Stop each worker first so it can drain, then cancel the shared context
	for _, worker := range wm.workers {
		if err := worker.Stop(); err != nil {
			logger.WithError(err).WithField("worker", worker.GetWorkerID()).Error("Error stopping worker")
		}
	}

	wm.wg.Wait()
	wm.cancel()

	logger.Infof("All workers stopped")
	return nil
}

// startWorker starts a single worker in a goroutine
func (wm *WorkerManager) startWorker(worker Worker) {
	wm.wg.Add(1)
	go func() {
		defer wm.wg.Done()
		if err := worker.Start(wm.ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).WithField("worker", worker.GetWorkerID()).Error("Worker stopped with error")
		}
	}()
}

// GetWorkerStatus returns the status of all workers
func (wm *WorkerManager) GetWorkerStatus() map[string]bool {
	status := make(map[string]bool)
	for _, worker := range wm.workers {
		status[worker.GetWorkerID()] = worker.IsRunning()
	}
	return status
}
