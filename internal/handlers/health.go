package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// VoteCounter reports how many pull requests are under vote
type VoteCounter interface {
	Len() int
}

// WorkerStatus reports whether each background worker is running
type WorkerStatus interface {
	GetWorkerStatus() map[string]bool
}

type HealthHandler struct {
	votes   VoteCounter
	workers WorkerStatus
}

func NewHealthHandler(votes VoteCounter, workers WorkerStatus) *HealthHandler {
	return &HealthHandler{votes: votes, workers: workers}
}

// HealthCheck reports liveness, the size of the vote store and which workers
// are running
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"pending_requests": h.votes.Len(),
		"workers":          h.workers.GetWorkerStatus(),
	})
}
