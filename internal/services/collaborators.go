package services

import (
	"context"
	"errors"
	"time"

	"github.com/alimgiray/gitlucky/internal/models"
)

// ErrMergeConflict means the host refused the merge because the branches conflict
var ErrMergeConflict = errors.New("merge conflict")

// MergeDispatcher applies a verdict on the source-control host
type MergeDispatcher interface {
	Merge(ctx context.Context, pr *models.PullRequest, tally models.VoteTally, message string) error
	Deny(ctx context.Context, pr *models.PullRequest, tally models.VoteTally, message string) error
	Comment(ctx context.Context, pr *models.PullRequest, body string) error
}

// DiffFetcher downloads the raw diff behind a diff URL
type DiffFetcher interface {
	Fetch(ctx context.Context, diffURL string) (string, error)
}

// Scheduler arms the finalizer for a pull request whose vote started at createdAt
type Scheduler interface {
	Arm(key string, createdAt time.Time)
}

// OutcomeRecorder keeps the history of finished votes
type OutcomeRecorder interface {
	Create(outcome *models.Outcome) error
}
