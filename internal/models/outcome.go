package models

import (
	"time"

	"github.com/google/uuid"
)

// Outcome records how a finished vote was applied
type Outcome struct {
	ID           string    `json:"id" db:"id"`
	DiffURL      string    `json:"diff_url" db:"diff_url"`
	RepoOwner    string    `json:"repo_owner" db:"repo_owner"`
	RepoName     string    `json:"repo_name" db:"repo_name"`
	PRNumber     int       `json:"pr_number" db:"pr_number"`
	Title        string    `json:"title" db:"title"`
	Author       string    `json:"author" db:"author"`
	LeftVotes    int       `json:"left_votes" db:"left_votes"`
	RightVotes   int       `json:"right_votes" db:"right_votes"`
	Verdict      Verdict   `json:"verdict" db:"verdict"`
	ErrorMessage *string   `json:"error_message" db:"error_message"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	FinalizedAt  time.Time `json:"finalized_at" db:"finalized_at"`
}

// NewOutcome creates an Outcome for a removed entry with a generated UUID
func NewOutcome(entry *VoteEntry, verdict Verdict, finalizedAt time.Time) *Outcome {
	pr := entry.PullRequest
	return &Outcome{
		ID:          uuid.New().String(),
		DiffURL:     pr.DiffURL,
		RepoOwner:   pr.RepoOwner,
		RepoName:    pr.RepoName,
		PRNumber:    pr.PRNumber,
		Title:       pr.Title,
		Author:      pr.Author,
		LeftVotes:   entry.LeftVotes,
		RightVotes:  entry.RightVotes,
		Verdict:     verdict,
		CreatedAt:   entry.CreationTime,
		FinalizedAt: finalizedAt,
	}
}

// SetError sets an error message for the outcome
func (o *Outcome) SetError(message string) {
	o.ErrorMessage = &message
}

// Failed reports whether applying the verdict failed
func (o *Outcome) Failed() bool {
	return o.ErrorMessage != nil
}
