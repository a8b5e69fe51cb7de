package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alimgiray/gitlucky/internal/models"
	"github.com/alimgiray/gitlucky/internal/repositories"
	"github.com/alimgiray/gitlucky/pkg/logger"
	"github.com/sirupsen/logrus"
)

// FinalizerService closes a vote: it removes the entry from the store and
// merges or denies the pull request according to the tally.
type FinalizerService struct {
	votes      *repositories.VoteRepository
	dispatcher MergeDispatcher
	outcomes   OutcomeRecorder
	timeout    time.Duration
	now        func() time.Time
}

// NewFinalizerService creates a FinalizerService. outcomes may be nil.
func NewFinalizerService(
	votes *repositories.VoteRepository,
	dispatcher MergeDispatcher,
	outcomes OutcomeRecorder,
	timeout time.Duration,
) *FinalizerService {
	return &FinalizerService{
		votes:      votes,
		dispatcher: dispatcher,
		outcomes:   outcomes,
		timeout:    timeout,
		now:        time.Now,
	}
}

// Finalize applies the verdict for the vote on key that started at createdAt.
// A key that is no longer in the store, or was re-delivered since, returns
// nil, nil. Collaborator failures are recorded on the outcome and never retried.
func (s *FinalizerService) Finalize(ctx context.Context, key string, createdAt time.Time) (*models.Outcome, error) {
	entry, ok := s.votes.RemoveFinal(key, createdAt)
	if !ok {
		logger.WithField("diff_url", key).Debug("Finalize skipped, vote already removed or restarted")
		return nil, nil
	}

	pr := &entry.PullRequest
	verdict := entry.Verdict()
	outcome := models.NewOutcome(entry, verdict, s.now())

	log := logger.WithFields(logrus.Fields{
		"diff_url":    key,
		"repo":        pr.RepoOwner + "/" + pr.RepoName,
		"pr_number":   pr.PRNumber,
		"left_votes":  entry.LeftVotes,
		"right_votes": entry.RightVotes,
		"verdict":     verdict,
	})

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var err error
	if verdict.IsMerge() {
		log.Info("Merging pull request")
		err = s.dispatcher.Merge(callCtx, pr, entry.VoteTally, mergeMessage(entry))
		if errors.Is(err, ErrMergeConflict) {
			log.WithError(err).Warn("Merge conflict, posting notice")
			if commentErr := s.dispatcher.Comment(callCtx, pr, conflictMessage(entry)); commentErr != nil {
				log.WithError(commentErr).Error("Failed to post merge conflict notice")
			}
		}
	} else {
		log.Info("Denying pull request")
		err = s.dispatcher.Deny(callCtx, pr, entry.VoteTally, denyMessage(entry))
	}

	if err != nil {
		log.WithError(err).Error("Failed to apply verdict")
		outcome.SetError(err.Error())
	}

	if s.outcomes != nil {
		if recordErr := s.outcomes.Create(outcome); recordErr != nil {
			log.WithError(recordErr).Error("Failed to record outcome")
		}
	}

	return outcome, err
}

func mergeMessage(entry *models.VoteEntry) string {
	if entry.Verdict() == models.VerdictAutoAccepted {
		return fmt.Sprintf("Nobody voted on %s, so it was auto-accepted. %d accepted, %d denied.",
			entry.PullRequest.BranchToMerge, entry.RightVotes, entry.LeftVotes)
	}
	return fmt.Sprintf("The people have merged %s, %d accepted, %d denied.",
		entry.PullRequest.BranchToMerge, entry.RightVotes, entry.LeftVotes)
}

func denyMessage(entry *models.VoteEntry) string {
	return fmt.Sprintf("The people have spoken! %d accepted, %d denied.", entry.RightVotes, entry.LeftVotes)
}

func conflictMessage(entry *models.VoteEntry) string {
	return fmt.Sprintf("The people voted to merge %s (%d accepted, %d denied), but it has conflicts with %s and could not be merged.",
		entry.PullRequest.BranchToMerge, entry.RightVotes, entry.LeftVotes, entry.PullRequest.BranchToMergeInto)
}
