package services

import (
	"time"

	"github.com/alimgiray/gitlucky/internal/models"
	"github.com/alimgiray/gitlucky/internal/repositories"
	"github.com/alimgiray/gitlucky/pkg/logger"
	"github.com/google/go-github/v57/github"
	"github.com/sirupsen/logrus"
)

const (
	actionOpened   = "opened"
	actionReopened = "reopened"
)

// VoteService turns webhook events into pull requests under vote and counts votes
type VoteService struct {
	votes     *repositories.VoteRepository
	scheduler Scheduler
	token     string
	now       func() time.Time
}

// NewVoteService creates a VoteService. token is attached to every ingested
// pull request and later authorizes the merge or close call.
func NewVoteService(votes *repositories.VoteRepository, scheduler Scheduler, token string) *VoteService {
	return &VoteService{
		votes:     votes,
		scheduler: scheduler,
		token:     token,
		now:       time.Now,
	}
}

// HandlePullRequestEvent ingests an event. It returns false for events that are
// filtered out (wrong action, unmergeable) and a *ValidationError for
// incomplete payloads.
func (s *VoteService) HandlePullRequestEvent(event *github.PullRequestEvent) (bool, error) {
	action := event.GetAction()
	if action != actionOpened && action != actionReopened {
		logger.WithField("action", action).Debug("Ignoring pull request event")
		return false, nil
	}

	// mergeable is null until GitHub has computed it, only an explicit false rejects
	if pr := event.GetPullRequest(); pr != nil && pr.Mergeable != nil && !pr.GetMergeable() {
		logger.WithField("diff_url", pr.GetDiffURL()).Info("Ignoring unmergeable pull request")
		return false, nil
	}

	pr, err := BuildPullRequest(event)
	if err != nil {
		return false, err
	}
	pr.Key = s.token

	createdAt := s.now()
	s.votes.Insert(pr, models.NewVoteTally(createdAt))
	s.scheduler.Arm(pr.DiffURL, createdAt)

	logger.WithFields(logrus.Fields{
		"diff_url":  pr.DiffURL,
		"repo":      pr.RepoOwner + "/" + pr.RepoName,
		"pr_number": pr.PRNumber,
		"action":    action,
	}).Info("Pull request open for voting")
	return true, nil
}

// CastVote counts a vote; false means the pull request is not under vote
func (s *VoteService) CastVote(key string, direction models.Direction) bool {
	counted := s.votes.Vote(key, direction)
	logger.WithFields(logrus.Fields{
		"diff_url":  key,
		"direction": direction,
		"counted":   counted,
	}).Debug("Vote received")
	return counted
}

// RandomPullRequest picks a pull request for the next voter
func (s *VoteService) RandomPullRequest() (*models.PublicPullRequest, bool) {
	return s.votes.SampleRandom()
}

// ListPullRequests returns every pull request under vote
func (s *VoteService) ListPullRequests() []models.PublicPullRequest {
	return s.votes.ListPublic()
}

// IsUnderVote reports whether key is currently open for voting
func (s *VoteService) IsUnderVote(key string) bool {
	return s.votes.Contains(key)
}
