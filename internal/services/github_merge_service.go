package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/alimgiray/gitlucky/internal/models"
	"github.com/google/go-github/v57/github"
)

// GitHubMergeService merges, comments on and closes pull requests through the GitHub API
type GitHubMergeService struct {
	clients *GitHubClientFactory
}

func NewGitHubMergeService(clients *GitHubClientFactory) *GitHubMergeService {
	return &GitHubMergeService{clients: clients}
}

// Merge merges the pull request, pinned to the head commit seen at ingestion
func (s *GitHubMergeService) Merge(ctx context.Context, pr *models.PullRequest, tally models.VoteTally, message string) error {
	client := s.clients.Client(pr.Key)

	result, _, err := client.PullRequests.Merge(ctx, pr.RepoOwner, pr.RepoName, pr.PRNumber, message, &github.PullRequestOptions{
		SHA:         pr.HeadSHA,
		MergeMethod: "merge",
	})
	if err != nil {
		if isConflict(err) {
			return fmt.Errorf("merge %s/%s#%d: %w", pr.RepoOwner, pr.RepoName, pr.PRNumber, ErrMergeConflict)
		}
		return fmt.Errorf("merge %s/%s#%d: %w", pr.RepoOwner, pr.RepoName, pr.PRNumber, err)
	}
	if !result.GetMerged() {
		return fmt.Errorf("merge %s/%s#%d: not merged: %s", pr.RepoOwner, pr.RepoName, pr.PRNumber, result.GetMessage())
	}
	return nil
}

// Deny posts the verdict as a comment and closes the pull request
func (s *GitHubMergeService) Deny(ctx context.Context, pr *models.PullRequest, tally models.VoteTally, message string) error {
	if err := s.Comment(ctx, pr, message); err != nil {
		return err
	}

	client := s.clients.Client(pr.Key)
	_, _, err := client.PullRequests.Edit(ctx, pr.RepoOwner, pr.RepoName, pr.PRNumber, &github.PullRequest{
		State: github.String("closed"),
	})
	if err != nil {
		return fmt.Errorf("close %s/%s#%d: %w", pr.RepoOwner, pr.RepoName, pr.PRNumber, err)
	}
	return nil
}

// Comment posts an issue comment on the pull request
func (s *GitHubMergeService) Comment(ctx context.Context, pr *models.PullRequest, body string) error {
	client := s.clients.Client(pr.Key)
	_, _, err := client.Issues.CreateComment(ctx, pr.RepoOwner, pr.RepoName, pr.PRNumber, &github.IssueComment{
		Body: github.String(body),
	})
	if err != nil {
		return fmt.Errorf("comment on %s/%s#%d: %w", pr.RepoOwner, pr.RepoName, pr.PRNumber, err)
	}
	return nil
}

// isConflict reports a 405 (not mergeable) or 409 (head moved) from the merge endpoint
func isConflict(err error) bool {
	var ghErr *github.ErrorResponse
	if !errors.As(err, &ghErr) || ghErr.Response == nil {
		return false
	}
	return ghErr.Response.StatusCode == http.StatusMethodNotAllowed || ghErr.Response.StatusCode == http.StatusConflict
}
