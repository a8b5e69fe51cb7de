package services

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/alimgiray/gitlucky/internal/models"
	"github.com/google/go-github/v57/github"
)

// ValidationError lists the fields an inbound event was missing
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("pull request event missing fields: %s", strings.Join(e.Missing, ", "))
}

// BuildPullRequest normalizes a pull request webhook event. Every field of
// the record is required; the error lists all that were absent.
func BuildPullRequest(event *github.PullRequestEvent) (*models.PullRequest, error) {
	if event == nil || event.PullRequest == nil {
		return nil, &ValidationError{Missing: []string{"pull_request"}}
	}
	pr := event.GetPullRequest()

	var missing []string
	check := func(name string, present bool) {
		if !present {
			missing = append(missing, name)
		}
	}

	check("diff_url", pr.GetDiffURL() != "")
	check("title", pr.Title != nil)
	check("additions", pr.Additions != nil)
	check("deletions", pr.Deletions != nil)
	check("changed_files", pr.ChangedFiles != nil)
	check("user.login", pr.GetUser().GetLogin() != "")
	check("user.avatar_url", pr.GetUser().GetAvatarURL() != "")
	check("head.label", pr.GetHead().GetLabel() != "")
	check("head.sha", pr.GetHead().GetSHA() != "")
	check("base.label", pr.GetBase().GetLabel() != "")

	owner := pr.GetBase().GetRepo().GetOwner().GetLogin()
	if owner == "" {
		owner = event.GetRepo().GetOwner().GetLogin()
	}
	check("repository.owner", owner != "")

	repoName := event.GetRepo().GetName()
	if repoName == "" {
		repoName = pr.GetBase().GetRepo().GetName()
	}
	if repoName == "" {
		repoName = repoNameFromDiffURL(pr.GetDiffURL())
	}
	check("repository.name", repoName != "")

	number := pr.GetNumber()
	if number == 0 {
		number = event.GetNumber()
	}
	check("number", number != 0)

	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	return &models.PullRequest{
		DiffURL:           pr.GetDiffURL(),
		Title:             pr.GetTitle(),
		Additions:         pr.GetAdditions(),
		Deletions:         pr.GetDeletions(),
		ChangedFiles:      pr.GetChangedFiles(),
		Author:            pr.GetUser().GetLogin(),
		ProfilePicURL:     pr.GetUser().GetAvatarURL(),
		RepoOwner:         owner,
		RepoName:          repoName,
		PRNumber:          number,
		BranchToMerge:     branchFromLabel(pr.GetHead().GetLabel()),
		BranchToMergeInto: branchFromLabel(pr.GetBase().GetLabel()),
		HeadSHA:           pr.GetHead().GetSHA(),
	}, nil
}

// branchFromLabel turns "owner:branch" into "branch"
func branchFromLabel(label string) string {
	if _, branch, found := strings.Cut(label, ":"); found {
		return branch
	}
	return label
}

// repoNameFromDiffURL is a best-effort fallback for
// https://github.com/<owner>/<repo>/pull/<n>.diff
func repoNameFromDiffURL(diffURL string) string {
	u, err := url.Parse(diffURL)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
