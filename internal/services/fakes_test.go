package services

import (
	"context"
	"sync"
	"time"

	"github.com/alimgiray/gitlucky/internal/models"
)

type dispatchCall struct {
	kind    string
	key     string
	token   string
	message string
}

type fakeDispatcher struct {
	mu         sync.Mutex
	calls      []dispatchCall
	mergeErr   error
	denyErr    error
	commentErr error
}

func (d *fakeDispatcher) record(kind string, pr *models.PullRequest, message string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, dispatchCall{kind: kind, key: pr.DiffURL, token: pr.Key, message: message})
}

func (d *fakeDispatcher) Merge(ctx context.Context, pr *models.PullRequest, tally models.VoteTally, message string) error {
	d.record("merge", pr, message)
	return d.mergeErr
}

func (d *fakeDispatcher) Deny(ctx context.Context, pr *models.PullRequest, tally models.VoteTally, message string) error {
	d.record("deny", pr, message)
	return d.denyErr
}

func (d *fakeDispatcher) Comment(ctx context.Context, pr *models.PullRequest, body string) error {
	d.record("comment", pr, body)
	return d.commentErr
}

func (d *fakeDispatcher) recorded() []dispatchCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]dispatchCall(nil), d.calls...)
}

type fakeRecorder struct {
	outcomes []*models.Outcome
	err      error
}

func (r *fakeRecorder) Create(outcome *models.Outcome) error {
	r.outcomes = append(r.outcomes, outcome)
	return r.err
}

type armCall struct {
	key       string
	createdAt time.Time
}

type fakeScheduler struct {
	armed []armCall
}

func (s *fakeScheduler) Arm(key string, createdAt time.Time) {
	s.armed = append(s.armed, armCall{key: key, createdAt: createdAt})
}

type fakeFetcher struct {
	text string
	err  error
	urls []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, diffURL string) (string, error) {
	f.urls = append(f.urls, diffURL)
	return f.text, f.err
}

func testPullRequest(key string) *models.PullRequest {
	return &models.PullRequest{
		DiffURL:           key,
		Title:             "Add feature",
		Additions:         10,
		Deletions:         2,
		ChangedFiles:      3,
		Author:            "alice",
		ProfilePicURL:     "https://avatars.githubusercontent.com/u/1",
		RepoOwner:         "bob",
		RepoName:          "project",
		PRNumber:          42,
		BranchToMerge:     "feat",
		BranchToMergeInto: "main",
		HeadSHA:           "abc123",
		Key:               "secret-token",
	}
}
