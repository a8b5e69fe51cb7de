package services

import (
	"bytes"
	"testing"
	"time"

	"github.com/alimgiray/gitlucky/internal/models"
	"github.com/alimgiray/gitlucky/internal/repositories"
	"github.com/alimgiray/gitlucky/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newTestOutcomeService(t *testing.T) (*OutcomeService, *repositories.OutcomeRepository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repositories.NewOutcomeRepository(db)
	return NewOutcomeService(repo), repo
}

func TestOutcomeServiceExportXLSX(t *testing.T) {
	s, repo := newTestOutcomeService(t)
	created := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	merged := models.NewOutcome(&models.VoteEntry{
		PullRequest: *testPullRequest("D1"),
		VoteTally:   models.VoteTally{LeftVotes: 1, RightVotes: 3, CreationTime: created},
	}, models.VerdictMerged, created.Add(30*time.Minute))
	require.NoError(t, repo.Create(merged))

	denied := models.NewOutcome(&models.VoteEntry{
		PullRequest: *testPullRequest("D2"),
		VoteTally:   models.VoteTally{LeftVotes: 4, CreationTime: created.Add(time.Hour)},
	}, models.VerdictDenied, created.Add(90*time.Minute))
	denied.SetError("bad credentials")
	require.NoError(t, repo.Create(denied))

	var buf bytes.Buffer
	require.NoError(t, s.ExportXLSX(&buf, 10))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(outcomeSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Repository", rows[0][0])
	assert.Equal(t, "Finalized", rows[0][9])

	// Most recently finalized first
	assert.Equal(t, "bob/project", rows[1][0])
	assert.Equal(t, "denied", rows[1][6])
	assert.Equal(t, "bad credentials", rows[1][7])
	assert.Equal(t, "merged", rows[2][6])
	assert.Equal(t, "3", rows[2][4])
	assert.Equal(t, "2025-01-01T12:30:00Z", rows[2][9])
}

func TestWriteOutcomesXLSXEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOutcomesXLSX(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(outcomeSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestOutcomeServiceQueries(t *testing.T) {
	s, repo := newTestOutcomeService(t)
	entry := &models.VoteEntry{PullRequest: *testPullRequest("D1"), VoteTally: models.NewVoteTally(time.Now())}
	require.NoError(t, repo.Create(models.NewOutcome(entry, models.VerdictAutoAccepted, time.Now())))

	recent, err := s.GetRecentOutcomes(5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, models.VerdictAutoAccepted, recent[0].Verdict)

	byURL, err := s.GetOutcomesForPullRequest("D1")
	require.NoError(t, err)
	assert.Len(t, byURL, 1)

	none, err := s.GetOutcomesForPullRequest("D2")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestOutcomeServiceGetOutcome(t *testing.T) {
	s, repo := newTestOutcomeService(t)
	entry := &models.VoteEntry{PullRequest: *testPullRequest("D1"), VoteTally: models.NewVoteTally(time.Now())}
	outcome := models.NewOutcome(entry, models.VerdictMerged, time.Now())
	require.NoError(t, repo.Create(outcome))

	got, err := s.GetOutcome(outcome.ID)
	require.NoError(t, err)
	assert.Equal(t, "D1", got.DiffURL)

	_, err = s.GetOutcome("missing")
	assert.ErrorIs(t, err, ErrOutcomeNotFound)
}
