package repositories

import (
	"database/sql"
	"testing"
	"time"

	"github.com/alimgiray/gitlucky/internal/models"
	"github.com/alimgiray/gitlucky/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOutcomeCreateAndGet(t *testing.T) {
	repo := NewOutcomeRepository(newTestDB(t))

	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := &models.VoteEntry{
		PullRequest: models.PullRequest{DiffURL: "D1", RepoOwner: "bob", RepoName: "repo", PRNumber: 7, Title: "Add", Author: "alice"},
		VoteTally:   models.VoteTally{LeftVotes: 1, RightVotes: 3, CreationTime: created},
	}
	outcome := models.NewOutcome(entry, models.VerdictMerged, created.Add(30*time.Minute))
	require.NoError(t, repo.Create(outcome))

	got, err := repo.GetByID(outcome.ID)
	require.NoError(t, err)
	assert.Equal(t, "D1", got.DiffURL)
	assert.Equal(t, 7, got.PRNumber)
	assert.Equal(t, 3, got.RightVotes)
	assert.Equal(t, models.VerdictMerged, got.Verdict)
	assert.Nil(t, got.ErrorMessage)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.True(t, got.FinalizedAt.Equal(created.Add(30*time.Minute)))
}

func TestOutcomeErrorMessagePersisted(t *testing.T) {
	repo := NewOutcomeRepository(newTestDB(t))

	outcome := models.NewOutcome(&models.VoteEntry{PullRequest: models.PullRequest{DiffURL: "D1"}}, models.VerdictMerged, time.Now())
	outcome.SetError("merge conflict")
	require.NoError(t, repo.Create(outcome))

	got, err := repo.GetByID(outcome.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, "merge conflict", *got.ErrorMessage)
	assert.True(t, got.Failed())
}

func TestOutcomeGetRecent(t *testing.T) {
	repo := NewOutcomeRepository(newTestDB(t))

	base := time.Now().UTC()
	for i, key := range []string{"D1", "D2", "D3"} {
		outcome := models.NewOutcome(&models.VoteEntry{PullRequest: models.PullRequest{DiffURL: key}}, models.VerdictDenied, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.Create(outcome))
	}

	recent, err := repo.GetRecent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "D3", recent[0].DiffURL)
	assert.Equal(t, "D2", recent[1].DiffURL)

	byURL, err := repo.GetByDiffURL("D1")
	require.NoError(t, err)
	require.Len(t, byURL, 1)
	assert.Equal(t, models.VerdictDenied, byURL[0].Verdict)
}

func TestOutcomeGetByIDMissing(t *testing.T) {
	repo := NewOutcomeRepository(newTestDB(t))

	_, err := repo.GetByID("nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
