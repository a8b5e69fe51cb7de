package repositories

import (
	"database/sql"
	"sync"

	"github.com/alimgiray/gitlucky/internal/models"
	"github.com/google/uuid"
)

// OutcomeRepository stores finished votes
type OutcomeRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

func NewOutcomeRepository(db *sql.DB) *OutcomeRepository {
	return &OutcomeRepository{db: db}
}

const outcomeColumns = `id, diff_url, repo_owner, repo_name, pr_number, title, author,
	left_votes, right_votes, verdict, error_message, created_at, finalized_at`

func (r *OutcomeRepository) Create(outcome *models.Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if outcome.ID == "" {
		outcome.ID = uuid.New().String()
	}

	query := `INSERT INTO vote_outcomes (` + outcomeColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		outcome.ID, outcome.DiffURL, outcome.RepoOwner, outcome.RepoName, outcome.PRNumber,
		outcome.Title, outcome.Author, outcome.LeftVotes, outcome.RightVotes, outcome.Verdict,
		outcome.ErrorMessage, outcome.CreatedAt.UTC(), outcome.FinalizedAt.UTC(),
	)
	return err
}

func (r *OutcomeRepository) GetByID(id string) (*models.Outcome, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT ` + outcomeColumns + ` FROM vote_outcomes WHERE id = ?`
	return scanOutcome(r.db.QueryRow(query, id))
}

// GetRecent returns the latest outcomes, newest first
func (r *OutcomeRepository) GetRecent(limit int) ([]*models.Outcome, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT ` + outcomeColumns + ` FROM vote_outcomes ORDER BY finalized_at DESC LIMIT ?`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	outcomes := make([]*models.Outcome, 0)
	for rows.Next() {
		outcome, err := scanOutcome(rows)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, rows.Err()
}

// GetByDiffURL returns every outcome recorded for a pull request, newest first
func (r *OutcomeRepository) GetByDiffURL(diffURL string) ([]*models.Outcome, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT ` + outcomeColumns + ` FROM vote_outcomes WHERE diff_url = ? ORDER BY finalized_at DESC`
	rows, err := r.db.Query(query, diffURL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	outcomes := make([]*models.Outcome, 0)
	for rows.Next() {
		outcome, err := scanOutcome(rows)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOutcome(row rowScanner) (*models.Outcome, error) {
	var outcome models.Outcome
	err := row.Scan(
		&outcome.ID, &outcome.DiffURL, &outcome.RepoOwner, &outcome.RepoName, &outcome.PRNumber,
		&outcome.Title, &outcome.Author, &outcome.LeftVotes, &outcome.RightVotes, &outcome.Verdict,
		&outcome.ErrorMessage, &outcome.CreatedAt, &outcome.FinalizedAt,
	)
	if err != nil {
		return nil, err
	}
	return &outcome, nil
}
