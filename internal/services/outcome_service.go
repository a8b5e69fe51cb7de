package services

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/alimgiray/gitlucky/internal/models"
	"github.com/alimgiray/gitlucky/internal/repositories"
	"github.com/xuri/excelize/v2"
)

const outcomeSheet = "Outcomes"

var ErrOutcomeNotFound = errors.New("outcome not found")

type OutcomeService struct {
	outcomeRepo *repositories.OutcomeRepository
}

func NewOutcomeService(outcomeRepo *repositories.OutcomeRepository) *OutcomeService {
	return &OutcomeService{outcomeRepo: outcomeRepo}
}

func (s *OutcomeService) GetRecentOutcomes(limit int) ([]*models.Outcome, error) {
	return s.outcomeRepo.GetRecent(limit)
}

func (s *OutcomeService) GetOutcome(id string) (*models.Outcome, error) {
	outcome, err := s.outcomeRepo.GetByID(id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOutcomeNotFound
	}
	return outcome, err
}

func (s *OutcomeService) GetOutcomesForPullRequest(diffURL string) ([]*models.Outcome, error) {
	return s.outcomeRepo.GetByDiffURL(diffURL)
}

// ExportXLSX writes the latest outcomes as a spreadsheet
func (s *OutcomeService) ExportXLSX(w io.Writer, limit int) error {
	outcomes, err := s.outcomeRepo.GetRecent(limit)
	if err != nil {
		return fmt.Errorf("load outcomes: %w", err)
	}
	return WriteOutcomesXLSX(w, outcomes)
}

// WriteOutcomesXLSX renders outcomes into a single-sheet workbook
func WriteOutcomesXLSX(w io.Writer, outcomes []*models.Outcome) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", outcomeSheet); err != nil {
		return err
	}

	header := []interface{}{
		"Repository", "PR", "Title", "Author", "Accepted", "Denied", "Verdict", "Error", "Opened", "Finalized",
	}
	if err := f.SetSheetRow(outcomeSheet, "A1", &header); err != nil {
		return err
	}

	for i, outcome := range outcomes {
		errorMessage := ""
		if outcome.ErrorMessage != nil {
			errorMessage = *outcome.ErrorMessage
		}
		row := []interface{}{
			outcome.RepoOwner + "/" + outcome.RepoName,
			outcome.PRNumber,
			outcome.Title,
			outcome.Author,
			outcome.RightVotes,
			outcome.LeftVotes,
			string(outcome.Verdict),
			errorMessage,
			outcome.CreatedAt.Format(time.RFC3339),
			outcome.FinalizedAt.Format(time.RFC3339),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(outcomeSheet, cell, &row); err != nil {
			return err
		}
	}

	return f.Write(w)
}
