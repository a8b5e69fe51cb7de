package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/alimgiray/gitlucky/internal/models"
	"github.com/alimgiray/gitlucky/internal/services"
	"github.com/alimgiray/gitlucky/pkg/logger"
	"github.com/gin-gonic/gin"
)

const (
	defaultOutcomeLimit = 50
	maxOutcomeLimit     = 1000
	xlsxContentType     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type OutcomeHandler struct {
	outcomeService *services.OutcomeService
}

func NewOutcomeHandler(outcomeService *services.OutcomeService) *OutcomeHandler {
	return &OutcomeHandler{outcomeService: outcomeService}
}

// List returns the most recently finalized votes, or every vote on one pull
// request when diff_url is given
func (h *OutcomeHandler) List(c *gin.Context) {
	limit, err := parseLimit(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var outcomes []*models.Outcome
	if diffURL := c.Query("diff_url"); diffURL != "" {
		outcomes, err = h.outcomeService.GetOutcomesForPullRequest(diffURL)
	} else {
		outcomes, err = h.outcomeService.GetRecentOutcomes(limit)
	}
	if err != nil {
		logger.WithError(err).Error("Failed to load outcomes")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load outcomes"})
		return
	}
	c.JSON(http.StatusOK, outcomes)
}

// Get returns one outcome by id
func (h *OutcomeHandler) Get(c *gin.Context) {
	outcome, err := h.outcomeService.GetOutcome(c.Param("id"))
	if errors.Is(err, services.ErrOutcomeNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "outcome not found"})
		return
	}
	if err != nil {
		logger.WithError(err).WithField("outcome_id", c.Param("id")).Error("Failed to load outcome")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load outcome"})
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// Export downloads the most recently finalized votes as a spreadsheet
func (h *OutcomeHandler) Export(c *gin.Context) {
	limit, err := parseLimit(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := h.outcomeService.ExportXLSX(&buf, limit); err != nil {
		logger.WithError(err).Error("Failed to export outcomes")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export outcomes"})
		return
	}

	filename := fmt.Sprintf("outcomes-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func parseLimit(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultOutcomeLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	if limit > maxOutcomeLimit {
		limit = maxOutcomeLimit
	}
	return limit, nil
}
