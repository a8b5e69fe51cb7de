package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/alimgiray/gitlucky/internal/diff"
	"github.com/alimgiray/gitlucky/internal/services"
	"github.com/alimgiray/gitlucky/pkg/logger"
	"github.com/gin-gonic/gin"
)

// diffResponse is the parsed document with its line totals
type diffResponse struct {
	*diff.Document
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
}

type PullRequestHandler struct {
	voteService  *services.VoteService
	diffFetcher  services.DiffFetcher
	fetchTimeout time.Duration
}

func NewPullRequestHandler(voteService *services.VoteService, diffFetcher services.DiffFetcher, fetchTimeout time.Duration) *PullRequestHandler {
	return &PullRequestHandler{
		voteService:  voteService,
		diffFetcher:  diffFetcher,
		fetchTimeout: fetchTimeout,
	}
}

// Random returns one pull request for the next voter
func (h *PullRequestHandler) Random(c *gin.Context) {
	pr, ok := h.voteService.RandomPullRequest()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no pull requests"})
		return
	}
	c.JSON(http.StatusOK, pr)
}

// List returns every pull request under vote
func (h *PullRequestHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.voteService.ListPullRequests())
}

// Diff fetches and parses the diff of a pull request that is under vote
func (h *PullRequestHandler) Diff(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key is required"})
		return
	}
	if !h.voteService.IsUnderVote(key) {
		c.JSON(http.StatusNotFound, gin.H{"error": "pull request not under vote"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.fetchTimeout)
	defer cancel()

	doc, err := services.FetchDocument(ctx, h.diffFetcher, key)
	if err != nil {
		if errors.Is(err, services.ErrUntrustedDiffURL) {
			logger.WithError(err).WithField("diff_url", key).Warn("Refusing to fetch diff")
			c.JSON(http.StatusBadRequest, gin.H{"error": "diff url is not a GitHub url"})
			return
		}
		var parseErr *diff.ParseError
		if errors.As(err, &parseErr) {
			logger.WithError(err).WithField("diff_url", key).Warn("Diff could not be parsed")
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": parseErr.Error()})
			return
		}
		logger.WithError(err).WithField("diff_url", key).Error("Failed to fetch diff")
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch diff"})
		return
	}

	added, removed := doc.Stats()
	c.JSON(http.StatusOK, diffResponse{Document: doc, Additions: added, Deletions: removed})
}
