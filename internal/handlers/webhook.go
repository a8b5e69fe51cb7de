package handlers

import (
	"errors"
	"net/http"

	"github.com/alimgiray/gitlucky/internal/middleware"
	"github.com/alimgiray/gitlucky/internal/services"
	"github.com/alimgiray/gitlucky/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/go-github/v57/github"
)

const pullRequestEvent = "pull_request"

type WebhookHandler struct {
	voteService *services.VoteService
}

func NewWebhookHandler(voteService *services.VoteService) *WebhookHandler {
	return &WebhookHandler{voteService: voteService}
}

// Receive ingests a webhook delivery. Every delivery that passed signature
// checks is acknowledged with 200 so GitHub does not redeliver it.
func (h *WebhookHandler) Receive(c *gin.Context) {
	eventType := c.GetHeader(github.EventTypeHeader)
	if eventType == "" {
		eventType = pullRequestEvent
	}
	if eventType != pullRequestEvent {
		logger.WithField("event", eventType).Debug("Ignoring webhook event")
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	parsed, err := github.ParseWebHook(eventType, middleware.GetWebhookPayload(c))
	if err != nil {
		logger.WithError(err).Warn("Failed to decode pull request event")
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	event, ok := parsed.(*github.PullRequestEvent)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	accepted, err := h.voteService.HandlePullRequestEvent(event)
	if err != nil {
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			logger.WithField("missing", validationErr.Missing).Warn("Pull request event failed validation")
		} else {
			logger.WithError(err).Error("Failed to ingest pull request event")
		}
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	if !accepted {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}
