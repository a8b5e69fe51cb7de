package middleware

import (
	"errors"
	"io"
	"net/http"

	"github.com/alimgiray/gitlucky/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/go-github/v57/github"
)

const webhookPayloadKey = "webhook_payload"

// MaxWebhookPayloadBytes is the largest payload GitHub delivers
const MaxWebhookPayloadBytes = 25 << 20

// WebhookPayload reads the webhook body and, when secret is set, verifies the
// X-Hub-Signature-256 header against it. The verified payload is stored on
// the context for the handler. Bodies over MaxWebhookPayloadBytes get 413.
func WebhookPayload(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload []byte
		var err error

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxWebhookPayloadBytes)

		if secret == "" {
			payload, err = io.ReadAll(c.Request.Body)
		} else {
			payload, err = github.ValidatePayload(c.Request, []byte(secret))
		}
		if err != nil {
			logger.WithError(err).WithField("event", c.GetHeader(github.EventTypeHeader)).Warn("Rejected webhook delivery")
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "webhook payload too large"})
				return
			}
			status := http.StatusBadRequest
			if secret != "" {
				status = http.StatusUnauthorized
			}
			c.AbortWithStatusJSON(status, gin.H{"error": "invalid webhook payload"})
			return
		}

		c.Set(webhookPayloadKey, payload)
		c.Next()
	}
}

// GetWebhookPayload returns the payload stored by WebhookPayload
func GetWebhookPayload(c *gin.Context) []byte {
	payload, exists := c.Get(webhookPayloadKey)
	if !exists {
		return nil
	}
	if data, ok := payload.([]byte); ok {
		return data
	}
	return nil
}
