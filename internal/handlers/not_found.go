package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NotFound handles 404 errors for non-existent routes
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"error": "not found",
		"path":  c.Request.URL.Path,
	})
}
