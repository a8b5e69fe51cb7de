package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/alimgiray/gitlucky/internal/models"
	"github.com/alimgiray/gitlucky/internal/services"
	"github.com/gin-gonic/gin"
)

// maxVoteBytes bounds a vote body, which is a key and a direction
const maxVoteBytes = 4 << 10

type VoteHandler struct {
	voteService *services.VoteService
}

func NewVoteHandler(voteService *services.VoteService) *VoteHandler {
	return &VoteHandler{voteService: voteService}
}

// voteRequest accepts either ["<key>", "Left"] or {"key": ..., "direction": ...}
type voteRequest struct {
	Key       string `json:"key"`
	Direction string `json:"direction"`
}

func (v *voteRequest) UnmarshalJSON(data []byte) error {
	var tuple []string
	if err := json.Unmarshal(data, &tuple); err == nil {
		if len(tuple) != 2 {
			return errors.New("vote must be [key, direction]")
		}
		v.Key, v.Direction = tuple[0], tuple[1]
		return nil
	}

	type plain voteRequest
	var obj plain
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*v = voteRequest(obj)
	return nil
}

// Cast counts one vote. A vote for a pull request that is no longer under
// vote is still answered with 200.
func (h *VoteHandler) Cast(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxVoteBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "vote too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read body"})
		return
	}

	var req voteRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vote: " + err.Error()})
		return
	}
	if req.Key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key is required"})
		return
	}
	direction, err := models.ParseDirection(req.Direction)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	counted := h.voteService.CastVote(req.Key, direction)
	c.JSON(http.StatusOK, gin.H{"counted": counted})
}
