package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/roomate/internal/middleware"
	"github.com/oggyb/roomate/internal/service/match"
)

type MatchHandler struct {
	svc *match.Service
}

func NewMatchHandler(svc *match.Service) *MatchHandler {
	return &MatchHandler{svc: svc}
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

// List handles GET /v1/matches
func (h *MatchHandler) List(c *gin.Context) {
	matches, err := h.svc.ListMatches(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

// Unmatch handles DELETE /v1/matches/:id
func (h *MatchHandler) Unmatch(c *gin.Context) {
	if err := h.svc.Unmatch(c.Request.Context(), c.Param("id"), middleware.GetUserID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListMessages handles GET /v1/matches/:id/messages
func (h *MatchHandler) ListMessages(c *gin.Context) {
	conv, err := h.svc.ListMessages(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// SendMessage handles POST /v1/matches/:id/messages
func (h *MatchHandler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	msg, err := h.svc.SendMessage(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), req.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}
