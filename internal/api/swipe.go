package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/roomate/internal/middleware"
	"github.com/oggyb/roomate/internal/service/match"
)

type SwipeHandler struct {
	svc *match.Service
}

func NewSwipeHandler(svc *match.Service) *SwipeHandler {
	return &SwipeHandler{svc: svc}
}

type createSwipeRequest struct {
	SwipedID string `json:"swiped_id"`
	Action   string `json:"action"`
}

// Create handles POST /v1/swipes
func (h *SwipeHandler) Create(c *gin.Context) {
	var req createSwipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	res, err := h.svc.RecordSwipe(c.Request.Context(), middleware.GetUserID(c), req.SwipedID, req.Action)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Undo handles DELETE /v1/swipes/:swipedId
func (h *SwipeHandler) Undo(c *gin.Context) {
	if err := h.svc.UndoSwipe(c.Request.Context(), middleware.GetUserID(c), c.Param("swipedId")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Reconsider handles POST /v1/swipes/:swipedId/reconsider
func (h *SwipeHandler) Reconsider(c *gin.Context) {
	res, err := h.svc.ReconsiderPass(c.Request.Context(), middleware.GetUserID(c), c.Param("swipedId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListPassed handles GET /v1/swipes/passed
func (h *SwipeHandler) ListPassed(c *gin.Context) {
	profiles, err := h.svc.ListPassed(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": profiles})
}
