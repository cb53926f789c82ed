package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/roomate/internal/bugreport"
	"github.com/oggyb/roomate/internal/middleware"
)

type BugReportHandler struct {
	reporter *bugreport.Reporter
}

func NewBugReportHandler(reporter *bugreport.Reporter) *BugReportHandler {
	return &BugReportHandler{reporter: reporter}
}

type bugReportRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Create handles POST /v1/bug-report
func (h *BugReportHandler) Create(c *gin.Context) {
	var req bugReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	issue, err := h.reporter.Report(c.Request.Context(), middleware.GetEmail(c), req.Title, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "issue_url": issue.URL})
}
