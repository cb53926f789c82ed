package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/roomate/internal/middleware"
	"github.com/oggyb/roomate/internal/repository"
	"github.com/oggyb/roomate/internal/service/match"
	"github.com/oggyb/roomate/internal/utils/pagination"
)

type ProfileHandler struct {
	svc *match.Service
}

func NewProfileHandler(svc *match.Service) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// Get handles GET /v1/profile. The profile is null until the user creates one.
func (h *ProfileHandler) Get(c *gin.Context) {
	p, err := h.svc.GetProfile(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": p})
}

// Upsert handles PUT /v1/profile
func (h *ProfileHandler) Upsert(c *gin.Context) {
	var in match.ProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	p, err := h.svc.UpsertProfile(c.Request.Context(), middleware.GetUserID(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": p})
}

// ListCandidates handles
// GET /v1/profiles?location=&gender=&max_price=&major=&same_gender_pref=&job_type=&move_in_date=&page=&limit=
func (h *ProfileHandler) ListCandidates(c *gin.Context) {
	page, err := pagination.Parse(c.Query("page"), c.Query("limit"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	filter := repository.CandidateFilter{
		Location:       c.Query("location"),
		Gender:         c.Query("gender"),
		Major:          c.Query("major"),
		SameGenderPref: c.Query("same_gender_pref"),
		JobType:        c.Query("job_type"),
		MoveInMonth:    c.Query("move_in_date"),
	}
	if s := strings.TrimSpace(c.Query("max_price")); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			badRequest(c, "invalid max_price parameter")
			return
		}
		filter.MaxPrice = &v
	}

	res, err := h.svc.ListCandidates(c.Request.Context(), middleware.GetUserID(c), filter, page)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
