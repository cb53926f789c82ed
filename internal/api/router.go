package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/oggyb/roomate/internal/bugreport"
	"github.com/oggyb/roomate/internal/config"
	svcErr "github.com/oggyb/roomate/internal/errors"
	"github.com/oggyb/roomate/internal/logger"
	"github.com/oggyb/roomate/internal/middleware"
	"github.com/oggyb/roomate/internal/service/match"
)

// NewRouter wires every /v1 route. Only /v1/health is reachable without a
// bearer token.
func NewRouter(cfg *config.Config, svc *match.Service, reporter *bugreport.Reporter, log *slog.Logger) *gin.Engine {
	if cfg.App.ENV != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.App.URL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/v1/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	swipes := NewSwipeHandler(svc)
	matches := NewMatchHandler(svc)
	profiles := NewProfileHandler(svc)
	bugs := NewBugReportHandler(reporter)

	v1 := r.Group("/v1")
	v1.Use(middleware.Auth(cfg.Auth.JWTSecret, svc))

	v1.GET("/profile", profiles.Get)
	v1.PUT("/profile", profiles.Upsert)
	v1.GET("/profiles", profiles.ListCandidates)

	v1.POST("/swipes", swipes.Create)
	v1.GET("/swipes/passed", swipes.ListPassed)
	v1.DELETE("/swipes/:swipedId", swipes.Undo)
	v1.POST("/swipes/:swipedId/reconsider", swipes.Reconsider)

	v1.GET("/matches", matches.List)
	v1.DELETE("/matches/:id", matches.Unmatch)
	v1.GET("/matches/:id/messages", matches.ListMessages)
	v1.POST("/matches/:id/messages", matches.SendMessage)

	v1.POST("/bug-report", bugs.Create)

	return r
}

// writeError maps err to a status code and a client-safe message. Internal
// causes are logged, not returned.
func writeError(c *gin.Context, err error) {
	if errors.Is(err, bugreport.ErrNotConfigured) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	status, msg := svcErr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context(), nil).Error("request failed",
			"path", c.FullPath(), "err", err)
	}
	c.JSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
