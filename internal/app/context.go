package app

import (
	"log/slog"

	"github.com/oggyb/roomate/internal/cache"
	"github.com/oggyb/roomate/internal/notify"
	"gorm.io/gorm"
)

// AppContext holds shared dependencies (DB, Redis, Notifier, Logger)
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Notifier   notify.Notifier
	Logger     *slog.Logger
}

// New creates a new AppContext. A nil notifier disables match notifications.
func New(db *gorm.DB, rdb *cache.RedisCache, notifier notify.Notifier, logger *slog.Logger) *AppContext {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &AppContext{
		DB:         db,
		RedisCache: rdb,
		Notifier:   notifier,
		Logger:     logger,
	}
}
