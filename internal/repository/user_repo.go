package repository

import (
	"context"
	"time"

	"github.com/oggyb/roomate/internal/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository mirrors external identities locally.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// Upsert records userID with its current email and bumps last_seen_at.
// An empty email never overwrites a known one.
func (r *UserRepository) Upsert(ctx context.Context, userID, email string) error {
	user := db.User{
		ID:         userID,
		Email:      email,
		LastSeenAt: time.Now().UTC(),
	}
	columns := []string{"last_seen_at", "updated_at"}
	if email != "" {
		columns = append(columns, "email")
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(columns),
		}).
		Create(&user).Error
}

// GetByIDs returns the known users keyed by ID.
func (r *UserRepository) GetByIDs(ctx context.Context, ids []string) (map[string]db.User, error) {
	out := make(map[string]db.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []db.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}
