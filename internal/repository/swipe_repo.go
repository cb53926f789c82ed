package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/oggyb/roomate/internal/db"
	svcErr "github.com/oggyb/roomate/internal/errors"

	"gorm.io/gorm"
)

// SwipeRepository provides data access for swipe decisions.
type SwipeRepository struct {
	db *gorm.DB
}

// NewSwipeRepository creates a new repository bound to the given DB connection.
func NewSwipeRepository(database *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: database}
}

// Create records swiper's decision about swiped.
//
// Behavior:
//   - Plain INSERT; the (swiper_id, swiped_id) primary key rejects a second
//     decision for the same ordered pair.
//   - A duplicate returns a DuplicateSwipe error; the stored decision is
//     never overwritten.
//
// Example:
//
//	repo.Create(ctx, "a", "b", db.ActionInterested) // a is interested in b
func (r *SwipeRepository) Create(ctx context.Context, swiperID, swipedID, action string) error {
	swipe := db.Swipe{
		SwiperID: swiperID,
		SwipedID: swipedID,
		Action:   action,
	}
	err := r.db.WithContext(ctx).Create(&swipe).Error
	if isDuplicateKey(err) {
		return svcErr.DuplicateSwipe("already swiped on this user")
	}
	return err
}

// Delete removes swiper's decision about swiped. Deleting a missing
// decision is not an error.
func (r *SwipeRepository) Delete(ctx context.Context, swiperID, swipedID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("swiper_id = ? AND swiped_id = ?", swiperID, swipedID).
		Delete(&db.Swipe{})
	return res.RowsAffected > 0, res.Error
}

// HasInterest reports whether actor has an "interested" decision on target.
// Used for the reciprocal check after an interested swipe.
func (r *SwipeRepository) HasInterest(ctx context.Context, actorID, targetID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("swiper_id = ? AND swiped_id = ? AND action = ?", actorID, targetID, db.ActionInterested).
		Count(&count).Error
	return count > 0, err
}

// Get returns the decision for the ordered pair, or nil when none exists.
func (r *SwipeRepository) Get(ctx context.Context, swiperID, swipedID string) (*db.Swipe, error) {
	var swipe db.Swipe
	err := r.db.WithContext(ctx).
		Where("swiper_id = ? AND swiped_id = ?", swiperID, swipedID).
		Take(&swipe).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &swipe, nil
}

// isDuplicateKey recognizes unique-key violations. TranslateError covers the
// configured drivers; the message checks catch connections opened without it.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value")
}
