package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/oggyb/roomate/internal/db"
	svcErr "github.com/oggyb/roomate/internal/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MatchRepository provides data access for matches.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// CreateIfAbsent inserts the match for the unordered pair {a, b} unless one
// already exists, and returns the stored row.
//
// Behavior:
//   - The pair is canonicalized so {a,b} and {b,a} hit the same unique index.
//   - INSERT ... ON CONFLICT DO NOTHING; no read-then-write window.
//   - created is true only for the caller whose insert landed. Everyone else
//     reads back and returns the winner's row.
//
// Example:
//
//	m, created, err := repo.CreateIfAbsent(ctx, "b", "a")
func (r *MatchRepository) CreateIfAbsent(ctx context.Context, a, b string) (*db.Match, bool, error) {
	u1, u2 := db.CanonicalPair(a, b)
	match := db.Match{
		ID:      uuid.NewString(),
		User1ID: u1,
		User2ID: u2,
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user1_id"}, {Name: "user2_id"}},
			DoNothing: true,
		}).
		Create(&match)
	if res.Error != nil && !isDuplicateKey(res.Error) {
		return nil, false, res.Error
	}
	if res.Error == nil && res.RowsAffected == 1 {
		return &match, true, nil
	}

	existing, err := r.FindByPair(ctx, u1, u2)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, errors.New("match vanished after conflicting insert")
	}
	return existing, false, nil
}

// FindByPair returns the match between a and b in either order, or nil.
func (r *MatchRepository) FindByPair(ctx context.Context, a, b string) (*db.Match, error) {
	u1, u2 := db.CanonicalPair(a, b)
	var match db.Match
	err := r.db.WithContext(ctx).
		Where("user1_id = ? AND user2_id = ?", u1, u2).
		Take(&match).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// FindForParticipant loads a match only if userID is one of its participants.
// Absent and foreign matches both return NotFound so existence never leaks.
func (r *MatchRepository) FindForParticipant(ctx context.Context, matchID, userID string) (*db.Match, error) {
	var match db.Match
	err := r.db.WithContext(ctx).
		Where("id = ? AND (user1_id = ? OR user2_id = ?)", matchID, userID, userID).
		Take(&match).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("match not found")
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// ListForUser returns every match userID participates in, newest first.
func (r *MatchRepository) ListForUser(ctx context.Context, userID string) ([]db.Match, error) {
	matches := make([]db.Match, 0)
	err := r.db.WithContext(ctx).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Find(&matches).Error
	return matches, err
}

// DeleteForParticipant removes a match and all of its messages in one
// transaction.
//
// Behavior:
//   - A non-participant deletes nothing and gets NotFound.
//   - A second call on an already-deleted match also returns NotFound.
//   - Messages are deleted before the match so the FK is never violated,
//     whether or not the store enforces the cascade.
func (r *MatchRepository) DeleteForParticipant(ctx context.Context, matchID, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var match db.Match
		err := tx.Where("id = ? AND (user1_id = ? OR user2_id = ?)", matchID, userID, userID).
			Take(&match).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return svcErr.NotFound("match not found")
		}
		if err != nil {
			return err
		}

		if err := tx.Where("match_id = ?", match.ID).Delete(&db.Message{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", match.ID).Delete(&db.Match{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return svcErr.NotFound("match not found")
		}
		return nil
	})
}
