package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/oggyb/roomate/internal/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CandidateFilter narrows the browse list. Zero values mean "no filter".
type CandidateFilter struct {
	Location       string // case-insensitive substring
	Gender         string
	MaxPrice       *int // profile.max_price <= MaxPrice
	Major          string // case-insensitive substring
	SameGenderPref string
	JobType        string
	MoveInMonth    string // YYYY-MM
}

// ProfileRepository provides data access for profiles.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new repository bound to the given DB connection.
func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// GetByUserID returns the profile of userID, or nil when none exists yet.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*db.Profile, error) {
	var profile db.Profile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetByUserIDs returns the profiles of the given users keyed by user ID.
// Users without a profile are absent from the map.
func (r *ProfileRepository) GetByUserIDs(ctx context.Context, userIDs []string) (map[string]db.Profile, error) {
	out := make(map[string]db.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var profiles []db.Profile
	if err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&profiles).Error; err != nil {
		return nil, err
	}
	for _, p := range profiles {
		out[p.UserID] = p
	}
	return out, nil
}

// Upsert creates or replaces the profile keyed by p.UserID and returns the
// stored row.
func (r *ProfileRepository) Upsert(ctx context.Context, p *db.Profile) (*db.Profile, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "age", "major", "gender", "location", "region", "same_gender_pref",
				"max_price", "move_in_date", "job_type", "bio", "contact_info", "photo_urls",
				"is_active", "updated_at",
			}),
		}).
		Create(p).Error
	if err != nil {
		return nil, err
	}
	return r.GetByUserID(ctx, p.UserID)
}

// ListCandidates returns active profiles userID has not swiped on yet.
//
// Behavior:
//   - Excludes userID itself and every user userID has a decision on
//     (interested or pass). Other users' swipes on userID do not matter.
//   - Applies the optional filters in f.
//   - Ordered by created_at DESC, id DESC (newest profiles first).
//   - Offset pagination; total counts all matching rows.
//
// Example:
//
//	repo.ListCandidates(ctx, "a", CandidateFilter{Gender: "female"}, 0, 20)
func (r *ProfileRepository) ListCandidates(
	ctx context.Context,
	userID string,
	f CandidateFilter,
	offset, limit int,
) ([]db.Profile, int64, error) {
	swiped := r.db.Model(&db.Swipe{}).Select("swiped_id").Where("swiper_id = ?", userID)

	query := r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("is_active = ?", true).
		Where("user_id <> ?", userID).
		Where("user_id NOT IN (?)", swiped)

	if f.Location != "" {
		query = query.Where("LOWER(location) LIKE ?", "%"+strings.ToLower(f.Location)+"%")
	}
	if f.Gender != "" {
		query = query.Where("gender = ?", f.Gender)
	}
	if f.MaxPrice != nil {
		query = query.Where("max_price <= ?", *f.MaxPrice)
	}
	if f.Major != "" {
		query = query.Where("LOWER(major) LIKE ?", "%"+strings.ToLower(f.Major)+"%")
	}
	if f.SameGenderPref != "" {
		query = query.Where("same_gender_pref = ?", f.SameGenderPref)
	}
	if f.JobType != "" {
		query = query.Where("job_type = ?", f.JobType)
	}
	if f.MoveInMonth != "" {
		query = query.Where("move_in_date LIKE ?", f.MoveInMonth+"%")
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	profiles := make([]db.Profile, 0, limit)
	err := query.
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&profiles).Error
	if err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}

// ListPassed returns the active profiles userID passed on, newest first.
// These are the profiles a user may reconsider.
func (r *ProfileRepository) ListPassed(ctx context.Context, userID string) ([]db.Profile, error) {
	passed := r.db.Model(&db.Swipe{}).
		Select("swiped_id").
		Where("swiper_id = ? AND action = ?", userID, db.ActionPass)

	profiles := make([]db.Profile, 0)
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("user_id IN (?)", passed).
		Order("created_at DESC, id DESC").
		Find(&profiles).Error
	return profiles, err
}
