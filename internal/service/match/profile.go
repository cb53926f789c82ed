package match

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/copier"
	"gorm.io/datatypes"

	"github.com/oggyb/roomate/internal/cache"
	"github.com/oggyb/roomate/internal/db"
	svcErr "github.com/oggyb/roomate/internal/errors"
)

const (
	minAge = 16
	maxAge = 120
)

// ProfileInput is the editable part of a profile.
type ProfileInput struct {
	Name           string   `json:"name"`
	Age            int      `json:"age"`
	Major          *string  `json:"major"`
	Gender         *string  `json:"gender"`
	Location       string   `json:"location"`
	Region         *string  `json:"region"`
	SameGenderPref string   `json:"same_gender_pref"`
	MaxPrice       *int     `json:"max_price"`
	MoveInDate     *string  `json:"move_in_date"`
	JobType        *string  `json:"job_type"`
	Bio            *string  `json:"bio"`
	ContactInfo    *string  `json:"contact_info"`
	PhotoURLs      []string `json:"photo_urls" copier:"-"`
	IsActive       *bool    `json:"is_active" copier:"-"`
}

// GetProfile returns userID's profile, or nil if they have not created one.
func (s *Service) GetProfile(ctx context.Context, userID string) (*db.Profile, error) {
	if userID == "" {
		return nil, svcErr.Unauthorized("authentication required")
	}
	profiles, err := s.cachedProfiles(ctx, []string{userID})
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if p, ok := profiles[userID]; ok {
		return &p, nil
	}
	return nil, nil
}

// UpsertProfile validates in and creates or replaces userID's profile.
//
// Behavior:
//   - Strings are trimmed; empty optional fields are stored as NULL.
//   - same_gender_pref defaults to "no_preference", is_active to true.
//   - The cached copy of the profile is dropped after a successful write.
//
// Example:
//
//	p, err := svc.UpsertProfile(ctx, "user-a", match.ProfileInput{Name: "Ana", Age: 20, Location: "Seattle"})
func (s *Service) UpsertProfile(ctx context.Context, userID string, in ProfileInput) (*db.Profile, error) {
	s.appCtx.Logger.Debug("UpsertProfile called", "user", userID)

	if userID == "" {
		return nil, svcErr.Unauthorized("authentication required")
	}
	in = normalizeInput(in)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	profile := db.Profile{UserID: userID, IsActive: true}
	if err := copier.Copy(&profile, &in); err != nil {
		return nil, fmt.Errorf("map profile input: %w", err)
	}
	profile.PhotoURLs = append(datatypes.JSONSlice[string]{}, in.PhotoURLs...)
	if in.IsActive != nil {
		profile.IsActive = *in.IsActive
	}

	saved, err := s.profiles.Upsert(ctx, &profile)
	if err != nil {
		s.appCtx.Logger.Error("failed to upsert profile", "user", userID, "err", err)
		return nil, fmt.Errorf("upsert profile: %w", err)
	}

	if rc := s.appCtx.RedisCache; rc != nil {
		if err := rc.Del(ctx, rc.KeyForProfile(userID)); err != nil {
			s.appCtx.Logger.Warn("failed to invalidate profile cache", "user", userID, "err", err)
		}
	}
	return saved, nil
}

// cachedProfiles loads profiles cache-aside. Cache errors degrade to the
// database; users without a profile are absent from the result.
func (s *Service) cachedProfiles(ctx context.Context, userIDs []string) (map[string]db.Profile, error) {
	out := make(map[string]db.Profile, len(userIDs))
	rc := s.appCtx.RedisCache

	missing := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if _, seen := out[id]; seen {
			continue
		}
		if rc != nil {
			var p db.Profile
			hit, err := rc.GetJSON(ctx, rc.KeyForProfile(id), &p)
			if err != nil {
				s.appCtx.Logger.Debug("profile cache read failed", "user", id, "err", err)
			}
			if hit {
				out[id] = p
				continue
			}
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}

	loaded, err := s.profiles.GetByUserIDs(ctx, missing)
	if err != nil {
		s.appCtx.Logger.Error("failed to load profiles", "count", len(missing), "err", err)
		return nil, err
	}
	for id, p := range loaded {
		out[id] = p
		if rc != nil {
			if err := rc.SetJSON(ctx, rc.KeyForProfile(id), p, cache.DefaultTTL); err != nil {
				s.appCtx.Logger.Debug("profile cache write failed", "user", id, "err", err)
			}
		}
	}
	return out, nil
}

func normalizeInput(in ProfileInput) ProfileInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Location = strings.TrimSpace(in.Location)
	in.SameGenderPref = strings.TrimSpace(in.SameGenderPref)
	if in.SameGenderPref == "" {
		in.SameGenderPref = db.SameGenderNoPreference
	}
	for _, p := range []**string{&in.Major, &in.Gender, &in.Region, &in.MoveInDate, &in.JobType, &in.Bio, &in.ContactInfo} {
		*p = trimOptional(*p)
	}

	urls := make([]string, 0, len(in.PhotoURLs))
	for _, u := range in.PhotoURLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	in.PhotoURLs = urls
	return in
}

func validateInput(in ProfileInput) error {
	switch {
	case in.Name == "":
		return svcErr.InvalidArgument("name is required")
	case in.Age < minAge || in.Age > maxAge:
		return svcErr.InvalidArgument(fmt.Sprintf("age must be between %d and %d", minAge, maxAge))
	case in.Location == "":
		return svcErr.InvalidArgument("location is required")
	case in.Gender != nil && !validGender(*in.Gender):
		return svcErr.InvalidArgument("invalid gender")
	case !validSameGenderPref(in.SameGenderPref):
		return svcErr.InvalidArgument("invalid same_gender_pref")
	case in.JobType != nil && !validJobType(*in.JobType):
		return svcErr.InvalidArgument("invalid job_type")
	case in.MaxPrice != nil && *in.MaxPrice < 0:
		return svcErr.InvalidArgument("max_price must not be negative")
	}
	if in.MoveInDate != nil {
		if _, err := time.Parse(time.DateOnly, *in.MoveInDate); err != nil {
			return svcErr.InvalidArgument("move_in_date must be YYYY-MM-DD")
		}
	}
	return nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func validGender(g string) bool {
	switch g {
	case db.GenderMale, db.GenderFemale, db.GenderNonBinary, db.GenderOther:
		return true
	}
	return false
}

func validSameGenderPref(p string) bool {
	switch p {
	case db.SameGenderYes, db.SameGenderNo, db.SameGenderNoPreference:
		return true
	}
	return false
}

func validJobType(j string) bool {
	return j == db.JobInternship || j == db.JobFullTime
}
