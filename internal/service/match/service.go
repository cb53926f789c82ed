package match

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/oggyb/roomate/internal/app"
	"github.com/oggyb/roomate/internal/db"
	svcErr "github.com/oggyb/roomate/internal/errors"
	"github.com/oggyb/roomate/internal/repository"
	"github.com/oggyb/roomate/internal/utils/pagination"
)

// notifyTimeout bounds a single background match notification.
const notifyTimeout = 10 * time.Second

// MaxUserIDLength matches the width of the user id columns.
const MaxUserIDLength = 64

// Service implements swiping, matching and the message quota gate on top
// of the repository and cache layers. Both the HTTP and gRPC transports
// call into it.
type Service struct {
	appCtx   *app.AppContext
	swipes   *repository.SwipeRepository
	matches  *repository.MatchRepository
	messages *repository.MessageRepository
	profiles *repository.ProfileRepository
	users    *repository.UserRepository

	notifications sync.WaitGroup
}

// NewService creates a match service with dependencies from AppContext.
// Dependencies include:
//   - DB connection (via the swipe, match, message, profile and user repositories)
//   - RedisCache for profile lookups and identity registration (optional)
//   - Notifier for newly created matches
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		swipes:   repository.NewSwipeRepository(appCtx.DB),
		matches:  repository.NewMatchRepository(appCtx.DB),
		messages: repository.NewMessageRepository(appCtx.DB),
		profiles: repository.NewProfileRepository(appCtx.DB),
		users:    repository.NewUserRepository(appCtx.DB),
	}
}

// SwipeResult is the outcome of RecordSwipe.
type SwipeResult struct {
	Created bool   `json:"success"`
	Matched bool   `json:"matched"`
	MatchID string `json:"match_id,omitempty"`
}

// CandidatePage is one page of browseable profiles.
type CandidatePage struct {
	Profiles []db.Profile `json:"profiles"`
	Total    int64        `json:"total"`
	Page     int          `json:"page"`
	Limit    int          `json:"limit"`
}

// MatchSummary is a match as seen by one of its participants.
type MatchSummary struct {
	db.Match
	Profile        *db.Profile `json:"profile"`
	LastMessage    *db.Message `json:"last_message"`
	MyMessageCount int         `json:"my_message_count"`
}

// RecordSwipe stores swiperID's decision on swipedID and forms a match on
// mutual interest.
//
// Behavior:
//   - Validates caller, target and action before writing anything.
//   - A second decision on the same pair fails with DuplicateSwipe.
//   - On "interested", checks for the reciprocal interest and inserts the
//     canonical match if absent. Concurrent reciprocal swipes produce one
//     match; both callers report it.
//   - Only the caller that created the match triggers the notifier, in the
//     background. Notification errors are logged, never returned.
//
// Example:
//
//	res, err := svc.RecordSwipe(ctx, "user-a", "user-b", db.ActionInterested)
func (s *Service) RecordSwipe(ctx context.Context, swiperID, swipedID, action string) (*SwipeResult, error) {
	s.appCtx.Logger.Debug("RecordSwipe called", "swiper", swiperID, "swiped", swipedID, "action", action)

	if swiperID == "" {
		return nil, svcErr.Unauthorized("authentication required")
	}
	swipedID = strings.TrimSpace(swipedID)
	if swipedID == "" {
		return nil, svcErr.InvalidArgument("swiped_id is required")
	}
	if utf8.RuneCountInString(swipedID) > MaxUserIDLength {
		return nil, svcErr.InvalidArgument(fmt.Sprintf("swiped_id too long (max %d characters)", MaxUserIDLength))
	}
	if swiperID == swipedID {
		return nil, svcErr.InvalidArgument("cannot swipe on yourself")
	}
	if action != db.ActionInterested && action != db.ActionPass {
		return nil, svcErr.InvalidArgument("action must be 'interested' or 'pass'")
	}

	if err := s.swipes.Create(ctx, swiperID, swipedID, action); err != nil {
		if svcErr.Is(err, svcErr.KindDuplicateSwipe) {
			return nil, err
		}
		s.appCtx.Logger.Error("failed to record swipe", "swiper", swiperID, "swiped", swipedID, "err", err)
		return nil, fmt.Errorf("record swipe: %w", err)
	}

	result := &SwipeResult{Created: true}
	if action != db.ActionInterested {
		return result, nil
	}

	mutual, err := s.swipes.HasInterest(ctx, swipedID, swiperID)
	if err != nil {
		s.appCtx.Logger.Error("failed to check reciprocal swipe", "swiper", swiperID, "swiped", swipedID, "err", err)
		return nil, fmt.Errorf("check reciprocal swipe: %w", err)
	}
	if !mutual {
		return result, nil
	}

	match, created, err := s.matches.CreateIfAbsent(ctx, swiperID, swipedID)
	if err != nil {
		s.appCtx.Logger.Error("failed to create match", "swiper", swiperID, "swiped", swipedID, "err", err)
		return nil, fmt.Errorf("create match: %w", err)
	}
	result.Matched = true
	result.MatchID = match.ID

	if created {
		s.appCtx.Logger.Info("match created", "match_id", match.ID)
		s.notifyMatch(ctx, swiperID, swipedID)
	}
	return result, nil
}

// notifyMatch runs the notifier detached from the request so a client
// disconnect does not cancel it.
func (s *Service) notifyMatch(ctx context.Context, userA, userB string) {
	s.notifications.Add(1)
	go func() {
		defer s.notifications.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()

		if err := s.appCtx.Notifier.MatchCreated(ctx, userA, userB); err != nil {
			s.appCtx.Logger.Warn("match notification failed", "user_a", userA, "user_b", userB, "err", err)
		}
	}()
}

// Wait blocks until in-flight match notifications have finished.
func (s *Service) Wait() {
	s.notifications.Wait()
}

// UndoSwipe deletes swiperID's decision on swipedID if present. A match
// that already formed is left alone.
func (s *Service) UndoSwipe(ctx context.Context, swiperID, swipedID string) error {
	s.appCtx.Logger.Debug("UndoSwipe called", "swiper", swiperID, "swiped", swipedID)

	if swiperID == "" {
		return svcErr.Unauthorized("authentication required")
	}
	swipedID = strings.TrimSpace(swipedID)
	if swipedID == "" {
		return svcErr.InvalidArgument("swiped_id is required")
	}

	if _, err := s.swipes.Delete(ctx, swiperID, swipedID); err != nil {
		s.appCtx.Logger.Error("failed to undo swipe", "swiper", swiperID, "swiped", swipedID, "err", err)
		return fmt.Errorf("undo swipe: %w", err)
	}
	return nil
}

// ReconsiderPass replaces swiperID's earlier decision on swipedID with
// "interested" and reports whether that formed a match.
//
// Example:
//
//	res, err := svc.ReconsiderPass(ctx, "user-a", "user-b")
func (s *Service) ReconsiderPass(ctx context.Context, swiperID, swipedID string) (*SwipeResult, error) {
	if err := s.UndoSwipe(ctx, swiperID, swipedID); err != nil {
		return nil, err
	}
	return s.RecordSwipe(ctx, swiperID, swipedID, db.ActionInterested)
}

// ListCandidates returns a page of active profiles userID has not swiped on.
//
// Behavior:
//   - Excludes userID's own profile and every profile userID decided on.
//   - Applies the optional filters; an invalid enum value or month is
//     rejected with InvalidRequest. A full move-in date is truncated to its month.
//   - Newest profile first.
//
// Example:
//
//	page, err := svc.ListCandidates(ctx, "user-a", repository.CandidateFilter{Location: "seattle"}, pagination.New(1, 20))
func (s *Service) ListCandidates(
	ctx context.Context,
	userID string,
	filter repository.CandidateFilter,
	page pagination.Page,
) (*CandidatePage, error) {
	s.appCtx.Logger.Debug("ListCandidates called", "user", userID, "page", page.Number, "limit", page.Limit)

	if userID == "" {
		return nil, svcErr.Unauthorized("authentication required")
	}
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	page = pagination.New(page.Number, page.Limit)

	profiles, total, err := s.profiles.ListCandidates(ctx, userID, filter, page.Offset(), page.Limit)
	if err != nil {
		s.appCtx.Logger.Error("failed to list candidates", "user", userID, "err", err)
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	return &CandidatePage{
		Profiles: profiles,
		Total:    total,
		Page:     page.Number,
		Limit:    page.Limit,
	}, nil
}

// ListPassed returns the active profiles userID passed on, newest first.
func (s *Service) ListPassed(ctx context.Context, userID string) ([]db.Profile, error) {
	if userID == "" {
		return nil, svcErr.Unauthorized("authentication required")
	}
	profiles, err := s.profiles.ListPassed(ctx, userID)
	if err != nil {
		s.appCtx.Logger.Error("failed to list passed profiles", "user", userID, "err", err)
		return nil, fmt.Errorf("list passed: %w", err)
	}
	return profiles, nil
}

// ListMatches returns every match of userID, newest first, with the other
// participant's profile, the latest message and userID's message count.
//
// Example:
//
//	summaries, err := svc.ListMatches(ctx, "user-a")
func (s *Service) ListMatches(ctx context.Context, userID string) ([]MatchSummary, error) {
	s.appCtx.Logger.Debug("ListMatches called", "user", userID)

	if userID == "" {
		return nil, svcErr.Unauthorized("authentication required")
	}

	matches, err := s.matches.ListForUser(ctx, userID)
	if err != nil {
		s.appCtx.Logger.Error("failed to list matches", "user", userID, "err", err)
		return nil, fmt.Errorf("list matches: %w", err)
	}

	others := make([]string, 0, len(matches))
	for i := range matches {
		others = append(others, matches[i].OtherUserID(userID))
	}
	profiles, err := s.cachedProfiles(ctx, others)
	if err != nil {
		return nil, fmt.Errorf("load match profiles: %w", err)
	}

	summaries := make([]MatchSummary, 0, len(matches))
	for _, m := range matches {
		last, err := s.messages.Latest(ctx, m.ID)
		if err != nil {
			s.appCtx.Logger.Error("failed to load last message", "match_id", m.ID, "err", err)
			return nil, fmt.Errorf("load last message: %w", err)
		}
		summary := MatchSummary{
			Match:          m,
			LastMessage:    last,
			MyMessageCount: m.MessageCountFor(userID),
		}
		if p, ok := profiles[m.OtherUserID(userID)]; ok {
			summary.Profile = &p
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Unmatch deletes a match and its conversation. Only a participant may do
// so; anyone else, or a repeated call, gets NotFound.
func (s *Service) Unmatch(ctx context.Context, matchID, requesterID string) error {
	s.appCtx.Logger.Debug("Unmatch called", "match_id", matchID, "requester", requesterID)

	if requesterID == "" {
		return svcErr.Unauthorized("authentication required")
	}
	if strings.TrimSpace(matchID) == "" {
		return svcErr.InvalidArgument("match_id is required")
	}

	if err := s.matches.DeleteForParticipant(ctx, matchID, requesterID); err != nil {
		if svcErr.Is(err, svcErr.KindNotFound) {
			return err
		}
		s.appCtx.Logger.Error("failed to unmatch", "match_id", matchID, "err", err)
		return fmt.Errorf("unmatch: %w", err)
	}
	s.appCtx.Logger.Info("match removed", "match_id", matchID, "by", requesterID)
	return nil
}

func normalizeFilter(f repository.CandidateFilter) (repository.CandidateFilter, error) {
	f.Location = strings.TrimSpace(f.Location)
	f.Major = strings.TrimSpace(f.Major)

	if f.Gender != "" && !validGender(f.Gender) {
		return f, svcErr.InvalidArgument("invalid gender filter")
	}
	if f.SameGenderPref != "" && !validSameGenderPref(f.SameGenderPref) {
		return f, svcErr.InvalidArgument("invalid same_gender_pref filter")
	}
	if f.JobType != "" && !validJobType(f.JobType) {
		return f, svcErr.InvalidArgument("invalid job_type filter")
	}
	if f.MaxPrice != nil && *f.MaxPrice < 0 {
		return f, svcErr.InvalidArgument("max_price must not be negative")
	}
	if f.MoveInMonth != "" {
		month, ok := moveInMonth(f.MoveInMonth)
		if !ok {
			return f, svcErr.InvalidArgument("move_in_date must be YYYY-MM or YYYY-MM-DD")
		}
		f.MoveInMonth = month
	}
	return f, nil
}

// moveInMonth reduces "YYYY-MM" or "YYYY-MM-DD" to "YYYY-MM".
func moveInMonth(s string) (string, bool) {
	s = strings.TrimSpace(s)
	switch len(s) {
	case len("2006-01"):
		if _, err := time.Parse("2006-01", s); err != nil {
			return "", false
		}
		return s, true
	case len(time.DateOnly):
		if _, err := time.Parse(time.DateOnly, s); err != nil {
			return "", false
		}
		return s[:7], true
	}
	return "", false
}
