package match

import (
	"context"
	"fmt"
	"time"

	"github.com/oggyb/roomate/internal/auth"
	svcErr "github.com/oggyb/roomate/internal/errors"
)

// seenTTL is how long an identity counts as registered before the next
// request refreshes the local user row.
const seenTTL = time.Hour

// RegisterIdentity mirrors the caller's identity into the users table so
// notifications can find an email address.
//
// Behavior:
//   - Redis SETNX on user:seen:<id> dedupes writes to once per seenTTL.
//   - If Redis is unavailable the row is upserted anyway.
//   - A failed upsert clears the marker so the next request retries.
func (s *Service) RegisterIdentity(ctx context.Context, id auth.Identity) error {
	if id.UserID == "" {
		return svcErr.Unauthorized("authentication required")
	}

	rc := s.appCtx.RedisCache
	if rc != nil {
		fresh, err := rc.MarkSeen(ctx, id.UserID, seenTTL)
		if err == nil && !fresh {
			return nil
		}
		if err != nil {
			s.appCtx.Logger.Debug("seen marker unavailable", "user", id.UserID, "err", err)
		}
	}

	if err := s.users.Upsert(ctx, id.UserID, id.Email); err != nil {
		if rc != nil {
			_ = rc.Del(ctx, rc.KeyForSeenUser(id.UserID))
		}
		s.appCtx.Logger.Error("failed to register identity", "user", id.UserID, "err", err)
		return fmt.Errorf("register identity: %w", err)
	}
	return nil
}
