package match

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/oggyb/roomate/internal/db"
	svcErr "github.com/oggyb/roomate/internal/errors"
)

const (
	// MessageLimit is how many messages each participant may send per match.
	MessageLimit = 10
	// MaxContentLength is the longest message, in characters, after trimming.
	MaxContentLength = 1000
)

// Conversation is a match's message history as seen by one participant.
type Conversation struct {
	Messages       []db.Message `json:"messages"`
	MyMessageCount int          `json:"my_message_count"`
	Match          *db.Match    `json:"match"`
	Profile        *db.Profile  `json:"profile"`
}

// SendMessage stores a chat message from senderID in matchID.
//
// Behavior:
//   - Content is trimmed and must be 1..MaxContentLength characters.
//   - A sender outside the match, or a missing match, gets NotFound.
//   - The sender's counter is bumped and the message inserted atomically;
//     the (MessageLimit+1)th send fails with QuotaExceeded, also under
//     concurrent sends.
//
// Example:
//
//	msg, err := svc.SendMessage(ctx, matchID, "user-a", "hey, still looking?")
func (s *Service) SendMessage(ctx context.Context, matchID, senderID, content string) (*db.Message, error) {
	s.appCtx.Logger.Debug("SendMessage called", "match_id", matchID, "sender", senderID)

	if senderID == "" {
		return nil, svcErr.Unauthorized("authentication required")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, svcErr.InvalidArgument("message cannot be empty")
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return nil, svcErr.InvalidArgument(fmt.Sprintf("message too long (max %d characters)", MaxContentLength))
	}

	match, err := s.matches.FindForParticipant(ctx, matchID, senderID)
	if err != nil {
		return nil, s.classify(err, "failed to load match", "match_id", matchID)
	}

	msg, err := s.messages.CreateWithinQuota(ctx, match, senderID, content, MessageLimit)
	if err != nil {
		return nil, s.classify(err, "failed to send message", "match_id", matchID)
	}
	return msg, nil
}

// ListMessages returns the conversation of matchID in send order, together
// with the requester's message count and the other participant's profile.
//
// Example:
//
//	conv, err := svc.ListMessages(ctx, matchID, "user-a")
func (s *Service) ListMessages(ctx context.Context, matchID, requesterID string) (*Conversation, error) {
	s.appCtx.Logger.Debug("ListMessages called", "match_id", matchID, "requester", requesterID)

	if requesterID == "" {
		return nil, svcErr.Unauthorized("authentication required")
	}

	match, err := s.matches.FindForParticipant(ctx, matchID, requesterID)
	if err != nil {
		return nil, s.classify(err, "failed to load match", "match_id", matchID)
	}

	messages, err := s.messages.ListByMatch(ctx, match.ID)
	if err != nil {
		return nil, s.classify(err, "failed to list messages", "match_id", matchID)
	}

	other := match.OtherUserID(requesterID)
	profiles, err := s.cachedProfiles(ctx, []string{other})
	if err != nil {
		return nil, fmt.Errorf("load match profile: %w", err)
	}

	conv := &Conversation{
		Messages:       messages,
		MyMessageCount: match.MessageCountFor(requesterID),
		Match:          match,
	}
	if p, ok := profiles[other]; ok {
		conv.Profile = &p
	}
	return conv, nil
}

// classify passes classified errors through and logs and wraps the rest.
func (s *Service) classify(err error, msg string, args ...any) error {
	if svcErr.KindOf(err) != svcErr.KindInternal {
		return err
	}
	s.appCtx.Logger.Error(msg, append(args, "err", err)...)
	return fmt.Errorf("%s: %w", msg, err)
}
