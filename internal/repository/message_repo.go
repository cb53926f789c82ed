package repository

import (
	"context"
	"fmt"

	"github.com/oggyb/roomate/internal/db"
	svcErr "github.com/oggyb/roomate/internal/errors"

	"gorm.io/gorm"
)

// MessageRepository provides data access for chat messages.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new repository bound to the given DB connection.
func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

// CreateWithinQuota stores a message from senderID unless the sender has
// already sent limit messages in the match.
//
// Behavior:
//   - One transaction: bump the sender's counter on the match row with
//     `UPDATE ... WHERE id = ? AND <counter> < limit`, then insert.
//   - The conditional update holds the match row lock until commit, so
//     concurrent sends from the same sender are serialized and the counter
//     can never pass limit.
//   - Zero rows updated means QuotaExceeded, or NotFound if the match was
//     deleted in the meantime.
//
// Example:
//
//	msg, err := repo.CreateWithinQuota(ctx, match, "a", "hey!", 10)
func (r *MessageRepository) CreateWithinQuota(
	ctx context.Context,
	match *db.Match,
	senderID, content string,
	limit int,
) (*db.Message, error) {
	var column string
	switch senderID {
	case match.User1ID:
		column = "user1_message_count"
	case match.User2ID:
		column = "user2_message_count"
	default:
		return nil, svcErr.NotFound("match not found")
	}

	msg := db.Message{
		MatchID:  match.ID,
		SenderID: senderID,
		Content:  content,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&db.Match{}).
			Where("id = ? AND "+column+" < ?", match.ID, limit).
			UpdateColumn(column, gorm.Expr(column+" + 1"))
		if res.Error != nil {
			return fmt.Errorf("failed to reserve message slot: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			var exists int64
			if err := tx.Model(&db.Match{}).Where("id = ?", match.ID).Count(&exists).Error; err != nil {
				return err
			}
			if exists == 0 {
				return svcErr.NotFound("match not found")
			}
			return svcErr.QuotaExceeded(fmt.Sprintf("you have reached the %d-message limit for this match", limit))
		}
		return tx.Create(&msg).Error
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListByMatch returns all messages of a match in creation order.
func (r *MessageRepository) ListByMatch(ctx context.Context, matchID string) ([]db.Message, error) {
	messages := make([]db.Message, 0)
	err := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("id ASC").
		Find(&messages).Error
	return messages, err
}

// Latest returns the newest message of a match, or nil for an empty conversation.
func (r *MessageRepository) Latest(ctx context.Context, matchID string) (*db.Message, error) {
	var messages []db.Message
	err := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("id DESC").
		Limit(1).
		Find(&messages).Error
	if err != nil || len(messages) == 0 {
		return nil, err
	}
	return &messages[0], nil
}

// CountBySender counts the messages senderID wrote in a match.
func (r *MessageRepository) CountBySender(ctx context.Context, matchID, senderID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("match_id = ? AND sender_id = ?", matchID, senderID).
		Count(&count).Error
	return count, err
}
