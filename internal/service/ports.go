package service

import (
	"context"
	"time"

	"github.com/JaiminPatel345/Abhinavam-sub000/internal/models"
)

// ConversationStore is the durable store of participant sets and lastMessage
// pointers.
type ConversationStore interface {
	Insert(ctx context.Context, c *models.Conversation) error
	FindByID(ctx context.Context, id string) (*models.Conversation, error)
	FindDirectByKey(ctx context.Context, key string) (*models.Conversation, error)
	ListForUser(ctx context.Context, userID string, offset, limit int64) ([]*models.Conversation, error)
}

// MessageStore is the durable store of messages and their read/delete
// annotations. CreateWithLastMessage and TombstoneForEveryone are atomic
// across the message and its owning conversation.
type MessageStore interface {
	CreateWithLastMessage(ctx context.Context, m *models.Message) error
	FindByID(ctx context.Context, id string) (*models.Message, error)
	ListVisible(ctx context.Context, conversationID, userID string, offset, limit int64) ([]*models.Message, error)
	CountUnread(ctx context.Context, conversationID, userID string) (int64, error)
	AddReadReceipt(ctx context.Context, messageID, userID string, at time.Time) (bool, error)
	AddDeleteMark(ctx context.Context, messageID, userID string, at time.Time) (bool, error)
	TombstoneForEveryone(ctx context.Context, m *models.Message) error
}

// EventPublisher emits conversation events for downstream consumers. A nil
// publisher disables events.
type EventPublisher interface {
	MessageCreated(ctx context.Context, conversationID string, m *models.Message)
	MessageDeleted(ctx context.Context, conversationID, messageID string)
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// pageToOffset normalizes 1-based page/limit into skip/limit.
func pageToOffset(page, limit int) (int64, int64) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return int64(page-1) * int64(limit), int64(limit)
}
