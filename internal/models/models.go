package models

import (
	"sort"
	"strings"
	"time"
)

// Conversation is a durable record of a participant set exchanging messages,
// either direct (exactly two parties) or group (n parties with a named admin).
type Conversation struct {
	ID            string    `bson:"_id" json:"id"`
	Participants  []string  `bson:"participants" json:"participants"`
	IsGroup       bool      `bson:"is_group" json:"is_group"`
	GroupName     string    `bson:"group_name,omitempty" json:"group_name,omitempty"`
	GroupAdmin    string    `bson:"group_admin,omitempty" json:"group_admin,omitempty"`
	DirectKey     string    `bson:"direct_key,omitempty" json:"-"`
	LastMessageID string    `bson:"last_message_id,omitempty" json:"last_message_id,omitempty"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}

// HasParticipant reports whether userID belongs to the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// DirectKey builds the canonical key for a direct conversation pair. The key
// is order-independent so at most one conversation can exist per pair.
func DirectKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, "|")
}

// ReadReceipt records that a user has read a message.
type ReadReceipt struct {
	UserID string    `bson:"user_id" json:"user_id"`
	ReadAt time.Time `bson:"read_at" json:"read_at"`
}

// DeleteMark is a per-user tombstone hiding a message from one participant.
type DeleteMark struct {
	UserID    string    `bson:"user_id" json:"user_id"`
	DeletedAt time.Time `bson:"deleted_at" json:"deleted_at"`
}

// Message is an append-mostly record. Content is never edited after creation;
// the only mutations are read receipts, per-user tombstones and the one-way
// delete-for-everyone transition.
type Message struct {
	ID                 string        `bson:"_id" json:"id"`
	ConversationID     string        `bson:"conversation_id" json:"conversation_id"`
	SenderID           string        `bson:"sender_id" json:"sender_id"`
	ReceiverID         string        `bson:"receiver_id,omitempty" json:"receiver_id,omitempty"`
	Content            string        `bson:"content" json:"content"`
	Attachment         string        `bson:"attachment,omitempty" json:"attachment,omitempty"`
	ReadBy             []ReadReceipt `bson:"read_by" json:"read_by"`
	DeletedFor         []DeleteMark  `bson:"deleted_for" json:"deleted_for"`
	DeletedForEveryone bool          `bson:"deleted_for_everyone" json:"deleted_for_everyone"`
	CreatedAt          time.Time     `bson:"created_at" json:"created_at"`
}

// IsReadBy reports whether userID already has a read receipt on the message.
func (m *Message) IsReadBy(userID string) bool {
	for _, r := range m.ReadBy {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// IsDeletedFor reports whether userID has tombstoned the message for themselves.
func (m *Message) IsDeletedFor(userID string) bool {
	for _, d := range m.DeletedFor {
		if d.UserID == userID {
			return true
		}
	}
	return false
}

// ConversationView is a list item: the conversation annotated with a preview
// of its last message and the caller's unread count.
type ConversationView struct {
	Conversation *Conversation `json:"conversation"`
	LastMessage  *Message      `json:"last_message,omitempty"`
	UnreadCount  int64         `json:"unread_count"`
}
