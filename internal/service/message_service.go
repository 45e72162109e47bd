package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JaiminPatel345/Abhinavam-sub000/internal/apperr"
	"github.com/JaiminPatel345/Abhinavam-sub000/internal/metrics"
	"github.com/JaiminPatel345/Abhinavam-sub000/internal/models"
	"github.com/JaiminPatel345/Abhinavam-sub000/internal/repository"
)

type MessageService struct {
	convs        ConversationStore
	msgs         MessageStore
	pub          EventPublisher
	deleteWindow time.Duration
	log          *zap.SugaredLogger
}

func NewMessageService(convs ConversationStore, msgs MessageStore, pub EventPublisher, deleteWindow time.Duration, log *zap.SugaredLogger) *MessageService {
	if deleteWindow <= 0 {
		deleteWindow = time.Hour
	}
	return &MessageService{convs: convs, msgs: msgs, pub: pub, deleteWindow: deleteWindow, log: log}
}

// SendInput carries a send request. ReceiverID is required for direct
// conversations and ignored for groups.
type SendInput struct {
	SenderID       string
	ConversationID string
	Content        string
	Attachment     string
	ReceiverID     string
}

// Send validates the request and commits the message insert together with the
// conversation's lastMessage repoint in one transaction. On abort nothing is
// persisted and the caller resubmits; there is no automatic retry.
func (s *MessageService) Send(ctx context.Context, in SendInput) (*models.Message, error) {
	if in.Content == "" && in.Attachment == "" {
		return nil, apperr.Validation("message requires content or an attachment")
	}

	conv, err := s.loadConversation(ctx, in.ConversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(in.SenderID) {
		return nil, apperr.Authorization("sender is not a participant of this conversation")
	}

	receiver := ""
	if !conv.IsGroup {
		switch {
		case in.ReceiverID == "":
			return nil, apperr.Validation("direct message requires a receiver")
		case in.ReceiverID == in.SenderID:
			return nil, apperr.Validation("receiver must differ from sender")
		case !conv.HasParticipant(in.ReceiverID):
			return nil, apperr.Validation("receiver is not a participant of this conversation")
		}
		receiver = in.ReceiverID
	}

	m := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		SenderID:       in.SenderID,
		ReceiverID:     receiver,
		Content:        in.Content,
		Attachment:     in.Attachment,
		ReadBy:         []models.ReadReceipt{},
		DeletedFor:     []models.DeleteMark{},
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.msgs.CreateWithLastMessage(ctx, m); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("conversation %s not found", conv.ID)
		}
		return nil, apperr.TransientStorage(err, "message transaction aborted")
	}

	metrics.MessagesSent.Inc()
	if s.pub != nil {
		s.pub.MessageCreated(ctx, conv.ID, m)
	}
	s.log.Debugw("message sent", "message_id", m.ID, "conversation_id", conv.ID)
	return m, nil
}

// History pages through a conversation's messages newest first, hiding
// globally tombstoned messages and those userID deleted for themselves.
func (s *MessageService) History(ctx context.Context, conversationID, userID string, page, limit int) ([]*models.Message, error) {
	conv, err := s.loadConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, apperr.Authorization("user is not a participant of this conversation")
	}

	offset, lim := pageToOffset(page, limit)
	msgs, err := s.msgs.ListVisible(ctx, conversationID, userID, offset, lim)
	if err != nil {
		return nil, apperr.TransientStorage(err, "list messages failed")
	}
	return msgs, nil
}

// MarkRead records a read receipt. For direct messages only the designated
// receiver may mark; for groups any participant except the sender. The
// operation is idempotent: a repeated mark is a no-op.
func (s *MessageService) MarkRead(ctx context.Context, messageID, userID string) error {
	m, err := s.loadMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if m.DeletedForEveryone {
		return apperr.NotFound("message %s not found", messageID)
	}

	if m.ReceiverID != "" {
		if userID != m.ReceiverID {
			return apperr.Authorization("only the receiver may mark this message as read")
		}
	} else {
		if userID == m.SenderID {
			return apperr.Validation("sender cannot mark their own message as read")
		}
		conv, err := s.loadConversation(ctx, m.ConversationID)
		if err != nil {
			return err
		}
		if !conv.HasParticipant(userID) {
			return apperr.Authorization("user is not a participant of this conversation")
		}
	}

	if _, err := s.msgs.AddReadReceipt(ctx, messageID, userID, time.Now().UTC()); err != nil {
		return apperr.TransientStorage(err, "mark read failed")
	}
	return nil
}

// DeleteForMe tombstones the message for userID only. An explicit re-delete
// is reported as a conflict rather than silently absorbed.
func (s *MessageService) DeleteForMe(ctx context.Context, messageID, userID string) error {
	m, err := s.loadMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if m.DeletedForEveryone {
		return apperr.NotFound("message %s not found", messageID)
	}
	conv, err := s.loadConversation(ctx, m.ConversationID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(userID) {
		return apperr.Authorization("user is not a participant of this conversation")
	}

	added, err := s.msgs.AddDeleteMark(ctx, messageID, userID, time.Now().UTC())
	if err != nil {
		return apperr.TransientStorage(err, "delete for me failed")
	}
	if !added {
		return apperr.Conflict("message already deleted for this user")
	}
	return nil
}

// DeleteForEveryone sets the global tombstone. Only the sender may call it and
// only within the delete window of the message's creation. When the message
// was the conversation's lastMessage the pointer is recomputed atomically.
func (s *MessageService) DeleteForEveryone(ctx context.Context, messageID, userID string) error {
	m, err := s.loadMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if userID != m.SenderID {
		return apperr.Authorization("only the sender may delete a message for everyone")
	}
	if m.DeletedForEveryone {
		return apperr.Conflict("message already deleted for everyone")
	}
	if time.Since(m.CreatedAt) > s.deleteWindow {
		return apperr.Validation("delete window of %s has expired", s.deleteWindow)
	}

	if err := s.msgs.TombstoneForEveryone(ctx, m); err != nil {
		return apperr.TransientStorage(err, "delete transaction aborted")
	}

	metrics.MessagesDeleted.Inc()
	if s.pub != nil {
		s.pub.MessageDeleted(ctx, m.ConversationID, m.ID)
	}
	s.log.Debugw("message deleted for everyone", "message_id", m.ID)
	return nil
}

func (s *MessageService) loadConversation(ctx context.Context, id string) (*models.Conversation, error) {
	conv, err := s.convs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("conversation %s not found", id)
		}
		return nil, apperr.TransientStorage(err, "load conversation failed")
	}
	return conv, nil
}

func (s *MessageService) loadMessage(ctx context.Context, id string) (*models.Message, error) {
	m, err := s.msgs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("message %s not found", id)
		}
		return nil, apperr.TransientStorage(err, "load message failed")
	}
	return m, nil
}
