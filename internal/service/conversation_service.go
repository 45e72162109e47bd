package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/JaiminPatel345/Abhinavam-sub000/internal/apperr"
	"github.com/JaiminPatel345/Abhinavam-sub000/internal/models"
	"github.com/JaiminPatel345/Abhinavam-sub000/internal/repository"
)

type ConversationService struct {
	convs ConversationStore
	msgs  MessageStore
	log   *zap.SugaredLogger
}

func NewConversationService(convs ConversationStore, msgs MessageStore, log *zap.SugaredLogger) *ConversationService {
	return &ConversationService{convs: convs, msgs: msgs, log: log}
}

// CreateOrGet creates a conversation on behalf of requesterID. For a direct
// pair the call is idempotent: an existing conversation for the same unordered
// pair is returned unchanged rather than treated as an error.
func (s *ConversationService) CreateOrGet(ctx context.Context, requesterID string, participants []string, isGroup bool, groupName string) (*models.Conversation, error) {
	participants = lo.Uniq(participants)
	if !lo.Contains(participants, requesterID) {
		participants = append(participants, requesterID)
	}

	if !isGroup {
		return s.createOrGetDirect(ctx, participants)
	}
	return s.createGroup(ctx, requesterID, participants, groupName)
}

func (s *ConversationService) createOrGetDirect(ctx context.Context, participants []string) (*models.Conversation, error) {
	if len(participants) != 2 {
		return nil, apperr.Validation("a direct conversation requires exactly 2 participants, got %d", len(participants))
	}
	key := models.DirectKey(participants[0], participants[1])

	existing, err := s.convs.FindDirectByKey(ctx, key)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.TransientStorage(err, "lookup direct conversation failed")
	}

	c := &models.Conversation{
		ID:           uuid.NewString(),
		Participants: participants,
		DirectKey:    key,
	}
	if err := s.convs.Insert(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			// lost the race to a concurrent create for the same pair
			existing, ferr := s.convs.FindDirectByKey(ctx, key)
			if ferr != nil {
				return nil, apperr.TransientStorage(ferr, "lookup direct conversation failed")
			}
			return existing, nil
		}
		return nil, apperr.TransientStorage(err, "create conversation failed")
	}
	s.log.Infow("direct conversation created", "conversation_id", c.ID)
	return c, nil
}

func (s *ConversationService) createGroup(ctx context.Context, requesterID string, participants []string, groupName string) (*models.Conversation, error) {
	if groupName == "" {
		return nil, apperr.Validation("group conversation requires a name")
	}
	c := &models.Conversation{
		ID:           uuid.NewString(),
		Participants: participants,
		IsGroup:      true,
		GroupName:    groupName,
		GroupAdmin:   requesterID,
	}
	if err := s.convs.Insert(ctx, c); err != nil {
		return nil, apperr.TransientStorage(err, "create conversation failed")
	}
	s.log.Infow("group conversation created", "conversation_id", c.ID, "group", groupName)
	return c, nil
}

// List returns userID's conversations newest-activity first, each annotated
// with a lastMessage preview and the unread count for userID.
func (s *ConversationService) List(ctx context.Context, userID string, page, limit int) ([]*models.ConversationView, error) {
	offset, lim := pageToOffset(page, limit)
	convs, err := s.convs.ListForUser(ctx, userID, offset, lim)
	if err != nil {
		return nil, apperr.TransientStorage(err, "list conversations failed")
	}

	out := make([]*models.ConversationView, 0, len(convs))
	for _, c := range convs {
		view := &models.ConversationView{Conversation: c}
		if c.LastMessageID != "" {
			last, err := s.msgs.FindByID(ctx, c.LastMessageID)
			if err == nil && !last.DeletedForEveryone {
				view.LastMessage = last
			} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, apperr.TransientStorage(err, "load last message failed")
			}
		}
		unread, err := s.msgs.CountUnread(ctx, c.ID, userID)
		if err != nil {
			return nil, apperr.TransientStorage(err, "count unread failed")
		}
		view.UnreadCount = unread
		out = append(out, view)
	}
	return out, nil
}

// GetByID fetches one conversation, authorizing participant membership.
func (s *ConversationService) GetByID(ctx context.Context, id, userID string) (*models.Conversation, error) {
	c, err := s.convs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("conversation %s not found", id)
		}
		return nil, apperr.TransientStorage(err, "load conversation failed")
	}
	if !c.HasParticipant(userID) {
		return nil, apperr.Authorization("user is not a participant of this conversation")
	}
	return c, nil
}
