package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/JaiminPatel345/Abhinavam-sub000/internal/models"
	"github.com/JaiminPatel345/Abhinavam-sub000/internal/repository"
)

// In-memory stores mirroring the mongo repositories' semantics, shared by the
// conversation and message service tests.

type fakeConversationStore struct {
	mu    sync.Mutex
	convs map[string]*models.Conversation
}

func newFakeConversationStore() *fakeConversationStore {
	return &fakeConversationStore{convs: make(map[string]*models.Conversation)}
}

func (f *fakeConversationStore) Insert(_ context.Context, c *models.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.DirectKey != "" {
		for _, existing := range f.convs {
			if existing.DirectKey == c.DirectKey {
				return repository.ErrDuplicateKey
			}
		}
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	f.convs[c.ID] = c
	return nil
}

func (f *fakeConversationStore) FindByID(_ context.Context, id string) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.convs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeConversationStore) FindDirectByKey(_ context.Context, key string) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.convs {
		if c.DirectKey == key {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeConversationStore) ListForUser(_ context.Context, userID string, offset, limit int64) ([]*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Conversation
	for _, c := range f.convs {
		if c.HasParticipant(userID) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if offset >= int64(len(out)) {
		return []*models.Conversation{}, nil
	}
	out = out[offset:]
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeMessageStore struct {
	mu    sync.Mutex
	msgs  map[string]*models.Message
	convs *fakeConversationStore

	createErr error
}

func newFakeMessageStore(convs *fakeConversationStore) *fakeMessageStore {
	return &fakeMessageStore{msgs: make(map[string]*models.Message), convs: convs}
}

func (f *fakeMessageStore) CreateWithLastMessage(_ context.Context, m *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.convs.mu.Lock()
	defer f.convs.mu.Unlock()
	conv, ok := f.convs.convs[m.ConversationID]
	if !ok {
		return repository.ErrNotFound
	}
	cp := *m
	f.msgs[m.ID] = &cp
	conv.LastMessageID = m.ID
	conv.UpdatedAt = m.CreatedAt
	return nil
}

func (f *fakeMessageStore) FindByID(_ context.Context, id string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.msgs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMessageStore) ListVisible(_ context.Context, conversationID, userID string, offset, limit int64) ([]*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Message
	for _, m := range f.msgs {
		if m.ConversationID != conversationID || m.DeletedForEveryone || m.IsDeletedFor(userID) {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= int64(len(out)) {
		return []*models.Message{}, nil
	}
	out = out[offset:]
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeMessageStore) CountUnread(_ context.Context, conversationID, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, m := range f.msgs {
		if m.ConversationID != conversationID || m.DeletedForEveryone {
			continue
		}
		if m.SenderID == userID || m.IsDeletedFor(userID) || m.IsReadBy(userID) {
			continue
		}
		n++
	}
	return n, nil
}

func (f *fakeMessageStore) AddReadReceipt(_ context.Context, messageID, userID string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.msgs[messageID]
	if !ok {
		return false, nil
	}
	if m.IsReadBy(userID) {
		return false, nil
	}
	m.ReadBy = append(m.ReadBy, models.ReadReceipt{UserID: userID, ReadAt: at})
	return true, nil
}

func (f *fakeMessageStore) AddDeleteMark(_ context.Context, messageID, userID string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.msgs[messageID]
	if !ok {
		return false, nil
	}
	if m.IsDeletedFor(userID) {
		return false, nil
	}
	m.DeletedFor = append(m.DeletedFor, models.DeleteMark{UserID: userID, DeletedAt: at})
	return true, nil
}

func (f *fakeMessageStore) TombstoneForEveryone(_ context.Context, target *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.msgs[target.ID]
	if !ok {
		return repository.ErrNotFound
	}
	m.DeletedForEveryone = true

	f.convs.mu.Lock()
	defer f.convs.mu.Unlock()
	conv, ok := f.convs.convs[m.ConversationID]
	if !ok || conv.LastMessageID != m.ID {
		return nil
	}
	var newest *models.Message
	for _, cand := range f.msgs {
		if cand.ConversationID != m.ConversationID || cand.ID == m.ID || cand.DeletedForEveryone {
			continue
		}
		if newest == nil || cand.CreatedAt.After(newest.CreatedAt) {
			newest = cand
		}
	}
	if newest != nil {
		conv.LastMessageID = newest.ID
	} else {
		conv.LastMessageID = ""
	}
	return nil
}

type recordedEvent struct {
	kind           string
	conversationID string
	messageID      string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *fakePublisher) MessageCreated(_ context.Context, conversationID string, m *models.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{kind: "created", conversationID: conversationID, messageID: m.ID})
}

func (p *fakePublisher) MessageDeleted(_ context.Context, conversationID, messageID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{kind: "deleted", conversationID: conversationID, messageID: messageID})
}
