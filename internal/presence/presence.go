// Package presence maps authenticated user ids to their live connection ids.
// The store is injectable so a single-process deployment can use process
// memory while a multi-process one shares a Redis keyspace; values are sets of
// connection ids so one user may hold several devices.
package presence

import (
	"context"
	"sync"
)

type Store interface {
	Add(ctx context.Context, userID, connID string) error
	Remove(ctx context.Context, userID, connID string) error
	Connections(ctx context.Context, userID string) ([]string, error)
}

// MemoryStore is the process-local implementation. It does not survive a
// restart and does not span processes.
type MemoryStore struct {
	mu    sync.RWMutex
	conns map[string]map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{conns: make(map[string]map[string]struct{})}
}

func (s *MemoryStore) Add(_ context.Context, userID, connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.conns[userID]
	if !ok {
		set = make(map[string]struct{})
		s.conns[userID] = set
	}
	set[connID] = struct{}{}
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, userID, connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set, ok := s.conns[userID]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(s.conns, userID)
		}
	}
	return nil
}

func (s *MemoryStore) Connections(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.conns[userID]
	if !ok {
		return nil, nil
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out, nil
}
