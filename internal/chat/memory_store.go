package chat

import (
	"context"
	"sort"
	"sync"
)

type memoryConversation struct {
	owner string
	conv  Conversation
	order int
}

// MemoryStore keeps conversations in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	convs map[string]*memoryConversation
	next  int
}

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{convs: make(map[string]*memoryConversation)}
}

func (s *MemoryStore) List(_ context.Context, ownerID string) ([]Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := make([]*memoryConversation, 0)
	for _, c := range s.convs {
		if c.owner == ownerID {
			matches = append(matches, c)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if !a.conv.CreatedAt.Equal(b.conv.CreatedAt) {
			return a.conv.CreatedAt.After(b.conv.CreatedAt)
		}
		return a.order > b.order
	})
	out := make([]Conversation, 0, len(matches))
	for _, c := range matches {
		out = append(out, c.conv.clone())
	}
	return out, nil
}

func (s *MemoryStore) Create(_ context.Context, ownerID string, conv Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	conv.Messages = nil
	s.convs[conv.ID] = &memoryConversation{owner: ownerID, conv: conv, order: s.next}
	return nil
}

func (s *MemoryStore) Append(_ context.Context, conversationID string, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[conversationID]
	if !ok {
		return ErrNotFound
	}
	c.conv.Messages = append(c.conv.Messages, msg)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.convs[conversationID]; !ok {
		return ErrNotFound
	}
	delete(s.convs, conversationID)
	return nil
}
