package store

import (
	"context"
	"sync"

	"github.com/yuchenw/pagechat/backend/internal/model/chat"
)

// MemoryStore is a map-backed Store used in tests and when no database path
// is configured. Ids are assigned sequentially starting at 1, mirroring
// SQLite's autoincrement behavior.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	chats  map[int64]chat.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		chats:  make(map[int64]chat.Session),
	}
}

func (s *MemoryStore) CreateChat(_ context.Context, url, pageContent string, convo []chat.Message) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	s.chats[id] = chat.Session{
		ID:          id,
		URL:         url,
		PageContent: pageContent,
		Convo:       cloneMessages(convo),
	}
	return id, nil
}

func (s *MemoryStore) FetchChat(_ context.Context, id int64) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.chats[id]
	if !ok {
		return chat.Session{}, ErrChatNotFound
	}
	session.Convo = cloneMessages(session.Convo)
	return session, nil
}

func (s *MemoryStore) UpdateConvo(_ context.Context, id int64, convo []chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.chats[id]
	if !ok {
		return ErrChatNotFound
	}
	session.Convo = cloneMessages(convo)
	s.chats[id] = session
	return nil
}

func cloneMessages(msgs []chat.Message) []chat.Message {
	copied := make([]chat.Message, len(msgs))
	copy(copied, msgs)
	return copied
}
