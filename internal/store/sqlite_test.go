package store

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/yuchenw/pagechat/backend/internal/model/chat"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "chats.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore err: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteCreateAndFetch(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	convo := []chat.Message{chat.AssistantMessage("hello")}
	id, err := s.CreateChat(ctx, "https://example.com", "Example Domain", convo)
	if err != nil {
		t.Fatalf("CreateChat err: %v", err)
	}
	if id != 1 {
		t.Fatalf("unexpected first id: got %d want 1", id)
	}

	session, err := s.FetchChat(ctx, id)
	if err != nil {
		t.Fatalf("FetchChat err: %v", err)
	}
	if session.URL != "https://example.com" || session.PageContent != "Example Domain" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if !reflect.DeepEqual(session.Convo, convo) {
		t.Fatalf("convo mismatch: got %+v want %+v", session.Convo, convo)
	}
}

func TestSQLiteIDsAreSequential(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	first, err := s.CreateChat(ctx, "https://a.example", "a", nil)
	if err != nil {
		t.Fatalf("CreateChat err: %v", err)
	}
	second, err := s.CreateChat(ctx, "https://b.example", "b", nil)
	if err != nil {
		t.Fatalf("CreateChat err: %v", err)
	}
	if second != first+1 {
		t.Fatalf("ids not sequential: %d then %d", first, second)
	}
}

func TestSQLiteUpdateConvo(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	id, err := s.CreateChat(ctx, "https://example.com", "text", []chat.Message{chat.AssistantMessage("hi")})
	if err != nil {
		t.Fatalf("CreateChat err: %v", err)
	}

	updated := []chat.Message{
		chat.AssistantMessage("hi"),
		chat.UserMessage("question"),
		chat.AssistantMessage("answer"),
	}
	if err := s.UpdateConvo(ctx, id, updated); err != nil {
		t.Fatalf("UpdateConvo err: %v", err)
	}

	session, err := s.FetchChat(ctx, id)
	if err != nil {
		t.Fatalf("FetchChat err: %v", err)
	}
	if !reflect.DeepEqual(session.Convo, updated) {
		t.Fatalf("convo mismatch after update: %+v", session.Convo)
	}
}

func TestSQLiteNotFound(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	if _, err := s.FetchChat(ctx, 42); !errors.Is(err, ErrChatNotFound) {
		t.Fatalf("expected ErrChatNotFound from FetchChat, got %v", err)
	}
	if err := s.UpdateConvo(ctx, 42, nil); !errors.Is(err, ErrChatNotFound) {
		t.Fatalf("expected ErrChatNotFound from UpdateConvo, got %v", err)
	}
}
