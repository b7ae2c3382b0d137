package store

import (
	"context"
	"errors"

	"github.com/yuchenw/pagechat/backend/internal/model/chat"
)

var ErrChatNotFound = errors.New("chat not found")

// Store persists one record per chat session keyed by an integer id.
//
// Implementations must make each call atomic on its own; ordering between
// concurrent UpdateConvo calls on the same id is the session service's job.
type Store interface {
	// CreateChat inserts a new session and returns its fresh id.
	CreateChat(ctx context.Context, url, pageContent string, convo []chat.Message) (int64, error)
	// FetchChat looks up a session by id. Returns ErrChatNotFound when absent.
	FetchChat(ctx context.Context, id int64) (chat.Session, error)
	// UpdateConvo replaces the stored conversation for an existing session.
	UpdateConvo(ctx context.Context, id int64, convo []chat.Message) error
}
