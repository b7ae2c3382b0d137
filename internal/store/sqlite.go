package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/yuchenw/pagechat/backend/internal/model/chat"
)

// SQLiteStore implements Store on a SQLite database.
type SQLiteStore struct{ db *sql.DB }

// NewSQLiteStore opens (or creates) the database at dsn and ensures the
// chats table exists.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS chats (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  url TEXT NOT NULL,
  page_content TEXT NOT NULL,
  conversation TEXT NOT NULL
);
`)
	return err
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) CreateChat(ctx context.Context, url, pageContent string, convo []chat.Message) (int64, error) {
	encoded, err := encodeConvo(convo)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO chats (url, page_content, conversation) VALUES (?, ?, ?)`,
		url, pageContent, encoded)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) FetchChat(ctx context.Context, id int64) (chat.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, url, page_content, conversation FROM chats WHERE id = ?`, id)

	var session chat.Session
	var encoded string
	switch err := row.Scan(&session.ID, &session.URL, &session.PageContent, &encoded); err {
	case nil:
	case sql.ErrNoRows:
		return chat.Session{}, ErrChatNotFound
	default:
		return chat.Session{}, err
	}

	if err := json.Unmarshal([]byte(encoded), &session.Convo); err != nil {
		return chat.Session{}, fmt.Errorf("decode conversation for chat %d: %w", id, err)
	}
	return session, nil
}

func (s *SQLiteStore) UpdateConvo(ctx context.Context, id int64, convo []chat.Message) error {
	encoded, err := encodeConvo(convo)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE chats SET conversation = ? WHERE id = ?`, encoded, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrChatNotFound
	}
	return nil
}

func encodeConvo(convo []chat.Message) (string, error) {
	if convo == nil {
		convo = []chat.Message{}
	}
	encoded, err := json.Marshal(convo)
	if err != nil {
		return "", fmt.Errorf("encode conversation: %w", err)
	}
	return string(encoded), nil
}
