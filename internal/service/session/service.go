package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/yuchenw/pagechat/backend/internal/model/chat"
	"github.com/yuchenw/pagechat/backend/internal/store"
)

var (
	ErrSessionNotFound = errors.New("chat not found")
	ErrUpstream        = errors.New("completion failed")
	ErrPersistence     = errors.New("persistence failed")
)

// systemInstruction is the fixed first message of every prompt context.
const systemInstruction = `You are an AI assistant, you will be answering questions from a user. Your goal is to provide a concise and accurate answer to the user's question, and provide 4 related options that the user might be interested in, the options should be formatted in first person voice. Only answer questions related to the page. Respond with a single JSON object of the form {"body": "<your answer>", "options": ["...", "...", "...", "..."]} and no other text.`

// Provider is the external completion service. It receives the full ordered
// prompt context and returns a structured reply.
type Provider interface {
	Complete(ctx context.Context, prompt []chat.Message) (chat.Reply, error)
}

// Service is the single authority over how prompt context is built and how
// a session's conversation evolves. Turns on the same session are
// serialized through a per-id mutex; sessions never share mutable state, so
// distinct ids proceed fully in parallel.
type Service struct {
	store    store.Store
	provider Provider

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewService wires the session manager to its record store and completion
// provider. provider may be nil when no model is configured; turns then fail
// upstream while create/load keep working.
func NewService(st store.Store, provider Provider) *Service {
	return &Service{
		store:    st,
		provider: provider,
		locks:    make(map[int64]*sync.Mutex),
	}
}

// CreateSession persists a new session for an already validated and scraped
// (url, pageContent) pair and returns it fully materialized, including the
// store-assigned id. The conversation starts with one assistant
// acknowledgment so a fresh chat renders a greeting on load.
func (s *Service) CreateSession(ctx context.Context, url, pageContent string) (chat.Session, error) {
	convo := []chat.Message{
		chat.AssistantMessage(fmt.Sprintf("Trained on %s, please check above the chat box to see your chat reference id", url)),
	}

	id, err := s.store.CreateChat(ctx, url, pageContent, convo)
	if err != nil {
		return chat.Session{}, fmt.Errorf("%w: create chat: %v", ErrPersistence, err)
	}

	log.Printf("[session] created chat=%d for url=%s", id, url)
	return chat.Session{ID: id, URL: url, PageContent: pageContent, Convo: convo}, nil
}

// AdvanceTurn runs one conversation turn: fetch the session, assemble the
// prompt context, call the provider, then append the user message and the
// assistant reply and persist them with a single replace.
//
// The fetched history is never mutated before the provider call succeeds,
// so a failed or timed-out completion leaves storage byte-identical and the
// caller can resubmit the same message.
func (s *Service) AdvanceTurn(ctx context.Context, id int64, userMessage chat.Message) (chat.Reply, error) {
	if err := userMessage.Validate(); err != nil {
		return chat.Reply{}, err
	}
	if userMessage.Role != chat.RoleUser {
		return chat.Reply{}, fmt.Errorf("%w: turn message must have role %q", chat.ErrInvalidMessage, chat.RoleUser)
	}
	if s.provider == nil {
		return chat.Reply{}, fmt.Errorf("%w: no completion provider configured", ErrUpstream)
	}

	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.fetch(ctx, id)
	if err != nil {
		return chat.Reply{}, err
	}

	reply, err := s.provider.Complete(ctx, buildPromptContext(session, userMessage))
	if err != nil {
		return chat.Reply{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	convo := session.CloneConvo()
	convo = append(convo, userMessage, chat.AssistantMessage(reply.Body))

	if err := s.store.UpdateConvo(ctx, id, convo); err != nil {
		if errors.Is(err, store.ErrChatNotFound) {
			return chat.Reply{}, ErrSessionNotFound
		}
		// The reply was computed but never saved; the caller must learn
		// that a reload will not reproduce it.
		return chat.Reply{}, fmt.Errorf("%w: reply generated but not saved: %v", ErrPersistence, err)
	}

	log.Printf("[session] turn committed for chat=%d, convo length=%d", id, len(convo))
	return reply, nil
}

// LoadSession returns the stored session without mutating anything. It takes
// no turn lock; reading a slightly stale conversation during an in-flight
// turn is acceptable.
func (s *Service) LoadSession(ctx context.Context, id int64) (chat.Session, error) {
	return s.fetch(ctx, id)
}

func (s *Service) fetch(ctx context.Context, id int64) (chat.Session, error) {
	session, err := s.store.FetchChat(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrChatNotFound) {
			return chat.Session{}, ErrSessionNotFound
		}
		return chat.Session{}, fmt.Errorf("%w: fetch chat %d: %v", ErrPersistence, id, err)
	}
	return session, nil
}

// buildPromptContext assembles the ordered message list for one turn: the
// fixed instruction, the page text as transient system context, the stored
// conversation in original order, and the new user message last.
func buildPromptContext(session chat.Session, userMessage chat.Message) []chat.Message {
	prompt := make([]chat.Message, 0, len(session.Convo)+3)
	prompt = append(prompt,
		chat.Message{Role: chat.RoleSystem, Content: systemInstruction},
		chat.Message{Role: chat.RoleSystem, Content: session.PageContent},
	)
	prompt = append(prompt, session.Convo...)
	prompt = append(prompt, userMessage)
	return prompt
}

// lockFor returns the turn mutex for id, creating it on first use.
func (s *Service) lockFor(id int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}
