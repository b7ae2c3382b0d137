package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/yuchenw/pagechat/backend/internal/model/chat"
	"github.com/yuchenw/pagechat/backend/internal/service/scrape"
	sessionService "github.com/yuchenw/pagechat/backend/internal/service/session"
)

// Scraper fetches plain text for a URL. The real implementation lives in
// internal/service/scrape; tests substitute a fake.
type Scraper interface {
	PageText(ctx context.Context, pageURL string) (string, error)
}

// Handler translates the HTTP boundary into session service calls.
type Handler struct {
	sessions *sessionService.Service
	scraper  Scraper
}

// New creates the chat handler.
func New(sessions *sessionService.Service, scraper Scraper) *Handler {
	return &Handler{
		sessions: sessions,
		scraper:  scraper,
	}
}

// RegisterRoutes mounts the chat endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/url", h.handleInitChat)
	r.Post("/chat", h.handleChat)
	r.Get("/load_chat", h.handleLoadChat)
}

// handleInitChat registers a page as a new chat context.
func (h *Handler) handleInitChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		URL string `json:"url"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !scrape.ValidURL(payload.URL) {
		respondError(w, http.StatusBadRequest, "URL format is invalid.")
		return
	}

	pageContent, err := h.scraper.PageText(r.Context(), payload.URL)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Failed to scrape page content: %v", err))
		return
	}

	session, err := h.sessions.CreateSession(r.Context(), payload.URL, pageContent)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "An error occurred when creating a new chat, please try again")
		return
	}

	respondJSON(w, http.StatusOK, session)
}

// handleChat advances one conversation turn.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ID   json.Number   `json:"id"`
		Body *chat.Message `json:"body"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.Body == nil || payload.ID.String() == "" {
		respondError(w, http.StatusBadRequest, "Invalid request. Both 'body' and 'id' are required.")
		return
	}

	id, err := payload.ID.Int64()
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'id'. It must be an integer.")
		return
	}

	reply, err := h.sessions.AdvanceTurn(r.Context(), id, *payload.Body)
	if err != nil {
		respondTurnError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, reply)
}

// handleLoadChat returns a stored conversation by id.
func (h *Handler) handleLoadChat(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("id")
	if raw == "" {
		respondError(w, http.StatusBadRequest, "Missing parameter 'id'")
		return
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid parameter 'id'. It must be an integer.")
		return
	}

	session, err := h.sessions.LoadSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, sessionService.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "Chat not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to load chat")
		return
	}

	respondJSON(w, http.StatusOK, session)
}

// respondTurnError maps session service failures to the boundary statuses:
// bad input 400, unknown id 404, provider trouble 502, unsaved reply 500.
func respondTurnError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrInvalidMessage):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, sessionService.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "Chat not found")
	case errors.Is(err, sessionService.ErrUpstream):
		respondError(w, http.StatusBadGateway, fmt.Sprintf("Failed to generate AI response: %v", err))
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// respondJSON writes a JSON response.
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondError writes an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
