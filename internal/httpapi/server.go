// Package httpapi exposes the chat, history, and knowledge-base endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/cartoncaps/capper/internal/chat"
	"github.com/cartoncaps/capper/internal/config"
	"github.com/cartoncaps/capper/internal/knowledge"
	"github.com/cartoncaps/capper/internal/observability"
)

type Server struct {
	cfg       config.Config
	chat      *chat.Service
	knowledge knowledge.Store
	upgrader  websocket.Upgrader
}

func New(cfg config.Config, chatService *chat.Service, knowledgeStore knowledge.Store) *Server {
	return &Server{
		cfg:       cfg,
		chat:      chatService,
		knowledge: knowledgeStore,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only allow browser websocket connections from the same
				// origin unless explicitly opened up.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/chat", s.handleChat)
	r.Get("/chat/ws", s.handleChatWS)
	r.Get("/history/{conversationID}", s.handleHistory)

	r.Get("/users", s.handleListUsers)
	r.Get("/users/{id}", s.handleGetUser)

	r.Get("/products", s.handleListProducts)
	r.Post("/products", s.handleCreateProduct)
	r.Get("/products/{id}", s.handleGetProduct)
	r.Put("/products/{id}", s.handleUpdateProduct)
	r.Delete("/products/{id}", s.handleDeleteProduct)

	r.Get("/faqs", s.handleListFAQs)
	r.Post("/faqs", s.handleCreateFAQ)
	r.Get("/faqs/{id}", s.handleGetFAQ)
	r.Put("/faqs/{id}", s.handleUpdateFAQ)
	r.Delete("/faqs/{id}", s.handleDeleteFAQ)

	r.Get("/referral-rules", s.handleListRules)
	r.Post("/referral-rules", s.handleCreateRule)
	r.Put("/referral-rules/{id}", s.handleUpdateRule)
	r.Delete("/referral-rules/{id}", s.handleDeleteRule)

	return r
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := observability.WithRequestID(r.Context(), reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	// The knowledge store is the shared dependency; a failing list means the
	// service cannot ground replies.
	if _, err := s.knowledge.ListRules(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

type chatRequest struct {
	UserID         int64  `json:"user_id"`
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type chatResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	reply, err := s.chat.HandleMessage(r.Context(), req.UserID, req.Message, req.ConversationID)
	if err != nil {
		respondChatError(r.Context(), w, err)
		return
	}
	// Degraded replies still return 200: the caller gets the user-safe
	// fallback text, never the upstream diagnostics.
	respondJSON(w, http.StatusOK, chatResponse{Response: reply.Text, ConversationID: reply.ConversationID})
}

type messageResponse struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	turns, err := s.chat.History(r.Context(), conversationID)
	if err != nil {
		respondChatError(r.Context(), w, err)
		return
	}
	out := make([]messageResponse, 0, len(turns))
	for _, t := range turns {
		out = append(out, messageResponse{Role: string(t.Role), Content: t.Text})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.knowledge.ListUsers(r.Context())
	if err != nil {
		respondStoreError(r.Context(), w, err)
		return
	}
	if users == nil {
		users = []knowledge.Profile{}
	}
	respondJSON(w, http.StatusOK, users)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	user, err := s.knowledge.GetUser(r.Context(), id)
	if err != nil {
		respondStoreError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func respondChatError(ctx context.Context, w http.ResponseWriter, err error) {
	code, ok := chat.CodeOf(err)
	if !ok {
		observability.LoggerFromContext(ctx).Error("unclassified chat error", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	switch code {
	case chat.CodeInvalidInput:
		respondError(w, http.StatusBadRequest, "message must not be empty")
	case chat.CodeNotFound:
		respondError(w, http.StatusNotFound, "not found")
	case chat.CodeStorageUnavailable:
		observability.LoggerFromContext(ctx).Error("storage unavailable", "error", err)
		respondError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	default:
		observability.LoggerFromContext(ctx).Error("chat error", "code", string(code), "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func respondStoreError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, knowledge.ErrNotFound) {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	observability.LoggerFromContext(ctx).Error("knowledge store error", "error", err)
	respondError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
