package httpapi

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/cartoncaps/capper/internal/chat"
	"github.com/cartoncaps/capper/internal/observability"
)

type wsError struct {
	Error string `json:"error"`
}

// handleChatWS serves a long-lived chat connection: each inbound JSON frame
// is one chat request, each outbound frame one reply. The same orchestration
// path runs as for POST /chat, so gateway failures come back as the fallback
// text, and validation failures as error frames.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}
	defer conn.Close()

	log := observability.LoggerFromContext(r.Context())
	for {
		var req chatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("chat ws read failed", "error", err)
			}
			return
		}

		reply, err := s.chat.HandleMessage(r.Context(), req.UserID, req.Message, req.ConversationID)
		if err != nil {
			code, _ := chat.CodeOf(err)
			if writeErr := conn.WriteJSON(wsError{Error: string(code)}); writeErr != nil {
				return
			}
			continue
		}
		if err := conn.WriteJSON(chatResponse{Response: reply.Text, ConversationID: reply.ConversationID}); err != nil {
			return
		}
	}
}
