package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"cusp/api/internal/chat"
	"cusp/api/internal/store"
)

// ChatStore adapts the persistence layer to what the hub needs for
// message append.
type ChatStore struct {
	store interface {
		InsertMessage(context.Context, store.ChatMessage) (int64, error)
	}
}

func NewChatStore(st *store.PostgresStore) *ChatStore {
	return &ChatStore{store: st}
}

func (c *ChatStore) Append(ctx context.Context, senderID, receiverID int64, ciphertext string, ts time.Time) error {
	_, err := c.store.InsertMessage(ctx, store.ChatMessage{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Message:    ciphertext,
		Time:       ts,
	})
	return err
}

type chatMessagePayload struct {
	ID      int64     `json:"id"`
	From    int64     `json:"from"`
	To      int64     `json:"to"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

func (s *HTTPServer) routeChat(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) == 1 && rest[0] == "send" && r.Method == http.MethodPost {
		session, ok := s.requireSession(w, r)
		if !ok {
			return
		}
		var body struct {
			To      int64  `json:"to"`
			Message string `json:"message"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		if body.To == 0 || strings.TrimSpace(body.Message) == "" {
			writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "to and message are required", nil)
			return
		}
		if _, err := s.service.store.GetUser(r.Context(), body.To); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		outcome := s.hub.HandleMessage(session.UserID, body.To, body.Message)
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":        true,
			"delivered": outcome == chat.Delivered,
		})
		return
	}

	if len(rest) == 1 && r.Method == http.MethodGet {
		session, ok := s.requireSession(w, r)
		if !ok {
			return
		}
		otherID, idOK := pathID(rest[0])
		if !idOK {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
			return
		}
		messages, err := s.service.store.ListConversation(r.Context(), session.UserID, otherID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not load conversation", nil)
			return
		}
		// Rows hold ciphertext; decode at the boundary. Legacy plaintext
		// rows come back unchanged.
		payload := make([]chatMessagePayload, 0, len(messages))
		for _, m := range messages {
			payload = append(payload, chatMessagePayload{
				ID:      m.ID,
				From:    m.SenderID,
				To:      m.ReceiverID,
				Message: s.service.cipher.Decode(m.Message),
				Time:    m.Time,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"messages": payload})
		return
	}

	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
}
