// Package chat implements the real-time messaging core: presence
// tracking, message routing, and the at-rest encryption boundary.
package chat

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Outcome is the result of a delivery attempt. An offline recipient is
// a normal outcome, not an error.
type Outcome int

const (
	Delivered Outcome = iota
	RecipientOffline
)

// TokenVerifier authenticates a handshake token to a user id.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// MessageStore persists ciphered messages.
type MessageStore interface {
	Append(ctx context.Context, senderID, receiverID int64, ciphertext string, ts time.Time) error
}

// Hub owns the presence registry and routes messages between live
// sessions.
type Hub struct {
	registry *Registry
	cipher   *Cipher
	store    MessageStore
	verifier TokenVerifier
	upgrader websocket.Upgrader
}

func NewHub(cipher *Cipher, store MessageStore, verifier TokenVerifier) *Hub {
	return &Hub{
		registry: NewRegistry(),
		cipher:   cipher,
		store:    store,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Online returns the ids of all connected users.
func (h *Hub) Online() []int64 {
	return h.registry.Online()
}

// ServeWS authenticates the handshake and, only then, upgrades and
// registers the connection. A missing or invalid token never touches
// the registry and never triggers a broadcast.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := handshakeToken(r)
	if token == "" {
		http.Error(w, `{"error":"authentication token required"}`, http.StatusUnauthorized)
		return
	}
	userID, err := h.verifier.Verify(token)
	if err != nil {
		http.Error(w, `{"error":"authentication failed"}`, http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("chat: upgrade failed for user %d: %v", userID, err)
		return
	}

	s := newSession(h, conn, userID)
	s.setState(stateAuthenticated)
	h.attach(s)

	go s.writePump()
	go s.readPump()
}

func handshakeToken(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// attach registers the session and announces the new presence set. A
// replaced session for the same user is closed after the swap.
func (h *Hub) attach(s *Session) {
	prev := h.registry.Register(s.userID, s)
	if prev != nil && prev != s {
		prev.close()
	}
	h.broadcastOnline()
}

// detach removes the session if it is still the registered one and, if
// so, announces the shrunken presence set.
func (h *Hub) detach(s *Session) {
	if h.registry.Unregister(s.userID, s) {
		h.broadcastOnline()
	}
}

type onlineEvent struct {
	Event string  `json:"event"`
	Users []int64 `json:"users"`
}

func (h *Hub) broadcastOnline() {
	frame, err := json.Marshal(onlineEvent{Event: "onlineUsers", Users: h.registry.Online()})
	if err != nil {
		log.Printf("chat: marshal online event: %v", err)
		return
	}
	for _, s := range h.registry.snapshot() {
		if !s.enqueue(frame) {
			log.Printf("chat: dropped online broadcast to user %d", s.userID)
		}
	}
}

type messageEvent struct {
	Event   string    `json:"event"`
	From    int64     `json:"from"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Deliver routes a plaintext message to the recipient's live session.
func (h *Hub) Deliver(from, to int64, message string, ts time.Time) Outcome {
	s, ok := h.registry.Lookup(to)
	if !ok {
		return RecipientOffline
	}
	frame, err := json.Marshal(messageEvent{Event: "chatMessage", From: from, Message: message, Time: ts})
	if err != nil {
		log.Printf("chat: marshal message event: %v", err)
		return RecipientOffline
	}
	if !s.enqueue(frame) {
		log.Printf("chat: dropped message to user %d, send buffer full", to)
	}
	return Delivered
}

// HandleMessage persists a message (encrypted at rest) and attempts
// live delivery. A storage failure is logged and never blocks routing;
// an offline recipient never blocks persistence.
func (h *Hub) HandleMessage(from, to int64, message string) Outcome {
	ts := time.Now()
	ciphertext := h.cipher.Encode(message)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.store.Append(ctx, from, to, ciphertext, ts); err != nil {
		log.Printf("chat: persist message from %d to %d: %v", from, to, err)
	}

	return h.Deliver(from, to, message, ts)
}
