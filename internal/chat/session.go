package chat

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	maxMsgSize = 4096
)

type sessionState int32

const (
	stateConnecting sessionState = iota
	stateAuthenticated
	stateClosed
)

// Session is one authenticated WebSocket connection. The token is
// verified before the session is registered, so a Session only exists
// for a known user.
type Session struct {
	hub    *Hub
	conn   *websocket.Conn
	userID int64
	send   chan []byte

	mu        sync.Mutex
	state     sessionState
	closeOnce sync.Once
}

func newSession(hub *Hub, conn *websocket.Conn, userID int64) *Session {
	return &Session{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 256),
		state:  stateConnecting,
	}
}

func (s *Session) setState(st sessionState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Session) closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateClosed
}

// enqueue hands a frame to the write pump without blocking. A full
// buffer drops the frame for this slow consumer rather than stalling
// the sender, and a closed session takes nothing at all.
func (s *Session) enqueue(frame []byte) bool {
	if s.closed() {
		return false
	}
	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

// close transitions to Closed exactly once, detaches from the
// registry, and shuts the transport.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		s.setState(stateClosed)
		s.hub.detach(s)
		if s.conn != nil {
			s.conn.Close()
		}
	})
}

// sendIntent is the inbound chatMessage frame.
type sendIntent struct {
	Event   string `json:"event"`
	To      int64  `json:"to"`
	Message string `json:"message"`
}

func (s *Session) readPump() {
	defer s.close()

	s.conn.SetReadLimit(maxMsgSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("chat: read error for user %d: %v", s.userID, err)
			}
			return
		}

		var intent sendIntent
		if err := json.Unmarshal(raw, &intent); err != nil {
			log.Printf("chat: bad frame from user %d: %v", s.userID, err)
			continue
		}
		if intent.Event != "chatMessage" || intent.To == 0 || intent.Message == "" {
			continue
		}
		s.hub.HandleMessage(s.userID, intent.To, intent.Message)
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case frame, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
