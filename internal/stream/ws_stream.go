package stream

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// ErrNoSession is returned when no websocket is connected for a user.
var ErrNoSession = errors.New("no ws session")

// Session is one connected client. Writes are serialized; gorilla
// connections do not allow concurrent writers.
type Session struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *Session) Send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

// Registry tracks live sessions by user id and pushes each comparison
// result to whoever is watching. Best-effort: a failed or missing
// session never fails the comparison itself.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry { return &Registry{sessions: make(map[string]*Session)} }

// Add registers the connection and returns its session. Any previous
// connection for the user is closed; its reader must pass the returned
// session to Remove so it can only evict itself.
func (r *Registry) Add(userID string, conn *websocket.Conn) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.sessions[userID]; ok {
		_ = old.conn.Close()
	}
	sess := &Session{conn: conn}
	r.sessions[userID] = sess
	return sess
}

// Remove drops the session only while it is still the registered one.
// Closing an old connection on reconnect wakes that connection's
// reader; without the identity check it would delete the fresh session
// and the user would silently stop receiving pushes.
func (r *Registry) Remove(userID string, sess *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[userID] == sess {
		delete(r.sessions, userID)
	}
}

func (r *Registry) Push(userID string, v any) error {
	r.mu.RLock()
	s, ok := r.sessions[userID]
	r.mu.RUnlock()
	if !ok {
		return ErrNoSession
	}
	if err := s.Send(v); err != nil {
		slog.Warn("ws send failed", "user_id", userID, "error", err)
		return err
	}
	return nil
}
