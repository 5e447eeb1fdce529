package ws

import (
	"sync"

	"github.com/google/uuid"

	"github.com/cortexa-labs/cortexa-backend/internal/logger"
)

type sessionKey struct {
	AssistantID uuid.UUID
	CustomerID  string
}

// Hub is the process-wide session registry keyed by (assistant, customer).
// One live channel per key: a second connect with the same key replaces the
// first, which is closed.
type Hub struct {
	log *logger.Logger

	mu       sync.Mutex
	sessions map[sessionKey]*Session
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:      log.With("component", "SessionHub"),
		sessions: make(map[sessionKey]*Session),
	}
}

func (h *Hub) register(s *Session) {
	h.mu.Lock()
	prev := h.sessions[s.key]
	h.sessions[s.key] = s
	h.mu.Unlock()

	if prev != nil {
		h.log.Info("Replacing existing session",
			"assistant_id", s.key.AssistantID, "customer_id", s.key.CustomerID)
		prev.Close()
	}
}

// unregister removes the key only if it still points at s, so a replaced
// session closing late cannot evict its replacement.
func (h *Hub) unregister(s *Session) {
	h.mu.Lock()
	if h.sessions[s.key] == s {
		delete(h.sessions, s.key)
	}
	h.mu.Unlock()
}

func (h *Hub) SessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}
