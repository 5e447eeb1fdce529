package ws

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/cortexa-labs/cortexa-backend/internal/logger"
	"github.com/cortexa-labs/cortexa-backend/internal/services"
	"github.com/cortexa-labs/cortexa-backend/internal/types"
)

// Progress marker frames. Clients render a typing indicator between them, so
// they must arrive as separate frames, in order, never merged with the reply.
const (
	FrameThinkingStarted = "@@@"
	FrameThinkingStopped = "###"
)

// Conn is the subset of *websocket.Conn the session uses.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Session drives one customer's conversation over one websocket. Turns are
// strictly sequential: the read loop does not pick up the next message until
// the current turn's frames have been written.
type Session struct {
	log          *logger.Logger
	hub          *Hub
	key          sessionKey
	conn         Conn
	chat         services.ChatService
	conversation *types.Conversation
	welcome      string
	frameGap     time.Duration

	writeMu   sync.Mutex
	lastWrite time.Time
	closeOnce sync.Once
}

func NewSession(
	log *logger.Logger,
	hub *Hub,
	conn Conn,
	chat services.ChatService,
	conversation *types.Conversation,
	welcome string,
	frameGap time.Duration,
) *Session {
	key := sessionKey{AssistantID: conversation.AssistantID, CustomerID: conversation.CustomerID}
	return &Session{
		log: log.With("component", "Session",
			"assistant_id", key.AssistantID,
			"customer_id", key.CustomerID,
			"conversation_id", conversation.ID),
		hub:          hub,
		key:          key,
		conn:         conn,
		chat:         chat,
		conversation: conversation,
		welcome:      welcome,
		frameGap:     frameGap,
	}
}

func (s *Session) ConversationID() uuid.UUID { return s.conversation.ID }

// Run registers the session and processes turns until the peer disconnects
// or a turn fails. Either way the session unregisters itself on the way out.
func (s *Session) Run(ctx context.Context) {
	s.hub.register(s)
	defer s.Close()

	if s.welcome != "" {
		if err := s.send(s.welcome); err != nil {
			s.log.Debug("Failed to send welcome, closing", "error", err)
			return
		}
	}

	for {
		if ctx.Err() != nil {
			return
		}
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			s.log.Debug("Session read ended", "error", err)
			return
		}
		text := strings.TrimSpace(string(raw))
		if text == "" {
			continue
		}
		if err := s.turn(ctx, text); err != nil {
			s.log.Error("Turn failed, closing session", "error", err)
			return
		}
	}
}

// turn emits the fixed frame sequence for one exchange: persist the customer
// message, thinking-started, generate and persist the reply, thinking-stopped,
// reply text.
func (s *Session) turn(ctx context.Context, text string) error {
	if err := s.chat.RecordCustomerMessage(ctx, s.conversation.ID, text); err != nil {
		return err
	}
	if err := s.send(FrameThinkingStarted); err != nil {
		return err
	}

	reply, err := s.chat.GenerateReply(ctx, s.conversation.AssistantID, s.conversation.ID, text)
	if err != nil {
		return err
	}

	if err := s.send(FrameThinkingStopped); err != nil {
		return err
	}
	return s.send(reply)
}

// send writes one text frame, spacing writes by frameGap so proxies and
// client runtimes cannot coalesce marker frames with the reply.
func (s *Session) send(text string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.frameGap > 0 {
		if wait := s.frameGap - time.Since(s.lastWrite); wait > 0 {
			time.Sleep(wait)
		}
	}
	err := s.conn.WriteMessage(websocket.TextMessage, []byte(text))
	s.lastWrite = time.Now()
	return err
}

func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.hub.unregister(s)
		_ = s.conn.Close()
	})
}
