package ws

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cortexa-labs/cortexa-backend/internal/logger"
	"github.com/cortexa-labs/cortexa-backend/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

type fakeConn struct {
	in        chan []byte
	out       chan string
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan []byte, 8),
		out:    make(chan string, 8),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case msg := <-c.in:
		return 1, msg, nil
	case <-c.closed:
		return 0, nil, net.ErrClosed
	}
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	select {
	case c.out <- string(data):
		return nil
	case <-c.closed:
		return net.ErrClosed
	}
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

type fakeChat struct {
	mu       sync.Mutex
	recorded []string
	reply    string
	err      error
}

func (f *fakeChat) RecordCustomerMessage(_ context.Context, _ uuid.UUID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, text)
	return nil
}

func (f *fakeChat) GenerateReply(_ context.Context, _, _ uuid.UUID, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeChat) recordedMessages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.recorded...)
}

func testConversation(assistantID uuid.UUID, customerID string) *types.Conversation {
	return &types.Conversation{
		ID:          uuid.New(),
		AssistantID: assistantID,
		CustomerID:  customerID,
		CreatedAt:   time.Now().UTC(),
	}
}

func recvFrame(t *testing.T, conn *fakeConn, timeout time.Duration) string {
	t.Helper()
	select {
	case frame := <-conn.out:
		return frame
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for frame")
	}
	return ""
}

func waitClosed(t *testing.T, conn *fakeConn, timeout time.Duration) {
	t.Helper()
	select {
	case <-conn.closed:
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for connection close")
	}
}

func TestSessionTurnFrameOrder(t *testing.T) {
	hub := NewHub(testLogger(t))
	conn := newFakeConn()
	chat := &fakeChat{reply: "The reply text."}
	session := NewSession(testLogger(t), hub, conn, chat, testConversation(uuid.New(), "cust-1"), "Welcome!", time.Millisecond)

	go session.Run(context.Background())

	if got := recvFrame(t, conn, time.Second); got != "Welcome!" {
		t.Fatalf("welcome frame: %q", got)
	}

	conn.in <- []byte("hello there")

	if got := recvFrame(t, conn, time.Second); got != FrameThinkingStarted {
		t.Fatalf("first frame: want=%q got=%q", FrameThinkingStarted, got)
	}
	if got := recvFrame(t, conn, time.Second); got != FrameThinkingStopped {
		t.Fatalf("second frame: want=%q got=%q", FrameThinkingStopped, got)
	}
	if got := recvFrame(t, conn, time.Second); got != "The reply text." {
		t.Fatalf("reply frame: %q", got)
	}

	recorded := chat.recordedMessages()
	if len(recorded) != 1 || recorded[0] != "hello there" {
		t.Fatalf("customer message not recorded: %v", recorded)
	}

	session.Close()
	waitClosed(t, conn, time.Second)
}

func TestSessionEnforcesFrameGap(t *testing.T) {
	hub := NewHub(testLogger(t))
	conn := newFakeConn()
	chat := &fakeChat{reply: "ok"}
	gap := 30 * time.Millisecond
	session := NewSession(testLogger(t), hub, conn, chat, testConversation(uuid.New(), "cust-1"), "", gap)

	go session.Run(context.Background())
	conn.in <- []byte("query")

	_ = recvFrame(t, conn, time.Second) // thinking started
	before := time.Now()
	if got := recvFrame(t, conn, time.Second); got != FrameThinkingStopped {
		t.Fatalf("want thinking stopped, got %q", got)
	}
	if elapsed := time.Since(before); elapsed < gap/2 {
		t.Fatalf("frames not spaced: %v", elapsed)
	}

	session.Close()
}

func TestSessionSecondConnectReplacesFirst(t *testing.T) {
	hub := NewHub(testLogger(t))
	assistantID := uuid.New()
	log := testLogger(t)
	chat := &fakeChat{reply: "ok"}

	connA := newFakeConn()
	sessionA := NewSession(log, hub, connA, chat, testConversation(assistantID, "cust-1"), "", 0)
	go sessionA.Run(context.Background())

	// Wait until A is registered so the replacement is deterministic.
	deadline := time.Now().Add(time.Second)
	for hub.SessionCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("session A never registered")
		}
		time.Sleep(time.Millisecond)
	}

	connB := newFakeConn()
	sessionB := NewSession(log, hub, connB, chat, testConversation(assistantID, "cust-1"), "", 0)
	go sessionB.Run(context.Background())

	waitClosed(t, connA, time.Second)
	if connB.isClosed() {
		t.Fatalf("replacement session must stay open")
	}
	if hub.SessionCount() != 1 {
		t.Fatalf("session count: want=1 got=%d", hub.SessionCount())
	}

	sessionB.Close()
	if hub.SessionCount() != 0 {
		t.Fatalf("session count after close: %d", hub.SessionCount())
	}
}

func TestSessionDistinctCustomersCoexist(t *testing.T) {
	hub := NewHub(testLogger(t))
	assistantID := uuid.New()
	log := testLogger(t)
	chat := &fakeChat{reply: "ok"}

	connA := newFakeConn()
	go NewSession(log, hub, connA, chat, testConversation(assistantID, "cust-1"), "", 0).Run(context.Background())
	connB := newFakeConn()
	go NewSession(log, hub, connB, chat, testConversation(assistantID, "cust-2"), "", 0).Run(context.Background())

	deadline := time.Now().Add(time.Second)
	for hub.SessionCount() != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("sessions never registered: count=%d", hub.SessionCount())
		}
		time.Sleep(time.Millisecond)
	}
	if connA.isClosed() || connB.isClosed() {
		t.Fatalf("distinct customers must not replace each other")
	}
	_ = connA.Close()
	_ = connB.Close()
}

func TestSessionMidTurnFailureClosesSession(t *testing.T) {
	hub := NewHub(testLogger(t))
	conn := newFakeConn()
	chat := &fakeChat{err: errors.New("generation exploded")}
	session := NewSession(testLogger(t), hub, conn, chat, testConversation(uuid.New(), "cust-1"), "", 0)

	go session.Run(context.Background())
	conn.in <- []byte("trigger failure")

	if got := recvFrame(t, conn, time.Second); got != FrameThinkingStarted {
		t.Fatalf("want thinking started, got %q", got)
	}
	waitClosed(t, conn, time.Second)
	if hub.SessionCount() != 0 {
		t.Fatalf("failed session still registered")
	}
}

func TestSessionIgnoresEmptyFrames(t *testing.T) {
	hub := NewHub(testLogger(t))
	conn := newFakeConn()
	chat := &fakeChat{reply: "ok"}
	session := NewSession(testLogger(t), hub, conn, chat, testConversation(uuid.New(), "cust-1"), "", 0)

	go session.Run(context.Background())
	conn.in <- []byte("   ")
	conn.in <- []byte("real question")

	if got := recvFrame(t, conn, time.Second); got != FrameThinkingStarted {
		t.Fatalf("want thinking started, got %q", got)
	}
	recorded := chat.recordedMessages()
	if len(recorded) != 1 || recorded[0] != "real question" {
		t.Fatalf("empty frame should be ignored: %v", recorded)
	}
	session.Close()
}
