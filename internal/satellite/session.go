// Package satellite implements the hub-facing connection state
// machine: handshake, device/entity advertisement, voice-pipeline
// lifecycle, timers, announcements, and bidirectional audio, all
// driven from a single protocol/network goroutine that owns every
// socket, timer, and player completion notification.
package satellite

import (
	"net"
	"sync"

	"github.com/voxsat/satellite/internal/codec"
	"github.com/voxsat/satellite/internal/logger"
)

// state is the session's position in the handshake state machine.
type state int

const (
	stateClosed state = iota
	stateOpened
	stateHelloed
	stateAuthenticated
	stateConfigured
)

func (s state) String() string {
	switch s {
	case stateClosed:
		return "closed"
	case stateOpened:
		return "opened"
	case stateHelloed:
		return "hello'd"
	case stateAuthenticated:
		return "authenticated"
	case stateConfigured:
		return "configured"
	default:
		return "unknown"
	}
}

// Session is one TCP connection's worth of protocol state. Every
// field below is touched exclusively from the server's single
// protocol-context goroutine; the mutex exists only so tests and
// diagnostics may safely read state from another goroutine.
type Session struct {
	id   uint64
	conn net.Conn
	log  *logger.Logger

	reader codec.Reader

	mu sync.Mutex

	connState state

	// Voice-pipeline bookkeeping.
	streamingAudio       bool
	ttsURL               string
	ttsPlayed            bool
	continueConversation bool
	timerRinging         bool
}

func newSession(id uint64, conn net.Conn, log *logger.Logger) *Session {
	return &Session{id: id, conn: conn, log: log, connState: stateOpened}
}

// ID identifies this connection for the post-and-lookup pattern:
// posted closures capture a session's ID and re-resolve it through
// the server before running, so a stale closure from a since-replaced
// connection is a safe no-op.
func (s *Session) ID() uint64 { return s.id }

func (s *Session) getState() state {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connState
}

func (s *Session) setState(v state) {
	s.mu.Lock()
	s.connState = v
	s.mu.Unlock()
}

// StreamingAudio reports whether the satellite is currently expected
// to be forwarding captured audio for this session.
func (s *Session) StreamingAudio() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamingAudio
}

func (s *Session) setStreaming(v bool) {
	s.mu.Lock()
	s.streamingAudio = v
	s.mu.Unlock()
}

// send writes one framed message to the connection. It is only ever
// called from the protocol context, so no additional locking is
// needed around the write itself.
func (s *Session) send(msgType uint64, payload []byte) error {
	buf := codec.Encode(nil, msgType, payload)
	_, err := s.conn.Write(buf)
	return err
}

// close tears down the underlying connection. Idempotent.
func (s *Session) close() {
	s.setState(stateClosed)
	_ = s.conn.Close()
}
