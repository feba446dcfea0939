package satellite

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/voxsat/satellite/internal/catalog"
	"github.com/voxsat/satellite/internal/domain"
	"github.com/voxsat/satellite/internal/entity"
	"github.com/voxsat/satellite/internal/eventbus"
	"github.com/voxsat/satellite/internal/logger"
	"github.com/voxsat/satellite/internal/player"
	"github.com/voxsat/satellite/internal/prefs"
	"github.com/voxsat/satellite/internal/proto"
	"github.com/voxsat/satellite/internal/wakeword"
)

// DeviceInfo is the static device description reported on a
// device-info request.
type DeviceInfo struct {
	Name       string
	MacAddress string
}

// Config bundles the parameters the server needs at construction time
// that don't belong to any one shared-state component.
type Config struct {
	Device             DeviceInfo
	MaxActiveWakeWords uint32
	WakeUpSoundURL     string
	TimerSoundURL      string
	ProtocolVersion    string
}

// Server is the satellite protocol endpoint: one TCP listener, at
// most one in-flight Session, and the single protocol/network context
// that owns every socket, timer, and player completion notification.
// All cross-context traffic (detector postings, player completions)
// funnels through postCh and is only ever acted on from the Run
// goroutine.
type Server struct {
	cfg Config
	log *logger.Logger

	registry *entity.Registry
	catalog  *catalog.Catalog
	pool     *wakeword.Pool
	prefs    *prefs.Store
	players  *player.Pair
	bus      *eventbus.Bus

	listener net.Listener

	mu      sync.Mutex
	session *Session
	nextID  uint64

	acceptCh chan net.Conn
	dataCh   chan dataEvent
	postCh   chan func()

	closed atomic.Bool
}

type dataEvent struct {
	sessionID uint64
	data      []byte
	err       error
}

// New constructs a Server. Call Listen then Run to start serving.
func New(cfg Config, registry *entity.Registry, cat *catalog.Catalog, pool *wakeword.Pool, prefsStore *prefs.Store, players *player.Pair, bus *eventbus.Bus, log *logger.Logger) *Server {
	if cfg.ProtocolVersion == "" {
		cfg.ProtocolVersion = "1.9"
	}
	return &Server{
		cfg:      cfg,
		log:      log,
		registry: registry,
		catalog:  cat,
		pool:     pool,
		prefs:    prefsStore,
		players:  players,
		bus:      bus,
		acceptCh: make(chan net.Conn, 4),
		dataCh:   make(chan dataEvent, 16),
		postCh:   make(chan func(), 64),
	}
}

// Listen opens the TCP listener at addr. Call Run afterward to begin
// serving accepted connections.
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("satellite: listen %s: %w", addr, err)
	}
	s.listener = ln
	s.log.Info("satellite: listening on %s", addr)
	return nil
}

// Addr returns the bound listener address. Valid after Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run accepts connections and drives the single protocol-context
// event loop until ctx is cancelled. It returns after the listener and
// any in-flight session have been closed.
func (s *Server) Run(ctx context.Context) error {
	if s.listener != nil {
		go s.acceptLoop()
	}

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return nil
		case conn := <-s.acceptCh:
			s.onAccept(conn)
		case ev := <-s.dataCh:
			s.onData(ev)
		case fn := <-s.postCh:
			fn()
		}
	}
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closed.Load() {
				return
			}
			s.log.Warn("satellite: accept: %v", err)
			return
		}
		s.acceptCh <- conn
	}
}

func (s *Server) shutdown() {
	s.closed.Store(true)
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.mu.Lock()
	sess := s.session
	s.session = nil
	s.mu.Unlock()
	if sess != nil {
		sess.close()
	}
}

// onAccept replaces any previous session with a fresh one; the
// satellite serves a single hub, so a new connection supersedes the
// old rather than being refused.
func (s *Server) onAccept(conn net.Conn) {
	s.mu.Lock()
	prev := s.session
	s.nextID++
	id := s.nextID
	sess := newSession(id, conn, s.log)
	s.session = sess
	s.mu.Unlock()

	if prev != nil {
		s.log.Info("satellite: replacing connection %d with %d", prev.id, id)
		prev.close()
	}

	s.pool.DisarmStopWord()
	s.log.Info("satellite: accepted connection %d from %s", id, conn.RemoteAddr())
	go s.readLoop(sess)
}

func (s *Server) readLoop(sess *Session) {
	buf := make([]byte, 4096)
	for {
		n, err := sess.conn.Read(buf)
		if n > 0 {
			cp := make([]byte, n)
			copy(cp, buf[:n])
			s.dataCh <- dataEvent{sessionID: sess.id, data: cp}
		}
		if err != nil {
			s.dataCh <- dataEvent{sessionID: sess.id, err: err}
			return
		}
	}
}

// currentSession returns the in-flight session, or nil.
func (s *Server) currentSession() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// post schedules fn to run on the protocol context against sess, but
// only if sess is still the current session when fn runs. This keeps
// detector and player-callback closures from acting on a replaced
// connection through a stale back-pointer.
func (s *Server) post(sess *Session, fn func(*Session)) {
	id := sess.id
	s.postCh <- func() {
		cur := s.currentSession()
		if cur == nil || cur.id != id {
			return
		}
		fn(cur)
	}
}

// Post lets components without a Session handle (the player pair)
// schedule fn to run on the protocol context. Unlike post, it does not
// check for a current session: fn always runs, and must itself look up
// the session if it needs one.
func (s *Server) Post(fn func()) {
	s.postCh <- fn
}

func (s *Server) onData(ev dataEvent) {
	s.mu.Lock()
	sess := s.session
	s.mu.Unlock()
	if sess == nil || sess.id != ev.sessionID {
		return // stale event from a replaced connection
	}

	if ev.err != nil {
		s.log.Info("satellite: connection %d closed: %v", sess.id, ev.err)
		s.onDisconnect(sess)
		return
	}

	frames, err := sess.reader.Feed(ev.data)
	for _, f := range frames {
		s.dispatch(sess, proto.MsgType(f.Type), f.Payload)
	}
	if err != nil {
		s.log.Warn("satellite: connection %d: malformed frame, closing: %v", sess.id, err)
		s.onDisconnect(sess)
	}
}

func (s *Server) onDisconnect(sess *Session) {
	s.mu.Lock()
	if s.session == sess {
		s.session = nil
	}
	s.mu.Unlock()
	sess.close()
	sess.setStreaming(false)
	s.pool.DisarmStopWord()
}

func (s *Server) dispatch(sess *Session, msgType proto.MsgType, payload []byte) {
	switch msgType {
	case proto.MsgHelloRequest:
		s.handleHello(sess, payload)
	case proto.MsgAuthRequest:
		s.handleAuth(sess, payload)
	case proto.MsgPingRequest:
		_ = sess.send(uint64(proto.MsgPingResponse), proto.PingResponse{}.Encode())
	case proto.MsgDisconnectRequest:
		_ = sess.send(uint64(proto.MsgDisconnectResponse), proto.DisconnectResponse{}.Encode())
		s.onDisconnect(sess)
	case proto.MsgDeviceInfoRequest:
		s.handleDeviceInfo(sess)
	case proto.MsgListEntitiesRequest:
		s.handleListEntities(sess)
	case proto.MsgSwitchCommandRequest, proto.MsgMediaPlayerCommandRequest:
		s.handleEntityCommand(sess, msgType, payload)
	case proto.MsgVoiceAssistantConfigurationRequest:
		s.handleVAConfigRequest(sess)
	case proto.MsgVoiceAssistantSetConfiguration:
		s.handleVASetConfig(sess, payload)
	case proto.MsgVoiceAssistantEventResponse:
		s.handleVAEvent(sess, payload)
	case proto.MsgVoiceAssistantAnnounceRequest:
		s.handleAnnounceRequest(sess, payload)
	case proto.MsgVoiceAssistantTimerEventResponse:
		s.handleTimerEvent(sess, payload)
	default:
		s.log.Debug("satellite: connection %d: unhandled message type %d", sess.id, msgType)
	}
}

func (s *Server) handleHello(sess *Session, payload []byte) {
	if _, err := proto.DecodeHelloRequest(payload); err != nil {
		s.log.Warn("satellite: bad hello request: %v", err)
		return
	}
	resp := proto.HelloResponse{ProtocolVersion: s.cfg.ProtocolVersion, Name: s.cfg.Device.Name}
	_ = sess.send(uint64(proto.MsgHelloResponse), resp.Encode())
	sess.setState(stateHelloed)
}

func (s *Server) handleAuth(sess *Session, payload []byte) {
	if _, err := proto.DecodeAuthRequest(payload); err != nil {
		s.log.Warn("satellite: bad auth request: %v", err)
		return
	}
	// Authentication always succeeds; the satellite trusts its hub.
	resp := proto.AuthResponse{InvalidPassword: false}
	_ = sess.send(uint64(proto.MsgAuthResponse), resp.Encode())
	sess.setState(stateAuthenticated)
}

func (s *Server) handleDeviceInfo(sess *Session) {
	resp := proto.DeviceInfoResponse{
		Name:              s.cfg.Device.Name,
		MacAddress:        s.cfg.Device.MacAddress,
		VoiceAssistant:    true,
		APIAudio:          true,
		Announce:          true,
		StartConversation: true,
		Timers:            true,
	}
	_ = sess.send(uint64(proto.MsgDeviceInfoResponse), resp.Encode())
}

func (s *Server) handleListEntities(sess *Session) {
	sess.setState(stateConfigured)
	for _, e := range s.registry.DescribeAll() {
		_ = sess.send(uint64(e.Type), e.Payload)
	}
}

func commandKey(msgType proto.MsgType, payload []byte) (uint32, bool) {
	switch msgType {
	case proto.MsgSwitchCommandRequest:
		cmd, err := proto.DecodeSwitchCommandRequest(payload)
		return cmd.Key, err == nil
	case proto.MsgMediaPlayerCommandRequest:
		cmd, err := proto.DecodeMediaPlayerCommandRequest(payload)
		return cmd.Key, err == nil
	}
	return 0, false
}

func (s *Server) handleEntityCommand(sess *Session, msgType proto.MsgType, payload []byte) {
	handled, err := s.registry.Dispatch(msgType, payload)
	if err != nil {
		s.log.Warn("satellite: entity command error: %v", err)
		return
	}
	if !handled {
		return
	}
	if key, ok := commandKey(msgType, payload); ok {
		if e, ok := s.registry.Get(key); ok {
			t, p := e.State()
			_ = sess.send(uint64(t), p)
		}
	}
}

func (s *Server) handleVAConfigRequest(sess *Session) {
	entries := s.catalog.List()
	infos := make([]proto.WakeWordInfo, len(entries))
	for i, e := range entries {
		infos[i] = proto.WakeWordInfo{ID: e.ID, WakeWord: e.Phrase, TrainedLanguages: e.TrainedLanguages}
	}
	resp := proto.VoiceAssistantConfigurationResponse{
		AvailableWakeWords: infos,
		ActiveWakeWordIDs:  s.pool.ActiveIDs(),
		MaxActiveWakeWords: s.cfg.MaxActiveWakeWords,
	}
	_ = sess.send(uint64(proto.MsgVoiceAssistantConfigurationResponse), resp.Encode())
}

func (s *Server) handleVASetConfig(sess *Session, payload []byte) {
	req, err := proto.DecodeVoiceAssistantSetConfiguration(payload)
	if err != nil {
		s.log.Warn("satellite: bad set-configuration: %v", err)
		return
	}
	if err := s.pool.SetActive(req.ActiveWakeWordIDs); err != nil {
		s.log.Error("satellite: set-configuration: %v", err)
		return
	}
	if err := s.prefs.SetActiveWakeWords(req.ActiveWakeWordIDs); err != nil {
		s.log.Error("satellite: persisting active wake words: %v", err)
	}
}

func encodePCM(chunk domain.AudioChunk) []byte {
	out := make([]byte, len(chunk)*2)
	for i, v := range chunk {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

// SubmitAudioFrame is called from the detector context for every
// AudioChunk it processes. It is a no-op unless a configured session
// is actively streaming.
func (s *Server) SubmitAudioFrame(chunk domain.AudioChunk) {
	s.Post(func() {
		sess := s.currentSession()
		if sess == nil || sess.getState() != stateConfigured || !sess.StreamingAudio() {
			return
		}
		msg := proto.VoiceAssistantAudio{Data: encodePCM(chunk)}
		_ = sess.send(uint64(proto.MsgVoiceAssistantAudio), msg.Encode())
	})
}

// SubmitWakeWord is called from the detector context when detectorID
// fires.
func (s *Server) SubmitWakeWord(detectorID string) {
	s.Post(func() {
		sess := s.currentSession()
		if sess == nil || sess.getState() != stateConfigured {
			return
		}
		s.onWakeup(sess, detectorID)
	})
}

// SubmitStopWord is called from the detector context when the
// dedicated stop-word detector fires.
func (s *Server) SubmitStopWord() {
	s.Post(func() {
		sess := s.currentSession()
		if sess == nil || sess.getState() != stateConfigured {
			return
		}
		s.onStop(sess)
	})
}
