package bridge

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/transplant-bridge/messenger-go/pkg/engine"
	"github.com/transplant-bridge/messenger-go/pkg/fault"
	"github.com/transplant-bridge/messenger-go/pkg/log"
)

// Session states.
type SessionState int

const (
	// StateClosed indicates no transport resources are held.
	StateClosed SessionState = iota

	// StateOpen indicates the context/socket pair is live.
	StateOpen
)

// String returns the session state name.
func (s SessionState) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	default:
		return "UNKNOWN"
	}
}

// position tracks the half-duplex alternation of the request/reply
// pattern: a receive must complete before a send is allowed, and vice
// versa. Tracked here explicitly so misuse is reported as a precise
// state failure instead of depending on the engine's own rejection.
type position int

const (
	awaitingRequest position = iota
	awaitingReply
)

// MaxLogPayloadSize is the maximum payload size included in log events.
// Larger payloads are truncated in events to bound memory usage.
const MaxLogPayloadSize = 4096

// Config configures a bridge session.
type Config struct {
	// Logger receives bridge events. Nil disables event logging.
	Logger log.Logger

	// SessionID identifies the session in log events.
	// A UUID is generated when empty.
	SessionID string

	// RecvTimeout bounds how long Receive may block (0 = no bound).
	RecvTimeout time.Duration

	// SendTimeout bounds how long Send may block (0 = no bound).
	SendTimeout time.Duration

	// ReplaceOnOpen makes Open on an already-open session tear down the
	// existing context/socket pair first. The default is to reject the
	// second Open, which would otherwise leak the previous pair.
	ReplaceOnOpen bool

	// StrictClose makes Close on an already-closed session report a
	// state failure. The default treats it as a no-op.
	StrictClose bool
}

// Session owns exactly one transport context and one reply-pattern
// socket, created and destroyed strictly together. It enforces the
// open → (receive → send)* → close lifecycle and classifies every
// failure into the fault taxonomy.
//
// A session expects a single logical caller. Operations are serialized
// internally so that misuse from multiple goroutines degrades into
// state failures rather than corrupting the context/socket pair.
type Session struct {
	config Config
	eng    engine.Engine
	logger log.Logger
	id     string

	mu       sync.Mutex
	state    SessionState
	pos      position
	ctx      engine.Context
	socket   engine.Socket
	endpoint string
}

// NewSession creates a session in the Closed state.
// No transport resources are allocated until Open.
func NewSession(eng engine.Engine, config Config) *Session {
	if config.SessionID == "" {
		config.SessionID = uuid.NewString()
	}
	logger := config.Logger
	if logger == nil {
		logger = log.NoopLogger{}
	}

	return &Session{
		config: config,
		eng:    eng,
		logger: logger,
		id:     config.SessionID,
		state:  StateClosed,
		pos:    awaitingRequest,
	}
}

// ID returns the session identifier used in log events.
func (s *Session) ID() string {
	return s.id
}

// State returns the current session state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Open creates a transport context, creates a reply-pattern socket on
// it, and connects the socket to the endpoint. The session transitions
// to Open only on full success; any failure rolls back whatever half
// was created and leaves the session Closed.
func (s *Session) Open(endpoint string) error {
	const op = "open"

	if endpoint == "" {
		return s.fail(fault.New(fault.KindUsage, op, "endpoint address must not be empty"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateOpen {
		if !s.config.ReplaceOnOpen {
			return s.fail(fault.New(fault.KindState, op, "session already open"))
		}
		// Replacement policy: release the current pair before opening anew.
		s.teardownLocked("replaced by open")
	}

	ctx, err := s.eng.NewContext()
	if err != nil {
		return s.fail(err)
	}

	sock, err := ctx.NewReplySocket()
	if err != nil {
		ctx.Terminate()
		return s.fail(err)
	}

	if err := s.applyDeadlines(sock); err != nil {
		sock.Close()
		ctx.Terminate()
		return s.fail(err)
	}

	if err := sock.Connect(endpoint); err != nil {
		sock.Close()
		ctx.Terminate()
		return s.fail(err)
	}

	s.ctx = ctx
	s.socket = sock
	s.endpoint = endpoint
	s.state = StateOpen
	s.pos = awaitingRequest

	s.logStateChange(StateClosed, StateOpen, "")
	return nil
}

// Receive blocks until a request arrives and returns its payload. The
// returned buffer is owned by the caller; zero bytes inside the payload
// are preserved. A successful Receive moves the session to the
// awaiting-reply position: the next operation must be Send.
func (s *Session) Receive() ([]byte, error) {
	const op = "receive"

	s.mu.Lock()
	if s.state != StateOpen {
		s.mu.Unlock()
		return nil, s.fail(fault.New(fault.KindState, op, "session is not open"))
	}
	if s.pos != awaitingRequest {
		s.mu.Unlock()
		return nil, s.fail(fault.New(fault.KindState, op, "reply pending, send must follow receive"))
	}
	sock := s.socket
	s.mu.Unlock()

	// Block outside the lock so Close remains possible while waiting.
	payload, err := sock.Recv()
	if err != nil {
		return nil, s.fail(err)
	}

	s.mu.Lock()
	if s.state == StateOpen && s.socket == sock {
		s.pos = awaitingReply
	}
	s.mu.Unlock()

	s.logFrame(log.DirectionIn, payload)
	return payload, nil
}

// Send transmits the payload as a single reply to the peer that issued
// the last received request. Success means the engine accepted exactly
// len(payload) bytes; a partial accept is a failure. A successful Send
// moves the session back to the awaiting-request position.
func (s *Session) Send(payload []byte) error {
	const op = "send"

	s.mu.Lock()
	if s.state != StateOpen {
		s.mu.Unlock()
		return s.fail(fault.New(fault.KindState, op, "session is not open"))
	}
	if s.pos != awaitingReply {
		s.mu.Unlock()
		return s.fail(fault.New(fault.KindState, op, "no request pending, receive must precede send"))
	}
	sock := s.socket
	s.mu.Unlock()

	n, err := sock.Send(payload)
	if err != nil {
		return s.fail(err)
	}
	if n != len(payload) {
		return s.fail(fault.New(fault.KindConnection, op,
			fmt.Sprintf("partial send: engine accepted %d of %d bytes", n, len(payload))))
	}

	s.mu.Lock()
	if s.state == StateOpen && s.socket == sock {
		s.pos = awaitingRequest
	}
	s.mu.Unlock()

	s.logFrame(log.DirectionOut, payload)
	return nil
}

// Close releases the socket and terminates the context, best-effort:
// both sub-steps run even if the first fails, and the session is Closed
// afterwards regardless. An interrupted termination surfaces as a
// retryable Interrupted failure. Closing an already-closed session is a
// no-op unless Config.StrictClose is set.
func (s *Session) Close() error {
	const op = "close"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateOpen {
		if s.config.StrictClose {
			return s.fail(fault.New(fault.KindState, op, "session already closed"))
		}
		return nil
	}

	return s.teardownLocked("")
}

// teardownLocked releases the context/socket pair. Caller holds s.mu.
func (s *Session) teardownLocked(reason string) error {
	var firstErr error

	if s.socket != nil {
		if err := s.socket.Close(); err != nil {
			firstErr = err
		}
	}
	if s.ctx != nil {
		if err := s.ctx.Terminate(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	s.socket = nil
	s.ctx = nil
	old := s.state
	s.state = StateClosed
	s.pos = awaitingRequest

	s.logStateChange(old, StateClosed, reason)

	if firstErr != nil {
		return s.fail(firstErr)
	}
	return nil
}

// applyDeadlines configures the socket's blocking bounds from the config.
func (s *Session) applyDeadlines(sock engine.Socket) error {
	if s.config.RecvTimeout > 0 {
		if err := sock.SetRecvDeadline(s.config.RecvTimeout); err != nil {
			return err
		}
	}
	if s.config.SendTimeout > 0 {
		if err := sock.SetSendDeadline(s.config.SendTimeout); err != nil {
			return err
		}
	}
	return nil
}

// fail logs a classified failure and passes it through unchanged.
func (s *Session) fail(err error) error {
	if err == nil {
		return nil
	}

	ev := log.Event{
		Timestamp: time.Now(),
		SessionID: s.id,
		Category:  log.CategoryError,
		Endpoint:  s.endpoint,
		Error: &log.ErrorEvent{
			Message: err.Error(),
		},
	}
	if kind, ok := fault.KindOf(err); ok {
		ev.Error.Kind = kind.String()
	}
	var fe *fault.Error
	if errors.As(err, &fe) {
		ev.Error.Op = fe.Op
	}

	s.logger.Log(ev)
	return err
}

// logFrame records a received or sent payload, truncated above the cap.
func (s *Session) logFrame(direction log.Direction, payload []byte) {
	data := payload
	truncated := false
	if len(payload) > MaxLogPayloadSize {
		data = payload[:MaxLogPayloadSize]
		truncated = true
	}

	s.logger.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: s.id,
		Direction: direction,
		Category:  log.CategoryMessage,
		Endpoint:  s.endpoint,
		Frame: &log.FrameEvent{
			Size:      len(payload),
			Data:      data,
			Truncated: truncated,
		},
	})
}

// logStateChange records a session state transition.
func (s *Session) logStateChange(oldState, newState SessionState, reason string) {
	s.logger.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: s.id,
		Category:  log.CategoryState,
		Endpoint:  s.endpoint,
		StateChange: &log.StateChangeEvent{
			OldState: oldState.String(),
			NewState: newState.String(),
			Reason:   reason,
		},
	})
}
