package nanomsg

import (
	"sync"
	"time"

	mangos "go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/rep"

	// Register the transports the bridge supports.
	_ "go.nanomsg.org/mangos/v3/transport/inproc"
	_ "go.nanomsg.org/mangos/v3/transport/ipc"
	_ "go.nanomsg.org/mangos/v3/transport/tcp"

	"github.com/transplant-bridge/messenger-go/pkg/engine"
	"github.com/transplant-bridge/messenger-go/pkg/fault"
)

// Engine is the mangos-backed transport engine.
type Engine struct{}

// New creates a mangos engine.
func New() *Engine {
	return &Engine{}
}

// NewContext creates a transport context.
func (*Engine) NewContext() (engine.Context, error) {
	return &Context{}, nil
}

// Context tracks the sockets created from it. Terminating the context
// closes any socket still open, so a socket never outlives its context.
type Context struct {
	mu         sync.Mutex
	sockets    []*Socket
	terminated bool
}

// NewReplySocket creates a rep-pattern socket on this context.
func (c *Context) NewReplySocket() (engine.Socket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.terminated {
		return nil, fault.New(fault.KindTransportTerminated, "socket", "context terminated")
	}

	sock, err := rep.NewSocket()
	if err != nil {
		return nil, classify("socket", err)
	}

	s := &Socket{sock: sock}
	c.sockets = append(c.sockets, s)
	return s, nil
}

// Terminate tears down the context, closing any socket still open.
func (c *Context) Terminate() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.terminated {
		return fault.New(fault.KindTransportTerminated, "close", "context already terminated")
	}
	c.terminated = true

	var firstErr error
	for _, s := range c.sockets {
		err := s.Close()
		if err != nil && firstErr == nil && !fault.Is(err, fault.KindTransportTerminated) {
			firstErr = err
		}
	}
	c.sockets = nil
	return firstErr
}

// Socket is a rep-pattern mangos socket.
type Socket struct {
	sock mangos.Socket
}

// Connect connects the socket to the endpoint. The connection is
// established asynchronously and maintained by the engine, matching
// pattern-socket connect semantics: a peer that is not listening yet is
// not an error, only a malformed or unsupported endpoint is.
func (s *Socket) Connect(endpoint string) error {
	if err := s.sock.SetOption(mangos.OptionDialAsynch, true); err != nil {
		return classify("open", err)
	}
	if err := s.sock.Dial(endpoint); err != nil {
		return classify("open", err)
	}
	return nil
}

// Recv blocks until a request arrives and returns an owned copy of its
// payload. Zero-length requests are valid.
func (s *Socket) Recv() ([]byte, error) {
	body, err := s.sock.Recv()
	if err != nil {
		return nil, classify("receive", err)
	}
	// Copy so the caller's buffer is decoupled from engine internals.
	payload := make([]byte, len(body))
	copy(payload, body)
	return payload, nil
}

// Send transmits the payload as a single reply. The engine accepts
// messages whole, so on success the accepted count equals len(payload).
func (s *Socket) Send(payload []byte) (int, error) {
	if err := s.sock.Send(payload); err != nil {
		return 0, classify("send", err)
	}
	return len(payload), nil
}

// SetRecvDeadline bounds how long Recv may block. Zero disables the bound.
func (s *Socket) SetRecvDeadline(d time.Duration) error {
	if d < 0 {
		d = 0
	}
	if err := s.sock.SetOption(mangos.OptionRecvDeadline, d); err != nil {
		return classify("open", err)
	}
	return nil
}

// SetSendDeadline bounds how long Send may block. Zero disables the bound.
func (s *Socket) SetSendDeadline(d time.Duration) error {
	if d < 0 {
		d = 0
	}
	if err := s.sock.SetOption(mangos.OptionSendDeadline, d); err != nil {
		return classify("open", err)
	}
	return nil
}

// Close releases the socket.
func (s *Socket) Close() error {
	if err := s.sock.Close(); err != nil {
		return classify("close", err)
	}
	return nil
}

// Compile-time interface satisfaction checks.
var (
	_ engine.Engine  = (*Engine)(nil)
	_ engine.Context = (*Context)(nil)
	_ engine.Socket  = (*Socket)(nil)
)
