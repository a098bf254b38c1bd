package bridge

import (
	"sync"
	"time"

	"github.com/transplant-bridge/messenger-go/pkg/engine"
	"github.com/transplant-bridge/messenger-go/pkg/fault"
	"github.com/transplant-bridge/messenger-go/pkg/log"
)

// fakeEngine is an in-memory engine for session tests. Requests are
// queued onto the socket ahead of time; Recv fails instead of blocking
// when the queue is empty so tests never hang.
type fakeEngine struct {
	mu       sync.Mutex
	contexts []*fakeContext

	contextErr error // returned by NewContext
	socketErr  error // returned by NewReplySocket
	connectErr error // returned by Connect
	recvErr    error // returned by Recv
	sendErr    error // returned by Send
	shortSend  bool  // Send accepts one byte fewer than offered

	queued [][]byte // initial request queue for new sockets
}

func (e *fakeEngine) NewContext() (engine.Context, error) {
	if e.contextErr != nil {
		return nil, e.contextErr
	}
	c := &fakeContext{eng: e}
	e.mu.Lock()
	e.contexts = append(e.contexts, c)
	e.mu.Unlock()
	return c, nil
}

func (e *fakeEngine) lastContext() *fakeContext {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.contexts) == 0 {
		return nil
	}
	return e.contexts[len(e.contexts)-1]
}

type fakeContext struct {
	eng        *fakeEngine
	mu         sync.Mutex
	terminated bool
	sockets    []*fakeSocket
}

func (c *fakeContext) NewReplySocket() (engine.Socket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.terminated {
		return nil, fault.New(fault.KindTransportTerminated, "socket", "context terminated")
	}
	if c.eng.socketErr != nil {
		return nil, c.eng.socketErr
	}
	s := &fakeSocket{eng: c.eng, requests: append([][]byte(nil), c.eng.queued...)}
	c.sockets = append(c.sockets, s)
	return s, nil
}

func (c *fakeContext) Terminate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.terminated {
		return fault.New(fault.KindTransportTerminated, "close", "context already terminated")
	}
	c.terminated = true
	return nil
}

type fakeSocket struct {
	eng *fakeEngine

	mu        sync.Mutex
	endpoint  string
	closed    bool
	requests  [][]byte
	replies   [][]byte
	recvCalls int
	sendCalls int
}

func (s *fakeSocket) Connect(endpoint string) error {
	if s.eng.connectErr != nil {
		return s.eng.connectErr
	}
	s.mu.Lock()
	s.endpoint = endpoint
	s.mu.Unlock()
	return nil
}

func (s *fakeSocket) Recv() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recvCalls++
	if s.eng.recvErr != nil {
		return nil, s.eng.recvErr
	}
	if s.closed {
		return nil, fault.New(fault.KindTransportTerminated, "receive", "socket closed")
	}
	if len(s.requests) == 0 {
		return nil, fault.New(fault.KindInterrupted, "receive", "no request queued")
	}
	req := s.requests[0]
	s.requests = s.requests[1:]
	payload := make([]byte, len(req))
	copy(payload, req)
	return payload, nil
}

func (s *fakeSocket) Send(payload []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendCalls++
	if s.eng.sendErr != nil {
		return 0, s.eng.sendErr
	}
	if s.closed {
		return 0, fault.New(fault.KindTransportTerminated, "send", "socket closed")
	}
	if s.eng.shortSend && len(payload) > 0 {
		return len(payload) - 1, nil
	}
	reply := make([]byte, len(payload))
	copy(reply, payload)
	s.replies = append(s.replies, reply)
	return len(payload), nil
}

func (s *fakeSocket) SetRecvDeadline(time.Duration) error { return nil }
func (s *fakeSocket) SetSendDeadline(time.Duration) error { return nil }

func (s *fakeSocket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fault.New(fault.KindTransportTerminated, "close", "socket already closed")
	}
	s.closed = true
	return nil
}

// captureLogger records events for assertions.
type captureLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (l *captureLogger) Log(event log.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *captureLogger) all() []log.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]log.Event(nil), l.events...)
}
