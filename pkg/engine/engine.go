package engine

import "time"

// Engine creates transport contexts. Implemented by nanomsg.Engine.
type Engine interface {
	// NewContext creates a transport context owning the engine-side
	// runtime resources for the sockets created from it.
	NewContext() (Context, error)
}

// Context is the engine runtime handle. A context owns the sockets
// created from it; terminating the context invalidates them.
type Context interface {
	// NewReplySocket creates a pattern socket bound to the reply role
	// of the request/reply pattern.
	NewReplySocket() (Socket, error)

	// Terminate tears down the context and releases its resources.
	Terminate() error
}

// Socket is a reply-role pattern socket.
//
// Errors returned by Socket methods are already classified: they carry a
// fault.Kind distinguishing the engine failure cause.
type Socket interface {
	// Connect connects the socket to the given endpoint address
	// (for example "tcp://127.0.0.1:5555" or "inproc://test").
	Connect(endpoint string) error

	// Recv blocks until a complete request arrives and returns its
	// payload. The returned buffer is owned by the caller and is
	// independent of engine-internal buffers.
	Recv() ([]byte, error)

	// Send transmits the payload as a single reply message and returns
	// the number of bytes the engine accepted. The payload is borrowed
	// for the duration of the call only.
	Send(payload []byte) (int, error)

	// SetRecvDeadline bounds how long Recv may block. Zero means block
	// indefinitely.
	SetRecvDeadline(d time.Duration) error

	// SetSendDeadline bounds how long Send may block. Zero means block
	// indefinitely.
	SetSendDeadline(d time.Duration) error

	// Close releases the socket.
	Close() error
}
