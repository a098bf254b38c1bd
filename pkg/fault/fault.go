package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a bridge failure. Every error surfaced by the bridge
// carries exactly one Kind, so callers can decide between retrying,
// reconnecting, or giving up without parsing message strings.
type Kind uint8

const (
	// KindUsage indicates a malformed invocation: wrong argument count
	// or an unknown command name.
	KindUsage Kind = iota

	// KindConfiguration indicates invalid pattern, context, or socket
	// construction.
	KindConfiguration

	// KindConnection indicates an invalid endpoint, an unsupported or
	// incompatible transport protocol, or an unreachable destination.
	KindConnection

	// KindState indicates an operation attempted in the wrong protocol
	// position, or against a released or never-opened resource.
	KindState

	// KindResourceExhaustion indicates a handle or thread limit was reached.
	KindResourceExhaustion

	// KindInterrupted indicates a blocking call was interrupted before it
	// completed. Safe to retry.
	KindInterrupted

	// KindTransportTerminated indicates the transport context was torn
	// down, concurrently or previously.
	KindTransportTerminated

	// KindCorruption indicates malformed message structure on the wire.
	KindCorruption
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindUsage:
		return "USAGE"
	case KindConfiguration:
		return "CONFIGURATION"
	case KindConnection:
		return "CONNECTION"
	case KindState:
		return "STATE"
	case KindResourceExhaustion:
		return "RESOURCE_EXHAUSTION"
	case KindInterrupted:
		return "INTERRUPTED"
	case KindTransportTerminated:
		return "TRANSPORT_TERMINATED"
	case KindCorruption:
		return "CORRUPTION"
	default:
		return "UNKNOWN"
	}
}

// Error is a classified bridge failure. Op names the operation that
// failed ("open", "receive", "send", "close", "dispatch"); Err is the
// underlying cause, if any.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

// Error returns the formatted failure text.
func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Kind, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Msg)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified failure with a message and no underlying cause.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap classifies an underlying error. Returns nil if err is nil.
func Wrap(kind Kind, op string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the failure kind from an error chain.
// The second return is false if the chain carries no *Error.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}

// Is reports whether the error chain carries the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// Retryable reports whether the failure is safe to retry.
// Only interrupted blocking calls qualify.
func Retryable(err error) bool {
	return Is(err, KindInterrupted)
}
