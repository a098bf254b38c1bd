package nanomsg

import (
	"errors"
	"syscall"

	mangos "go.nanomsg.org/mangos/v3"

	"github.com/transplant-bridge/messenger-go/pkg/fault"
)

// classify maps a mangos or system error onto the bridge failure
// taxonomy. Every engine error code lands in exactly one kind; an
// unrecognized cause is reported as a connection failure rather than
// being dropped or merged into a flat string.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	// Endpoint and transport problems.
	case errors.Is(err, mangos.ErrBadAddr),
		errors.Is(err, mangos.ErrBadTran),
		errors.Is(err, mangos.ErrConnRefused),
		errors.Is(err, mangos.ErrAddrInUse),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.EHOSTUNREACH):
		return fault.Wrap(fault.KindConnection, op, err)

	// Pattern or option misconfiguration.
	case errors.Is(err, mangos.ErrBadProto),
		errors.Is(err, mangos.ErrProtoOp),
		errors.Is(err, mangos.ErrBadOption),
		errors.Is(err, mangos.ErrBadValue):
		return fault.Wrap(fault.KindConfiguration, op, err)

	// The pattern state machine rejected the operation.
	case errors.Is(err, mangos.ErrProtoState):
		return fault.Wrap(fault.KindState, op, err)

	// The socket or its context was torn down.
	case errors.Is(err, mangos.ErrClosed):
		return fault.Wrap(fault.KindTransportTerminated, op, err)

	// A blocking call ran out of time or was interrupted. Retryable.
	case errors.Is(err, mangos.ErrRecvTimeout),
		errors.Is(err, mangos.ErrSendTimeout),
		errors.Is(err, syscall.EINTR):
		return fault.Wrap(fault.KindInterrupted, op, err)

	// Malformed wire data.
	case errors.Is(err, mangos.ErrTooShort),
		errors.Is(err, mangos.ErrTooLong),
		errors.Is(err, mangos.ErrGarbled),
		errors.Is(err, mangos.ErrBadVersion):
		return fault.Wrap(fault.KindCorruption, op, err)

	// Handle or memory limits.
	case errors.Is(err, syscall.EMFILE),
		errors.Is(err, syscall.ENFILE),
		errors.Is(err, syscall.ENOMEM):
		return fault.Wrap(fault.KindResourceExhaustion, op, err)

	default:
		return fault.Wrap(fault.KindConnection, op, err)
	}
}
