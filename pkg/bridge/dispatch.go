package bridge

import (
	"fmt"

	"github.com/transplant-bridge/messenger-go/pkg/fault"
)

// Commands accepted by Dispatch.
const (
	CommandOpen    = "open"
	CommandReceive = "receive"
	CommandSend    = "send"
	CommandClose   = "close"
)

// Usage describes the command surface. Returned as the failure text
// when Dispatch is invoked with no arguments at all.
const Usage = "usage: open <endpoint address>\n" +
	"       receive\n" +
	"       send <payload>\n" +
	"       close"

// Dispatcher is the single entry point for hosts that drive a session
// by command name, mirroring the original messenger call surface. The
// host is responsible for argument decoding; arguments arrive here as
// raw byte buffers.
type Dispatcher struct {
	sess *Session
}

// NewDispatcher creates a dispatcher around the given session.
func NewDispatcher(sess *Session) *Dispatcher {
	return &Dispatcher{sess: sess}
}

// Session returns the session this dispatcher drives.
func (d *Dispatcher) Session() *Session {
	return d.sess
}

// Dispatch routes a command to the session. args[0] is the command
// name; the remainder are its arguments. The result is the received
// message for "receive" and nil for the other commands.
//
// A call with zero arguments, an unrecognized command name, or a wrong
// argument count fails with a usage kind and never reaches the
// transport engine.
func (d *Dispatcher) Dispatch(args ...[]byte) ([]byte, error) {
	const op = "dispatch"

	if len(args) == 0 {
		return nil, fault.New(fault.KindUsage, op, Usage)
	}

	switch cmd := string(args[0]); cmd {
	case CommandOpen:
		if len(args) != 2 {
			return nil, fault.New(fault.KindUsage, op, "open requires exactly one endpoint address argument")
		}
		return nil, d.sess.Open(string(args[1]))

	case CommandReceive:
		if len(args) != 1 {
			return nil, fault.New(fault.KindUsage, op, "receive takes no arguments")
		}
		return d.sess.Receive()

	case CommandSend:
		if len(args) != 2 {
			return nil, fault.New(fault.KindUsage, op, "send requires exactly one payload argument")
		}
		return nil, d.sess.Send(args[1])

	case CommandClose:
		if len(args) != 1 {
			return nil, fault.New(fault.KindUsage, op, "close takes no arguments")
		}
		return nil, d.sess.Close()

	default:
		return nil, fault.New(fault.KindUsage, op, fmt.Sprintf("unrecognized command %q", cmd))
	}
}
