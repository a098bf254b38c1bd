package messenger_test

import (
	"bytes"
	"testing"
	"time"

	mangos "go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/req"

	"github.com/transplant-bridge/messenger-go/pkg/bridge"
	"github.com/transplant-bridge/messenger-go/pkg/engine/nanomsg"
	"github.com/transplant-bridge/messenger-go/pkg/fault"
)

const testTimeout = 5 * time.Second

// newPeer starts a request-side peer listening on the endpoint.
func newPeer(t *testing.T, endpoint string) mangos.Socket {
	t.Helper()

	peer, err := req.NewSocket()
	if err != nil {
		t.Fatalf("req.NewSocket failed: %v", err)
	}
	if err := peer.SetOption(mangos.OptionRecvDeadline, testTimeout); err != nil {
		t.Fatalf("peer SetOption failed: %v", err)
	}
	if err := peer.Listen(endpoint); err != nil {
		t.Fatalf("peer Listen failed: %v", err)
	}
	t.Cleanup(func() { peer.Close() })
	return peer
}

func newSession(t *testing.T) *bridge.Session {
	t.Helper()
	return bridge.NewSession(nanomsg.New(), bridge.Config{
		RecvTimeout: testTimeout,
		SendTimeout: testTimeout,
	})
}

// TestE2E_EchoCycle runs the canonical scenario: the peer sends "hi",
// the bridge receives it and echoes it back, then closes cleanly — and
// the whole cycle repeats a second time in the same process, proving
// the first cycle leaked no handle that blocks the second.
func TestE2E_EchoCycle(t *testing.T) {
	const endpoint = "inproc://test"
	peer := newPeer(t, endpoint)
	sess := newSession(t)

	request := []byte{0x68, 0x69} // "hi"

	for cycle := 0; cycle < 2; cycle++ {
		if err := sess.Open(endpoint); err != nil {
			t.Fatalf("cycle %d: Open failed: %v", cycle, err)
		}

		if err := peer.Send(request); err != nil {
			t.Fatalf("cycle %d: peer Send failed: %v", cycle, err)
		}

		msg, err := sess.Receive()
		if err != nil {
			t.Fatalf("cycle %d: Receive failed: %v", cycle, err)
		}
		if !bytes.Equal(msg, request) {
			t.Fatalf("cycle %d: Receive = %v, want %v", cycle, msg, request)
		}

		if err := sess.Send(msg); err != nil {
			t.Fatalf("cycle %d: Send failed: %v", cycle, err)
		}

		reply, err := peer.Recv()
		if err != nil {
			t.Fatalf("cycle %d: peer Recv failed: %v", cycle, err)
		}
		if !bytes.Equal(reply, request) {
			t.Fatalf("cycle %d: reply = %v, want %v", cycle, reply, request)
		}

		if err := sess.Close(); err != nil {
			t.Fatalf("cycle %d: Close failed: %v", cycle, err)
		}
		if sess.State() != bridge.StateClosed {
			t.Fatalf("cycle %d: state = %v after Close", cycle, sess.State())
		}
	}
}

// TestE2E_BinaryPayloads checks that payloads survive byte-for-byte,
// including empty messages and embedded zero bytes.
func TestE2E_BinaryPayloads(t *testing.T) {
	const endpoint = "inproc://test-binary"
	peer := newPeer(t, endpoint)
	sess := newSession(t)

	if err := sess.Open(endpoint); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer sess.Close()

	payloads := [][]byte{
		{},
		{0x00},
		{0x00, 0x68, 0x00, 0x69, 0x00},
		bytes.Repeat([]byte{0xAA, 0x00}, 1024),
	}

	for i, payload := range payloads {
		if err := peer.Send(payload); err != nil {
			t.Fatalf("payload %d: peer Send failed: %v", i, err)
		}

		msg, err := sess.Receive()
		if err != nil {
			t.Fatalf("payload %d: Receive failed: %v", i, err)
		}
		if len(msg) != len(payload) {
			t.Fatalf("payload %d: length %d, want %d (truncated at a zero byte?)",
				i, len(msg), len(payload))
		}
		if !bytes.Equal(msg, payload) {
			t.Fatalf("payload %d: content altered in transit", i)
		}

		if err := sess.Send(msg); err != nil {
			t.Fatalf("payload %d: Send failed: %v", i, err)
		}
		reply, err := peer.Recv()
		if err != nil {
			t.Fatalf("payload %d: peer Recv failed: %v", i, err)
		}
		if !bytes.Equal(reply, payload) {
			t.Fatalf("payload %d: reply altered in transit", i)
		}
	}
}

// TestE2E_DispatcherScenario drives the same echo cycle through the
// command dispatch surface.
func TestE2E_DispatcherScenario(t *testing.T) {
	const endpoint = "inproc://test-dispatch"
	peer := newPeer(t, endpoint)
	disp := bridge.NewDispatcher(newSession(t))

	if _, err := disp.Dispatch([]byte("open"), []byte(endpoint)); err != nil {
		t.Fatalf("open failed: %v", err)
	}

	if err := peer.Send([]byte("ping")); err != nil {
		t.Fatalf("peer Send failed: %v", err)
	}

	msg, err := disp.Dispatch([]byte("receive"))
	if err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	if _, err := disp.Dispatch([]byte("send"), msg); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	reply, err := peer.Recv()
	if err != nil {
		t.Fatalf("peer Recv failed: %v", err)
	}
	if !bytes.Equal(reply, []byte("ping")) {
		t.Fatalf("reply = %q, want %q", reply, "ping")
	}

	if _, err := disp.Dispatch([]byte("close")); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

// TestE2E_ProtocolViolations checks that misuse fails with state kinds
// against a live socket, not just against the session's own tracking.
func TestE2E_ProtocolViolations(t *testing.T) {
	const endpoint = "inproc://test-violations"
	newPeer(t, endpoint)
	sess := newSession(t)

	if err := sess.Open(endpoint); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer sess.Close()

	if err := sess.Send([]byte("unsolicited")); !fault.Is(err, fault.KindState) {
		t.Errorf("Send without Receive = %v, want STATE kind", err)
	}
}
