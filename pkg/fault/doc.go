// Package fault defines the bridge failure taxonomy.
//
// Every error that crosses the bridge boundary is classified into exactly
// one Kind. The transport engine adapter classifies engine error codes at
// the boundary; the session layer adds state and usage failures on top.
// Callers branch on the kind, never on message text:
//
//	msg, err := sess.Receive()
//	if fault.Retryable(err) {
//		// interrupted by a signal, try again
//	}
package fault
