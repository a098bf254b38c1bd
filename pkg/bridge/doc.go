// Package bridge implements the request/reply messenger session.
//
// A Session owns one transport context and one reply-pattern socket,
// created together by Open and destroyed together by Close. Between the
// two, the caller alternates Receive and Send strictly: the reply
// pattern is half-duplex, and the session tracks its protocol position
// so an out-of-order call fails with a precise state error before the
// engine is touched.
//
// # Lifecycle
//
//	CLOSED --Open--> OPEN --Close--> CLOSED
//
//	while OPEN:  Receive -> Send -> Receive -> Send -> ...
//
// Every failure carries a fault.Kind; see the fault package. Interrupted
// blocking calls are the only failures flagged as retryable.
//
// The Dispatcher wraps a Session behind the original command surface
// (open/receive/send/close by name) for hosts that marshal calls as
// argument lists.
package bridge
