// Package nanomsg implements the transport engine contract on top of
// mangos SP sockets.
//
// The reply socket uses the rep pattern and connects with asynchronous
// dialing, so opening a bridge does not require the request peer to be
// listening yet. Supported endpoint schemes: inproc, ipc, tcp.
//
// All errors leaving this package are classified into the fault taxonomy.
package nanomsg
