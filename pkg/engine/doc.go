// Package engine declares the capability contract the bridge requires
// from a transport engine: context creation and termination, reply-role
// pattern sockets, connect, blocking receive and send of self-delimiting
// byte buffers, and teardown — each failure reported through a
// distinguishable cause rather than a flat string.
//
// The nanomsg subpackage provides the production implementation on top
// of mangos SP sockets. Tests substitute in-memory fakes.
package engine
