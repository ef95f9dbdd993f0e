// Package server provides the echo service facade. It wires a server
// transport to the supporting infrastructure the minimal accept loop
// deliberately leaves out: a registry of in-flight connections, a
// completion pipeline, metrics and an optional debug endpoint.
//
// The accept loop dispatches echo work fire-and-forget, so per-connection
// results cannot flow back through it. Instead, workers push a Completion
// into a lock-free MPSC queue and a single drain goroutine consumes it:
// the accept point never waits on result collection, which is the whole
// point of the design.
//
// Key Components:
//
//   - EchoServer: Owns the transport, the connection registry
//     (xsync.MapOf), the completion queue and the metrics counters.
//
//   - ConnInfo: Registry entry for one in-flight connection.
package server
