// Package base implements the transport-independent core of the echo
// service: the accept loop, the blocking worker pool and the echo exchange
// itself. Concrete transports (tcp, unix) only contribute connectors that
// know how to create listeners and dial connections.
//
// The central design decision lives here: the accept loop runs as a single
// goroutine that suspends only in Accept, while every connection's echo
// work runs on a dedicated pool of blocking-capable workers. Dispatch from
// the loop to the pool is fire-and-forget through an unbounded queue, so
// the loop's forward progress never depends on a worker's completion. A
// variant that waits for the echo work before accepting again would
// serialize all connections through the accept point and hang as soon as
// two peers are in flight.
//
// Key Components:
//
//   - IServerConnector / IClientConnector: The transport-specific hooks
//     injected by the tcp and unix packages.
//
//   - serverTransport: The accept loop plus connection dispatch.
//
//   - workerPool: Fixed-size pool of blocking workers fed by an unbounded
//     FIFO queue. Submit never blocks, regardless of pool saturation.
//
//   - clientTransport: One-shot echo exchanges with retry and backoff.
package base
