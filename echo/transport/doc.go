// Package transport defines the interfaces and abstractions for the echo
// service's network layer. It provides a common contract that all transport
// implementations must fulfill, so the server and clients are independent
// of the underlying socket type.
//
// Key Components:
//
//   - IEchoServerTransport: Interface for server-side transport
//     implementations that own the listening endpoint and run the accept
//     loop.
//
//   - IEchoClientTransport: Interface for client-side transport
//     implementations that perform echo exchanges against a server.
//
//   - IConnObserver / Completion: Out-of-band connection lifecycle
//     notifications. The accept loop never waits for a connection's echo
//     work; observers are how completion status leaves the transport.
package transport
