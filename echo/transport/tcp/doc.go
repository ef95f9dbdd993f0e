// Package tcp implements the TCP socket transport for the echo service.
// It provides concrete implementations of the base package's connector
// interfaces.
//
// This package builds on the base package's transport functionality: the
// accept loop, blocking worker pool and echo exchange all live there. The
// connectors here only create TCP listeners and connections and apply
// socket-level tuning (Nagle, buffer sizes, keep-alive, linger) from the
// configuration.
package tcp
