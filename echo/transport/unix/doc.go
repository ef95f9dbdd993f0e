// Package unix implements the Unix domain socket transport for the echo
// service. It provides concrete implementations of the base package's
// connector interfaces.
//
// Unix sockets behave identically to TCP from the echo protocol's point
// of view: the exchange is still delimited by the peer half-closing its
// write side. The endpoint is a filesystem path; a stale socket file from
// a previous run is removed before listening.
package unix
