// Package util provides concurrency utilities for the echo service.
//
// Its main component is LockFreeMPSC, a lock-free Multi-Producer
// Single-Consumer queue. The echo server uses it as the completion
// pipeline: every blocking worker pushes the result of a finished
// connection, and a single drain goroutine consumes them. This keeps
// result collection entirely off the accept path.
package util
