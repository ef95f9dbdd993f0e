// Package common provides core data structures and utilities shared across
// the echo service. It defines the configuration structures and the logging
// implementation used by all other packages.
//
// The package focuses on:
//   - Configuration structures for the server and client components
//   - A leveled, named logger with consistent formatting
//   - Parsing helpers for configuration values
//
// Key Components:
//
//   - ServerConfig: Configuration for the echo server, including the bind
//     endpoint, the blocking worker pool size, socket tuning parameters and
//     the optional debug endpoint.
//
//   - ClientConfig: Configuration for client components, controlling the
//     target endpoint, timeouts, and retry behavior.
//
//   - ILogger / GetLogger: Named leveled loggers with a shared registry so
//     log levels can be configured centrally at startup.
package common
