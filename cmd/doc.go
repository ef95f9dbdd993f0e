// Package cmd implements the command-line interface for the echod echo
// server. It provides a hierarchical command structure with operations for
// running the server and interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Commands for starting and configuring the echo server
//   - echo: Command for sending a single payload and printing the response
//   - perf: Load generation and latency measurement against a running server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See echod -help for a list of all commands.
package cmd
