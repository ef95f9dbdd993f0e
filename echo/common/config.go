package common

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Echo server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters for the echo server.
type ServerConfig struct {
	// The address on which the server will listen
	// (host:port for tcp, a file path for unix sockets)
	Endpoint string

	// Number of blocking workers available for connection handling.
	// Zero or negative means one worker per CPU.
	Workers int

	// Per-operation I/O timeout in seconds, 0 disables deadlines.
	// Note that the read phase of an echo exchange lasts as long as the
	// peer keeps its write side open, so a timeout also bounds how long
	// a slow peer may occupy a worker.
	TimeoutSecond int64

	// TCP socket tuning
	TCPNoDelay      bool
	ReadBufferSize  int
	WriteBufferSize int
	TCPKeepAliveSec int
	TCPLingerSec    int

	// Optional address serving Prometheus metrics and pprof, "" disables it
	DebugEndpoint string

	// Logging configuration
	LogLevel string
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// Server settings
	addSection("Echo Server")
	addField("Endpoint", c.Endpoint)
	addField("Workers", strconv.Itoa(c.Workers))
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))

	// Socket tuning
	addSection("Socket Tuning")
	addField("TCP No Delay", fmt.Sprintf("%t", c.TCPNoDelay))
	addField("Read Buffer Size", strconv.Itoa(c.ReadBufferSize))
	addField("Write Buffer Size", strconv.Itoa(c.WriteBufferSize))
	addField("TCP Keep Alive", fmt.Sprintf("%d sec", c.TCPKeepAliveSec))
	addField("TCP Linger", fmt.Sprintf("%d sec", c.TCPLingerSec))

	// Debug endpoint
	if c.DebugEndpoint != "" {
		addSection("Debug")
		addField("Debug Endpoint", c.DebugEndpoint)
	}

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// Echo client configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds all configuration parameters for echo clients.
type ClientConfig struct {
	Endpoint      string
	TimeoutSecond int
	RetryCount    int
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.RetryCount))

	return sb.String()
}
