package base

import (
	"fmt"
	"io"
	"net"
	"time"

	"github.com/vkolb/echod/echo/common"
	"github.com/vkolb/echod/echo/transport"
)

var clientLogger = common.GetLogger("client")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to the given endpoint
	Connect(endpoint string, timeout time.Duration) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string
}

// halfCloser is satisfied by *net.TCPConn and *net.UnixConn. Closing the
// write side is the end-of-input signal of the echo protocol.
type halfCloser interface {
	CloseWrite() error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.)
type clientTransport struct {
	connector IClientConnector
	config    common.ClientConfig
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IEchoClientTransport {
	return &clientTransport{
		connector: connector,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IEchoClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if config.Endpoint == "" {
		return fmt.Errorf("no endpoint provided")
	}
	t.config = config
	return nil
}

func (t *clientTransport) Echo(payload []byte) ([]byte, error) {
	// Retry with exponential backoff. We always try at least once, and up
	// to RetryCount additional times.
	var lastErr error
	backoff := 50 * time.Millisecond

	for attempt := 0; attempt <= t.config.RetryCount; attempt++ {
		if attempt > 0 {
			clientLogger.Warningf("Echo attempt %d failed, retrying in %s: %v", attempt, backoff, lastErr)
			time.Sleep(backoff)
			backoff *= 2
		}

		resp, err := t.echoOnce(payload)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}

	return nil, lastErr
}

func (t *clientTransport) Close() error {
	// The transport holds no persistent connections: every exchange is
	// delimited by a half-close, so connections cannot be reused.
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// echoOnce performs a single echo exchange on a fresh connection:
// send the payload, half-close the write side, read the response to EOF.
func (t *clientTransport) echoOnce(payload []byte) ([]byte, error) {
	timeout := time.Duration(t.config.TimeoutSecond) * time.Second

	conn, err := t.connector.Connect(t.config.Endpoint, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %v", t.config.Endpoint, err)
	}
	defer conn.Close()

	if timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
			return nil, fmt.Errorf("failed to set deadline: %v", err)
		}
	}

	if _, err := conn.Write(payload); err != nil {
		return nil, fmt.Errorf("failed to send payload: %v", err)
	}

	hc, ok := conn.(halfCloser)
	if !ok {
		return nil, fmt.Errorf("%s connection cannot close its write side", t.connector.GetName())
	}
	if err := hc.CloseWrite(); err != nil {
		return nil, fmt.Errorf("failed to close write side: %v", err)
	}

	resp, err := io.ReadAll(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}

	return resp, nil
}
