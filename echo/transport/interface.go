package transport

import (
	"net"
	"time"

	"github.com/vkolb/echod/echo/common"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// Completion is the result of one connection's echo exchange. It is
// delivered to the registered observer from the worker that handled the
// connection, never from the accept loop.
type Completion struct {
	// ConnID is the server-assigned identifier of the connection
	ConnID uint64
	// RemoteAddr is the peer address, for diagnostics only
	RemoteAddr string
	// BytesEchoed is the number of bytes written back to the peer
	BytesEchoed int
	// Duration is the total time the exchange occupied a worker
	Duration time.Duration
	// Err is nil on a clean echo, otherwise the read/write/upgrade error
	// (or a contained panic) that terminated the connection
	Err error
}

// IConnObserver receives connection lifecycle notifications.
//
// ConnAccepted is called synchronously from the accept loop and must not
// block. ConnFinished is called from the worker that handled the
// connection; implementations that need to hand the result to another
// goroutine must do so without blocking the worker indefinitely.
type IConnObserver interface {
	ConnAccepted(id uint64, remoteAddr string)
	ConnFinished(c Completion)
}

// IEchoServerTransport is the interface for the server-side transport layer
type IEchoServerTransport interface {
	// RegisterObserver registers the observer that receives connection
	// lifecycle events. Must be called before Listen.
	RegisterObserver(observer IConnObserver)

	// Listen binds the endpoint and runs the accept loop. It does not
	// return under normal operation: a nil return means the transport was
	// shut down via Close, any other return is a fatal listener error.
	// Per-connection errors never surface here.
	Listen(config common.ServerConfig) error

	// Addr returns the bound listener address, or nil before Listen has
	// bound the endpoint. Useful when listening on an ephemeral port.
	Addr() net.Addr

	// Close shuts the transport down: it closes the listener (unblocking
	// Listen) and waits for in-flight echo work to finish.
	Close() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IEchoClientTransport is the interface for the client-side transport.
//
// The echo wire protocol has no framing: the end of the request is
// signalled by half-closing the connection, so every Echo call consumes
// one connection.
type IEchoClientTransport interface {
	// Connect initializes the transport with the given configuration
	Connect(config common.ClientConfig) error
	// Echo sends the payload and returns the server's response
	Echo(payload []byte) (resp []byte, err error)
	// Close closes the transport
	Close() error
}
