package base

import (
	"bytes"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vkolb/echod/echo/common"
	"github.com/vkolb/echod/echo/transport"
)

var Logger = common.GetLogger("transport")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// UpgradeConnection applies transport-specific settings to an accepted
	// connection before it is handed to a worker
	UpgradeConnection(conn net.Conn, config common.ServerConfig) error

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport implements the core server transport functionality
type serverTransport struct {
	connector  IServerConnector
	observer   transport.IConnObserver
	config     common.ServerConfig
	bufferPool *sync.Pool
	nextConnID uint64
	closed     atomic.Bool

	// mu guards listener and pool, which are created inside Listen and
	// read by Close and Addr
	mu       sync.Mutex
	listener net.Listener
	pool     *workerPool
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport with the
// specified connector
func NewBaseServerTransport(connector IServerConnector) transport.IEchoServerTransport {
	return &serverTransport{
		connector: connector,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				return new(bytes.Buffer)
			},
		},
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IEchoServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterObserver(observer transport.IConnObserver) {
	t.observer = observer
}

func (t *serverTransport) Listen(config common.ServerConfig) error {
	t.config = config

	if t.closed.Load() {
		return nil
	}

	// Create listener using the connector
	listener, err := t.connector.Listen(config)
	if err != nil {
		return fmt.Errorf("failed to create listener: %v", err)
	}

	pool := newWorkerPool(config.Workers)

	t.mu.Lock()
	t.listener = listener
	t.pool = pool
	t.mu.Unlock()

	// Close may have raced with the assignments above
	if t.closed.Load() {
		listener.Close()
		pool.Close()
		return nil
	}

	Logger.Infof("Starting %s echo server on %s with %d blocking workers",
		t.connector.GetName(), listener.Addr(), pool.Size())

	// Accept connections. The loop suspends only here: every accepted
	// connection is dispatched fire-and-forget and the loop immediately
	// returns to Accept without waiting for the echo work to finish.
	for {
		conn, err := listener.Accept()
		if err != nil {
			if t.closed.Load() {
				// deliberate shutdown via Close
				return nil
			}
			// A listener failure is fatal to the loop and surfaces to the
			// caller. Per-connection errors never take this path.
			return fmt.Errorf("accept failed: %v", err)
		}

		t.dispatch(conn)
	}
}

func (t *serverTransport) Addr() net.Addr {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener == nil {
		return nil
	}
	return t.listener.Addr()
}

func (t *serverTransport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}

	t.mu.Lock()
	listener, pool := t.listener, t.pool
	t.mu.Unlock()

	var err error
	if listener != nil {
		err = listener.Close()
	}
	if pool != nil {
		pool.Close()
	}
	return err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// dispatch hands an accepted connection to the worker pool and returns
// immediately. The only synchronization with the echo work happens here,
// at submit time; the accept loop never joins or awaits it.
func (t *serverTransport) dispatch(conn net.Conn) {
	id := atomic.AddUint64(&t.nextConnID, 1)

	remote := ""
	if addr := conn.RemoteAddr(); addr != nil {
		remote = addr.String()
	}

	if t.observer != nil {
		t.observer.ConnAccepted(id, remote)
	}

	// Upgrade failures are contained to this connection
	if err := t.connector.UpgradeConnection(conn, t.config); err != nil {
		conn.Close()
		t.finish(transport.Completion{
			ConnID:     id,
			RemoteAddr: remote,
			Err:        fmt.Errorf("failed to upgrade connection: %v", err),
		})
		return
	}

	timeout := time.Duration(t.config.TimeoutSecond) * time.Second

	t.mu.Lock()
	pool := t.pool
	t.mu.Unlock()

	submitted := pool.Submit(func() {
		comp := transport.Completion{ConnID: id, RemoteAddr: remote}
		start := time.Now()

		// Report the completion out-of-band even if the exchange panics.
		// The panic is converted into a per-connection error; it must not
		// reach the worker loop, let alone the accept loop.
		defer func() {
			if r := recover(); r != nil {
				conn.Close()
				comp.Err = fmt.Errorf("panic during echo: %v", r)
			}
			comp.Duration = time.Since(start)
			t.finish(comp)
		}()

		buf := t.bufferPool.Get().(*bytes.Buffer)
		buf.Reset()
		defer t.bufferPool.Put(buf)

		comp.BytesEchoed, comp.Err = echoConn(conn, buf, timeout)
	})

	if !submitted {
		// pool closed during shutdown
		conn.Close()
		t.finish(transport.Completion{
			ConnID:     id,
			RemoteAddr: remote,
			Err:        fmt.Errorf("server shutting down"),
		})
	}
}

// finish reports a completion to the observer, or logs it if none is
// registered (the minimal fire-and-forget discipline).
func (t *serverTransport) finish(comp transport.Completion) {
	if t.observer != nil {
		t.observer.ConnFinished(comp)
		return
	}

	if comp.Err != nil {
		Logger.Errorf("Connection %d from %s failed: %v", comp.ConnID, comp.RemoteAddr, comp.Err)
	} else {
		Logger.Debugf("Connection %d from %s echoed %d bytes in %s",
			comp.ConnID, comp.RemoteAddr, comp.BytesEchoed, comp.Duration)
	}
}
