package server

import (
	"net"
	"net/http"
	"time"

	vmetrics "github.com/VictoriaMetrics/metrics"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/vkolb/echod/echo/common"
	"github.com/vkolb/echod/echo/transport"
	"github.com/vkolb/echod/lib/util"

	_ "net/http/pprof"
)

var Logger = common.GetLogger("server")

// ConnInfo describes one in-flight connection in the registry
type ConnInfo struct {
	ID         uint64
	RemoteAddr string
	AcceptedAt time.Time
}

// EchoServer wires a server transport to the connection registry, the
// completion pipeline and metrics
type EchoServer struct {
	config    common.ServerConfig
	transport transport.IEchoServerTransport

	// active tracks in-flight connections; entries are added by the
	// accept loop and removed by the completion drain
	active *xsync.MapOf[uint64, ConnInfo]

	// completions carries results from the blocking workers to the single
	// drain goroutine, off the accept path
	completions *util.LockFreeMPSC[transport.Completion]

	accepted    *vmetrics.Counter
	failed      *vmetrics.Counter
	echoedBytes *vmetrics.Counter
}

// NewEchoServer creates a new echo server
//
// Usage:
//
//	s := server.NewEchoServer(config, tcp.NewTCPServerTransport())
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewEchoServer(config common.ServerConfig, t transport.IEchoServerTransport) *EchoServer {
	s := &EchoServer{
		config:      config,
		transport:   t,
		active:      xsync.NewMapOf[uint64, ConnInfo](),
		completions: util.NewLockFreeMPSC[transport.Completion](),

		// GetOrCreate keeps repeated server construction (tests) from
		// panicking on duplicate registration
		accepted:    vmetrics.GetOrCreateCounter("echod_connections_accepted_total"),
		failed:      vmetrics.GetOrCreateCounter("echod_connections_failed_total"),
		echoedBytes: vmetrics.GetOrCreateCounter("echod_echoed_bytes_total"),
	}

	return s
}

// Serve starts the completion drain and the optional debug endpoint, then
// runs the transport's accept loop. It does not return under normal
// operation; a non-nil error means the listening endpoint became unusable.
func (s *EchoServer) Serve() error {
	common.InitLoggers(s.config)

	Logger.Infof("Created echo server")
	Logger.Infof(s.config.String())

	s.transport.RegisterObserver(s)

	go s.drainCompletions()

	if s.config.DebugEndpoint != "" {
		go s.serveDebug()
	}

	return s.transport.Listen(s.config)
}

// Addr returns the bound listener address, or nil before the transport is
// listening
func (s *EchoServer) Addr() net.Addr {
	return s.transport.Addr()
}

// ActiveConnections returns the number of connections currently in flight
func (s *EchoServer) ActiveConnections() int {
	return s.active.Size()
}

// Close shuts down the transport and the completion pipeline
func (s *EchoServer) Close() error {
	err := s.transport.Close()
	s.completions.Close()
	return err
}

// --------------------------------------------------------------------------
// Observer callbacks (docu see transport.IConnObserver)
// --------------------------------------------------------------------------

// ConnAccepted is called synchronously from the accept loop; it only
// updates the registry and counters and must stay non-blocking
func (s *EchoServer) ConnAccepted(id uint64, remoteAddr string) {
	s.active.Store(id, ConnInfo{
		ID:         id,
		RemoteAddr: remoteAddr,
		AcceptedAt: time.Now(),
	})
	s.accepted.Inc()
}

// ConnFinished is called from the worker that handled the connection. The
// result is pushed into the MPSC queue; Push never waits for the drain
// goroutine, so workers are released immediately.
func (s *EchoServer) ConnFinished(c transport.Completion) {
	if !s.completions.Push(&c) {
		// server already closed, fall back to dropping the entry directly
		s.active.Delete(c.ConnID)
	}
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// drainCompletions is the single consumer of the completion queue
func (s *EchoServer) drainCompletions() {
	for c := range s.completions.Recv() {
		s.active.Delete(c.ConnID)

		if c.Err != nil {
			s.failed.Inc()
			Logger.Errorf("Connection %d from %s failed after %s: %v",
				c.ConnID, c.RemoteAddr, c.Duration, c.Err)
			continue
		}

		s.echoedBytes.Add(c.BytesEchoed)
		Logger.Debugf("Connection %d from %s echoed %d bytes in %s",
			c.ConnID, c.RemoteAddr, c.BytesEchoed, c.Duration)
	}
}

// serveDebug exposes Prometheus metrics and pprof (via the default mux)
func (s *EchoServer) serveDebug() {
	http.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		vmetrics.WritePrometheus(w, true)
	})

	Logger.Infof("Debug endpoint listening on %s", s.config.DebugEndpoint)
	if err := http.ListenAndServe(s.config.DebugEndpoint, nil); err != nil {
		Logger.Errorf("Debug endpoint failed: %v", err)
	}
}
