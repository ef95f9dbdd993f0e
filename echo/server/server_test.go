package server

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/vkolb/echod/echo/common"
	"github.com/vkolb/echod/echo/transport"
	"github.com/vkolb/echod/echo/transport/tcp"
	"github.com/vkolb/echod/echo/transport/unix"
	"golang.org/x/sync/errgroup"
)

// testConfig returns a server configuration suitable for tests:
// ephemeral endpoint, quiet logging
func testConfig(endpoint string) common.ServerConfig {
	return common.ServerConfig{
		Endpoint:     endpoint,
		Workers:      4,
		TCPLingerSec: -1,
		LogLevel:     "error",
	}
}

// startTestServer starts a server on the given transport and returns its
// bound address. Shutdown is registered as test cleanup.
func startTestServer(t *testing.T, cfg common.ServerConfig, tr transport.IEchoServerTransport) net.Addr {
	t.Helper()

	s := NewEchoServer(cfg, tr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve()
	}()

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Failed to close server: %v", err)
		}
		select {
		case err := <-errCh:
			if err != nil {
				t.Errorf("Server exited with error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("Server did not shut down in time")
		}
	})

	// Wait until the endpoint is bound
	deadline := time.Now().Add(2 * time.Second)
	for {
		if addr := s.Addr(); addr != nil {
			return addr
		}
		if time.Now().After(deadline) {
			t.Fatal("Server never bound its endpoint")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// echoOnce performs a raw echo exchange: dial, send, half-close, read to
// end-of-stream
func echoOnce(network, addr string, payload []byte) ([]byte, error) {
	conn, err := net.DialTimeout(network, addr, 2*time.Second)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(5 * time.Second))

	if _, err := conn.Write(payload); err != nil {
		return nil, err
	}

	type halfCloser interface{ CloseWrite() error }
	if err := conn.(halfCloser).CloseWrite(); err != nil {
		return nil, err
	}

	return io.ReadAll(conn)
}

// TestEchoSingleConnection sends "hello" and expects "hello" back, then a
// clean stream close
func TestEchoSingleConnection(t *testing.T) {
	addr := startTestServer(t, testConfig("127.0.0.1:0"), tcp.NewTCPServerTransport())

	resp, err := echoOnce("tcp", addr.String(), []byte("hello"))
	if err != nil {
		t.Fatalf("Echo failed: %v", err)
	}

	if string(resp) != "hello" {
		t.Errorf("Expected %q, got %q", "hello", resp)
	}
}

// TestEchoEmptyPayload verifies a peer that closes its write side without
// sending anything gets an empty response and a clean close, no hang
func TestEchoEmptyPayload(t *testing.T) {
	addr := startTestServer(t, testConfig("127.0.0.1:0"), tcp.NewTCPServerTransport())

	resp, err := echoOnce("tcp", addr.String(), nil)
	if err != nil {
		t.Fatalf("Echo failed: %v", err)
	}

	if len(resp) != 0 {
		t.Errorf("Expected empty response, got %d bytes", len(resp))
	}
}

// TestEchoConcurrentConnections opens four connections concurrently with
// distinct payloads of differing lengths and verifies each peer receives
// exactly its own payload, regardless of interleaving or completion order.
// A design that waits for echo completion before returning to the accept
// point hangs here.
func TestEchoConcurrentConnections(t *testing.T) {
	addr := startTestServer(t, testConfig("127.0.0.1:0"), tcp.NewTCPServerTransport())

	payloads := []string{
		"hello here we go with a long message",
		"world",
		"foo",
		"bar",
	}

	var g errgroup.Group
	for _, payload := range payloads {
		payload := payload
		g.Go(func() error {
			resp, err := echoOnce("tcp", addr.String(), []byte(payload))
			if err != nil {
				return err
			}
			if string(resp) != payload {
				return fmt.Errorf("expected %q, got %q", payload, resp)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}

// TestEchoManyPeersNoCrossContamination runs more concurrent peers than
// the pool has workers, each with a distinct payload
func TestEchoManyPeersNoCrossContamination(t *testing.T) {
	cfg := testConfig("127.0.0.1:0")
	cfg.Workers = 2
	addr := startTestServer(t, cfg, tcp.NewTCPServerTransport())

	var g errgroup.Group
	for i := 0; i < 16; i++ {
		i := i
		g.Go(func() error {
			payload := bytes.Repeat([]byte{byte('a' + i)}, 100*(i+1))
			resp, err := echoOnce("tcp", addr.String(), payload)
			if err != nil {
				return err
			}
			if !bytes.Equal(resp, payload) {
				return fmt.Errorf("peer %d received a foreign payload (%d bytes, want %d)", i, len(resp), len(payload))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}

// TestAcceptLoopNotSerialized verifies the accept loop stays responsive
// while a prior connection's echo work is still in progress: a slow peer
// that holds its write side open must not prevent a second peer from
// connecting and completing immediately
func TestAcceptLoopNotSerialized(t *testing.T) {
	addr := startTestServer(t, testConfig("127.0.0.1:0"), tcp.NewTCPServerTransport())

	// Slow peer: sends a prefix and then stalls with the write side open,
	// occupying one blocking worker
	slow, err := net.DialTimeout("tcp", addr.String(), 2*time.Second)
	if err != nil {
		t.Fatalf("Slow peer failed to connect: %v", err)
	}
	defer slow.Close()

	if _, err := slow.Write([]byte("slow ")); err != nil {
		t.Fatalf("Slow peer failed to write: %v", err)
	}

	// Fast peer: full exchange must complete while the slow peer is stalled
	done := make(chan error, 1)
	go func() {
		resp, err := echoOnce("tcp", addr.String(), []byte("fast"))
		if err == nil && string(resp) != "fast" {
			err = fmt.Errorf("expected %q, got %q", "fast", resp)
		}
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Fast peer failed: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Fast peer hung behind the slow peer: accept loop is serialized on echo completion")
	}

	// The slow peer's own exchange still completes correctly afterwards
	slow.SetDeadline(time.Now().Add(5 * time.Second))
	if _, err := slow.Write([]byte("peer")); err != nil {
		t.Fatalf("Slow peer failed to write: %v", err)
	}
	if err := slow.(*net.TCPConn).CloseWrite(); err != nil {
		t.Fatalf("Slow peer failed to half-close: %v", err)
	}

	resp, err := io.ReadAll(slow)
	if err != nil {
		t.Fatalf("Slow peer failed to read: %v", err)
	}
	if string(resp) != "slow peer" {
		t.Errorf("Expected %q, got %q", "slow peer", resp)
	}
}

// TestRegistryDrains verifies the connection registry empties once all
// exchanges have completed
func TestRegistryDrains(t *testing.T) {
	cfg := testConfig("127.0.0.1:0")
	tr := tcp.NewTCPServerTransport()

	s := NewEchoServer(cfg, tr)
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve()
	}()
	t.Cleanup(func() {
		s.Close()
		<-errCh
	})

	deadline := time.Now().Add(2 * time.Second)
	for s.Addr() == nil {
		if time.Now().After(deadline) {
			t.Fatal("Server never bound its endpoint")
		}
		time.Sleep(5 * time.Millisecond)
	}

	for i := 0; i < 8; i++ {
		if _, err := echoOnce("tcp", s.Addr().String(), []byte("ping")); err != nil {
			t.Fatalf("Echo %d failed: %v", i, err)
		}
	}

	// Completions are drained asynchronously
	deadline = time.Now().Add(2 * time.Second)
	for s.ActiveConnections() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("Registry never drained, %d connections still tracked", s.ActiveConnections())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// TestEchoOverUnixSocket runs a full exchange through the unix transport
func TestEchoOverUnixSocket(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "echod.sock")
	addr := startTestServer(t, testConfig(socketPath), unix.NewUnixServerTransport())

	resp, err := echoOnce("unix", addr.String(), []byte("over the socket"))
	if err != nil {
		t.Fatalf("Echo failed: %v", err)
	}

	if string(resp) != "over the socket" {
		t.Errorf("Expected %q, got %q", "over the socket", resp)
	}
}

// TestClientTransportRoundTrip exercises the client transport against a
// running server, including its per-exchange connection handling
func TestClientTransportRoundTrip(t *testing.T) {
	addr := startTestServer(t, testConfig("127.0.0.1:0"), tcp.NewTCPServerTransport())

	client := tcp.NewTCPClientTransport()
	if err := client.Connect(common.ClientConfig{
		Endpoint:      addr.String(),
		TimeoutSecond: 5,
	}); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	for _, payload := range []string{"first", "second", ""} {
		resp, err := client.Echo([]byte(payload))
		if err != nil {
			t.Fatalf("Echo %q failed: %v", payload, err)
		}
		if string(resp) != payload {
			t.Errorf("Expected %q, got %q", payload, resp)
		}
	}
}
