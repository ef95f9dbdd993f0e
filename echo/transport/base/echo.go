package base

import (
	"bytes"
	"fmt"
	"net"
	"time"
)

// echoConn performs one full echo exchange on a connection using blocking
// I/O: read until the peer half-closes its write side, then write every
// accumulated byte back. The write phase never starts before the read
// side is exhausted, so a peer always receives its complete payload in
// one piece.
//
// The call occupies its goroutine for the entire duration of the peer's
// transmission and must therefore only run on a pool worker, never on the
// accept loop.
//
// Returns the number of bytes echoed. The connection is closed in every
// case.
func echoConn(conn net.Conn, buf *bytes.Buffer, timeout time.Duration) (int, error) {
	defer conn.Close()

	// Read phase: drain the stream into the buffer. bytes.Buffer.ReadFrom
	// reads until the zero-length read that signals end-of-input and does
	// not report io.EOF as an error.
	if timeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return 0, fmt.Errorf("failed to set read deadline: %v", err)
		}
	}

	if _, err := buf.ReadFrom(conn); err != nil {
		return 0, fmt.Errorf("failed to read request: %v", err)
	}

	// Write phase
	if timeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return 0, fmt.Errorf("failed to set write deadline: %v", err)
		}
	}

	n, err := conn.Write(buf.Bytes())
	if err != nil {
		return n, fmt.Errorf("failed to write response: %v", err)
	}

	return n, nil
}
