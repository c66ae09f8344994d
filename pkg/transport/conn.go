package transport

import (
	"errors"
	"net"
	"os"
	"sync"
	"time"
)

// DeadlineConn adapts a deadline based connection (TCP, websocket) to the
// read timeout model of serial ports.
type DeadlineConn struct {
	net.Conn

	lock    sync.Mutex
	timeout time.Duration
}

// NewDeadlineConn wraps conn with the read timeout.
func NewDeadlineConn(conn net.Conn, timeout time.Duration) *DeadlineConn {
	return &DeadlineConn{Conn: conn, timeout: timeout}
}

// SetReadTimeout implements msp.Transport. 0 disables the timeout.
func (c *DeadlineConn) SetReadTimeout(timeout time.Duration) error {
	c.lock.Lock()
	c.timeout = timeout
	c.lock.Unlock()
	return nil
}

// Read sets the deadline from the read timeout and reads.
func (c *DeadlineConn) Read(p []byte) (int, error) {
	c.lock.Lock()
	timeout := c.timeout
	c.lock.Unlock()
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if err := c.Conn.SetReadDeadline(deadline); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}

// drainTimeout bounds how long ResetInputBuffer waits for stale input.
const drainTimeout = 10 * time.Millisecond

// ResetInputBuffer implements msp.InputFlusher by reading whatever
// arrives within a short time.
func (c *DeadlineConn) ResetInputBuffer() error {
	buf := make([]byte, 256)
	for {
		if err := c.Conn.SetReadDeadline(time.Now().Add(drainTimeout)); err != nil {
			return err
		}
		n, err := c.Conn.Read(buf)
		if err != nil {
			if os.IsTimeout(err) || errors.Is(err, os.ErrDeadlineExceeded) {
				return nil
			}
			return err
		}
		if n == 0 {
			return nil
		}
	}
}
