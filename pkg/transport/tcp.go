package transport

import (
	"fmt"
	"net"
	"time"
)

// DialTCP connects to a TCP serial bridge (e.g. ser2net, ESP-Link).
func DialTCP(addr string, timeout time.Duration) (Port, error) {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		tcp.SetNoDelay(true)
	}
	return NewDeadlineConn(conn, timeout), nil
}

func dialTimeout(readTimeout time.Duration) time.Duration {
	if readTimeout < 5*time.Second {
		return 5 * time.Second
	}
	return readTimeout
}
