package transport

import (
	"fmt"
	"net/url"
	"time"

	"golang.org/x/net/websocket"
)

// DialWebsocket connects to a websocket serial bridge. The bridge relays
// raw bytes in binary messages.
func DialWebsocket(rawURL string, timeout time.Duration) (Port, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	origin := &url.URL{Scheme: "http", Host: u.Host}
	if u.Scheme == "wss" {
		origin.Scheme = "https"
	}
	conf, err := websocket.NewConfig(u.String(), origin.String())
	if err != nil {
		return nil, err
	}
	conn, err := websocket.DialConfig(conf)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rawURL, err)
	}
	conn.PayloadType = websocket.BinaryFrame
	return NewDeadlineConn(conn, timeout), nil
}
