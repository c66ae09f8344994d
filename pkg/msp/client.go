package msp

import (
	"fmt"
	"sync"

	"github.com/golang/glog"
)

// Client runs request/response exchanges over a Transport.
// Exchanges are serialized, a response is always read before the
// next request is written.
type Client struct {
	transport Transport
	lock      sync.Mutex
}

// NewClient creates a Client over the transport.
func NewClient(t Transport) *Client {
	return &Client{transport: t}
}

// Transport gets the wrapped transport.
func (c *Client) Transport() Transport {
	return c.transport
}

// Exchange writes the commands back-to-back, each as a separate frame,
// then reads exactly one response. The response must carry the code of
// the last command.
func (c *Client) Exchange(cmds ...*Command) (*Frame, error) {
	if len(cmds) == 0 {
		return nil, fmt.Errorf("no command to send")
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	for _, cmd := range cmds {
		if glog.V(3) {
			glog.Infof("SEND %s len=%d %v", CodeName(cmd.Code), cmd.Len(), cmd.Payload)
		}
		if _, err := cmd.WriteTo(c.transport); err != nil {
			return nil, fmt.Errorf("send %s: %w", CodeName(cmd.Code), err)
		}
	}
	code := cmds[len(cmds)-1].Code
	f, err := Decode(c.transport)
	if err != nil {
		return nil, fmt.Errorf("receive %s: %w", CodeName(code), err)
	}
	if glog.V(3) {
		glog.Infof("RECV %s len=%d", CodeName(f.Code), f.Len())
	}
	if f.Code != code {
		return f, &CodeError{Expected: code, Actual: f.Code}
	}
	return f, nil
}

// Do sends a single command and returns the response.
func (c *Client) Do(code byte, payload ...int16) (*Frame, error) {
	return c.Exchange(&Command{Code: code, Payload: payload})
}

// Flush discards unread input if the transport supports it.
// It's used to drop a partial frame after a failed exchange.
func (c *Client) Flush() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if f, ok := c.transport.(InputFlusher); ok {
		return f.ResetInputBuffer()
	}
	return nil
}
