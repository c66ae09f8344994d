package sim

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"
)

// Serve relays the requests read from conn to the device and writes
// the responses back, until conn fails. EOF is not an error.
func (d *Device) Serve(conn io.ReadWriter) error {
	in := make([]byte, 256)
	out := make([]byte, 256)
	for {
		n, err := conn.Read(in)
		if n > 0 {
			if _, werr := d.Write(in[:n]); werr != nil {
				glog.V(1).Infof("sim: %v", werr)
			}
			for {
				m, _ := d.Read(out)
				if m == 0 {
					break
				}
				if _, err := conn.Write(out[:m]); err != nil {
					return err
				}
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// ServeListener serves every accepted connection until ctx is done.
func (d *Device) ServeListener(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		glog.Infof("sim: client %s connected", conn.RemoteAddr())
		go func(conn net.Conn) {
			defer conn.Close()
			if err := d.Serve(conn); err != nil && ctx.Err() == nil {
				glog.Warningf("sim: client %s: %v", conn.RemoteAddr(), err)
			}
			glog.Infof("sim: client %s disconnected", conn.RemoteAddr())
		}(conn)
	}
}

// WebsocketHandler serves the device to websocket clients exchanging
// binary messages.
func (d *Device) WebsocketHandler() http.Handler {
	return websocket.Handler(func(conn *websocket.Conn) {
		conn.PayloadType = websocket.BinaryFrame
		if err := d.Serve(conn); err != nil {
			glog.Warningf("sim: websocket %s: %v", conn.Request().RemoteAddr, err)
		}
	})
}
