package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"

	"github.com/golang/glog"

	fx "github.com/robotalks/msp.go/pkg/framework"
	"github.com/robotalks/msp.go/pkg/sim"
)

// Config defines the simulated flight controller and where it is served.
type Config struct {
	TCPAddr   string
	WSAddr    string
	Seed      int64
	Noise     float64
	Vibration float64
}

var config = Config{
	TCPAddr:   "localhost:5760",
	Seed:      1,
	Noise:     sim.DefaultNoise,
	Vibration: sim.DefaultVibration,
}

func init() {
	flag.StringVar(&config.TCPAddr, "listen", config.TCPAddr, "Serve over TCP at address, empty to disable.")
	flag.StringVar(&config.WSAddr, "ws-listen", config.WSAddr, "Serve over websocket at address, e.g. :8080.")
	flag.Int64Var(&config.Seed, "seed", config.Seed, "Random seed of accelerometer noise.")
	flag.Float64Var(&config.Noise, "noise", config.Noise, "Accelerometer noise at rest in raw units.")
	flag.Float64Var(&config.Vibration, "vibration", config.Vibration, "Extra noise at full throttle in raw units.")
}

func serveTCP(dev *sim.Device, addr string) fx.RunFunc {
	return func(ctx context.Context) error {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return err
		}
		glog.Infof("serving on tcp://%s", ln.Addr())
		return dev.ServeListener(ctx, ln)
	}
}

func serveWebsocket(dev *sim.Device, addr string) fx.RunFunc {
	return func(ctx context.Context) error {
		srv := &http.Server{Addr: addr, Handler: dev.WebsocketHandler()}
		go func() {
			<-ctx.Done()
			srv.Close()
		}()
		glog.Infof("serving on ws://%s/", addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return ctx.Err()
	}
}

func main() {
	flag.Parse()

	dev := sim.NewDeviceWithSeed(config.Seed)
	dev.Noise, dev.Vibration = config.Noise, config.Vibration

	r := fx.NewRunner().HandleSignals()
	if config.TCPAddr != "" {
		r.Go(fx.NamedRun("tcp", serveTCP(dev, config.TCPAddr)))
	}
	if config.WSAddr != "" {
		r.Go(fx.NamedRun("websocket", serveWebsocket(dev, config.WSAddr)))
	}
	if len(r.Runners) == 0 {
		glog.Exit("nothing to serve, set -listen or -ws-listen")
	}
	if err := r.Wait(); err != nil {
		glog.Exit(err)
	}
}
