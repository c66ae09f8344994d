package transport

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robotalks/msp.go/pkg/sim"
)

// DefaultTimeout is the read timeout of a transport.
const DefaultTimeout = time.Second

// Config provides options to open a transport.
type Config struct {
	// Port is a device path or a URL.
	// e.g. /dev/ttyUSB0, serial:///dev/ttyACM0?baud=57600, tcp://host:2000,
	// ws://host/serial, sim://
	Port    string
	Baud    int
	Timeout time.Duration
}

var defaultConfig = Config{
	Port:    "/dev/ttyUSB0",
	Baud:    DefaultBaudRate,
	Timeout: DefaultTimeout,
}

func init() {
	if val := os.Getenv("MSP_PORT"); val != "" {
		defaultConfig.Port = val
	}
	if val := os.Getenv("MSP_BAUD"); val != "" {
		if baud, err := strconv.Atoi(val); err == nil {
			defaultConfig.Baud = baud
		}
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Port, "port", defaultConfig.Port, "Serial device or transport URL.")
	flag.IntVar(&defaultConfig.Baud, "baud", defaultConfig.Baud, "Serial baud rate.")
	flag.DurationVar(&defaultConfig.Timeout, "timeout", defaultConfig.Timeout, "Read timeout.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Open opens the transport using current config.
func (c *Config) Open() (Port, error) {
	return Open(c.Port, PortOptions{BaudRate: c.Baud}, c.Timeout)
}

// Open opens a transport by a device path or a URL.
// Query parameters baud, databits, stopbits and parity of a serial URL
// override opts.
func Open(target string, opts PortOptions, timeout time.Duration) (Port, error) {
	if !strings.Contains(target, "://") {
		return OpenSerial(target, opts, timeout)
	}
	parsedURL, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid transport URL: %w", err)
	}
	switch parsedURL.Scheme {
	case "serial":
		if opts, err = serialOptions(parsedURL.Query(), opts); err != nil {
			return nil, err
		}
		return OpenSerial(parsedURL.Path, opts, timeout)
	case "tcp":
		return DialTCP(parsedURL.Host, timeout)
	case "ws", "wss":
		return DialWebsocket(target, timeout)
	case "sim":
		return openSim(parsedURL.Query(), timeout)
	default:
		return nil, fmt.Errorf("unknown transport URL scheme: %q", parsedURL.Scheme)
	}
}

func serialOptions(q url.Values, opts PortOptions) (PortOptions, error) {
	ints := []struct {
		name string
		val  *int
	}{
		{"baud", &opts.BaudRate},
		{"databits", &opts.DataBits},
		{"stopbits", &opts.StopBits},
	}
	for _, p := range ints {
		str := q.Get(p.name)
		if str == "" {
			continue
		}
		n, err := strconv.Atoi(str)
		if err != nil {
			return opts, fmt.Errorf("invalid %s %q: %w", p.name, str, err)
		}
		*p.val = n
	}
	if parity := q.Get("parity"); parity != "" {
		opts.Parity = parity
	}
	return opts.Normalize()
}

// openSim creates a simulated device. Query parameters seed, noise,
// vibration and latency tune it.
func openSim(q url.Values, timeout time.Duration) (Port, error) {
	var seed int64 = 1
	if str := q.Get("seed"); str != "" {
		n, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid seed %q: %w", str, err)
		}
		seed = n
	}
	dev := sim.NewDeviceWithSeed(seed)
	floats := []struct {
		name string
		val  *float64
	}{
		{"noise", &dev.Noise},
		{"vibration", &dev.Vibration},
		{"gravity", &dev.Gravity},
	}
	for _, p := range floats {
		str := q.Get(p.name)
		if str == "" {
			continue
		}
		v, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", p.name, str, err)
		}
		*p.val = v
	}
	if str := q.Get("latency"); str != "" {
		d, err := time.ParseDuration(str)
		if err != nil {
			return nil, fmt.Errorf("invalid latency %q: %w", str, err)
		}
		dev.Latency = d
	}
	if err := dev.SetReadTimeout(timeout); err != nil {
		return nil, err
	}
	return dev, nil
}
