package vibration

import (
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/robotalks/msp.go/pkg/imu"
	"github.com/robotalks/msp.go/pkg/motor"
	"github.com/robotalks/msp.go/pkg/msp"
)

// Defaults
const (
	DefaultCalibrationSamples = 50
	DefaultStepDelay          = 100 * time.Millisecond
	DefaultSettleDelay        = 100 * time.Millisecond
)

// Config defines the settings of a Controller.
type Config struct {
	CalibrationSamples int
	StepDelay          time.Duration
	SettleDelay        time.Duration
	MaxRate            float64
}

var defaultConfig = Config{
	CalibrationSamples: DefaultCalibrationSamples,
	StepDelay:          DefaultStepDelay,
	SettleDelay:        DefaultSettleDelay,
}

func init() {
	if val := os.Getenv("MSP_MAX_RATE"); val != "" {
		if r, err := strconv.ParseFloat(val, 64); err == nil {
			defaultConfig.MaxRate = r
		}
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.IntVar(&defaultConfig.CalibrationSamples, "calibration-samples", defaultConfig.CalibrationSamples, "Samples averaged for calibration at rest.")
	flag.DurationVar(&defaultConfig.StepDelay, "ramp-delay", defaultConfig.StepDelay, "Delay between ramp steps.")
	flag.DurationVar(&defaultConfig.SettleDelay, "settle", defaultConfig.SettleDelay, "Delay after ramping before measuring.")
	flag.Float64Var(&defaultConfig.MaxRate, "max-rate", defaultConfig.MaxRate, "Maximum sampling rate (samples/s), 0 for unlimited.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewController creates a Controller over the MSP client using the config.
func (c *Config) NewController(client *msp.Client) *Controller {
	return &Controller{
		Motors:             motor.NewLink(client),
		Accel:              imu.NewLink(client),
		Flush:              client.Flush,
		CalibrationSamples: c.CalibrationSamples,
		StepDelay:          c.StepDelay,
		SettleDelay:        c.SettleDelay,
		MaxRate:            c.MaxRate,
	}
}
