package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"

	fx "github.com/robotalks/msp.go/pkg/framework"
	"github.com/robotalks/msp.go/pkg/msp"
	"github.com/robotalks/msp.go/pkg/report"
	"github.com/robotalks/msp.go/pkg/transport"
	"github.com/robotalks/msp.go/pkg/vibration"
)

// Options are the command line options beyond transport and controller.
type Options struct {
	PropsRemoved bool
	PlanFile     string
	PlotFile     string
	MQTTURL      string
	Verbose      int
	Bold         bool
}

var options = Options{Bold: true}

// errPropsAttached refuses to run without confirmation.
var errPropsAttached = errors.New("remove the propellers and confirm with -props-are-removed")

func init() {
	options.MQTTURL = os.Getenv("MSP_MQTT_URL")

	transport.SetupFlags()
	vibration.SetupFlags()
	flag.BoolVar(&options.PropsRemoved, "props-are-removed", options.PropsRemoved, "Confirm propellers are removed, required to spin motors.")
	flag.StringVar(&options.PlanFile, "plan", options.PlanFile, "Run tests from a YAML plan instead of arguments.")
	flag.StringVar(&options.PlotFile, "plot", options.PlotFile, "Save a plot of the samples, e.g. vibe.png.")
	flag.StringVar(&options.MQTTURL, "mqtt", options.MQTTURL, "Publish reports to MQTT broker URL, e.g. mqtt://host:1883/prefix/.")
	flag.IntVar(&options.Verbose, "verbose", options.Verbose, "Report detail: 1 adds offset and per-axis RMS, 2 adds sampling rate.")
	flag.BoolVar(&options.Bold, "bold", options.Bold, "Highlight the total RMS.")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] MOTOR(0-3) PWM(1000-2000) [DURATION]\n", filepath.Base(os.Args[0]))
		fmt.Fprintln(flag.CommandLine.Output(), "       DURATION is in seconds or a Go duration, default 1s.")
		flag.PrintDefaults()
	}
}

// LoadPlan builds the plan from a plan file or the arguments.
func LoadPlan(opts *Options, args []string) (*vibration.Plan, error) {
	if opts.PlanFile != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("unexpected arguments with -plan: %v", args)
		}
		return vibration.LoadPlan(opts.PlanFile)
	}
	spec, err := vibration.ParseTestSpec(args)
	if err != nil {
		return nil, err
	}
	return &vibration.Plan{Tests: []vibration.TestSpec{spec}}, nil
}

// PlotFile names the plot of the nth of count reports.
func PlotFile(fn string, nth, count int) string {
	if count <= 1 {
		return fn
	}
	ext := filepath.Ext(fn)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(fn, ext), nth+1, ext)
}

// Run opens the port, runs the plan and outputs the reports.
func Run(ctx context.Context, opts *Options, port transport.Port, plan *vibration.Plan, out io.Writer) error {
	var publisher *report.Publisher
	if opts.MQTTURL != "" {
		var err error
		if publisher, err = report.NewPublisherFromURL(opts.MQTTURL); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
		if err = publisher.Connect(); err != nil {
			return err
		}
		defer publisher.Close()
	}

	ctrl := vibration.Default().NewController(msp.NewClient(port))
	reports, runErr := ctrl.RunPlan(vibration.WithNotifier(ctx, report.Progress(out)), plan)

	var errs fx.AggregatedError
	errs.Add(runErr)
	text := report.Text{Verbose: opts.Verbose, Bold: opts.Bold}
	for n, r := range reports {
		if len(reports) > 1 {
			fmt.Fprintf(out, "motor %d @ %d:\n", r.Motor, r.PWM)
		}
		errs.Add(text.Write(out, r))
		if opts.PlotFile != "" {
			errs.Add(report.SavePlot(r, PlotFile(opts.PlotFile, n, len(reports))))
		}
		if publisher != nil {
			errs.Add(publisher.Publish(r))
		}
	}
	return errs.Aggregate()
}

func run(args []string) error {
	if !options.PropsRemoved {
		return errPropsAttached
	}
	plan, err := LoadPlan(&options, args)
	if err != nil {
		return err
	}
	port, err := transport.Default().Open()
	if err != nil {
		return err
	}
	defer port.Close()

	var runErr error
	err = fx.RunOne("mspvib", fx.RunFunc(func(ctx context.Context) error {
		runErr = Run(ctx, &options, port, plan, os.Stdout)
		return runErr
	}))
	if errors.Is(err, fx.ErrForcedExit) {
		return err
	}
	return runErr
}

func main() {
	flag.Parse()
	defer glog.Flush()
	if err := run(flag.Args()); err != nil {
		glog.Error(err)
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errPropsAttached) || errors.Is(err, vibration.ErrInvalidDuration) {
			flag.Usage()
		}
		glog.Flush()
		os.Exit(1)
	}
}
