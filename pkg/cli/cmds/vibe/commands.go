package vibe

import (
	"bytes"
	"fmt"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/msp.go/pkg/cli/cmds/motors"
	"github.com/robotalks/msp.go/pkg/cli/sh"
	"github.com/robotalks/msp.go/pkg/imu"
	"github.com/robotalks/msp.go/pkg/report"
	"github.com/robotalks/msp.go/pkg/vibration"
)

// ReadAccel reads n samples in g.
func ReadAccel(conn *sh.Conn, n int) ([]imu.Sample, error) {
	samples := make([]imu.Sample, 0, n)
	for i := 0; i < n; i++ {
		s, err := conn.Accel.Read()
		if err != nil {
			return nil, err
		}
		samples = append(samples, s.G())
	}
	return samples, nil
}

// FormatReport renders a report as the one-shot tool does at verbose 1.
func FormatReport(r *vibration.Report) string {
	var out bytes.Buffer
	report.Text{Verbose: 1}.Write(&out, r)
	return string(bytes.TrimSuffix(out.Bytes(), []byte("\n")))
}

// PrintReport prints a report, as a JSON object when requested.
func PrintReport(c *ishell.Context, r *vibration.Report, err error) {
	if err != nil || !sh.ShellFrom(c).OutputJSON {
		var text string
		if err == nil {
			text = FormatReport(r)
		}
		sh.PrintResult(c, nil, text, err)
		return
	}
	data, err := report.Encode(report.Struct(r, "", false), report.FormatJSON)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(data))
}

var (
	// AccelCmd reads the accelerometer.
	AccelCmd = ishell.Cmd{
		Name:    "accel",
		Aliases: []string{"a"},
		Help:    "[COUNT]",
		Func: sh.MustBeConnected(func(c *ishell.Context, conn *sh.Conn) {
			n := 1
			if len(c.Args) > 0 {
				vals, err := motors.ParseInts(c.Args, "COUNT")
				if err != nil {
					c.Err(err)
					return
				}
				n = vals[0]
			}
			samples, err := ReadAccel(conn, n)
			if err != nil || sh.ShellFrom(c).OutputJSON {
				sh.PrintResult(c, samples, "", err)
				return
			}
			for _, s := range samples {
				c.Printf("x=%.3f y=%.3f z=%.3f\n", s.X, s.Y, s.Z)
			}
		}),
	}

	// VibeCmd runs a vibration test.
	VibeCmd = ishell.Cmd{
		Name:    "vibe",
		Aliases: []string{"v"},
		Help:    "MOTOR(0-3) PWM(1000-2000) [DURATION]",
		Func: sh.MustBeConnected(func(c *ishell.Context, conn *sh.Conn) {
			spec, err := vibration.ParseTestSpec(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			r, err := conn.RunTest(spec, report.Progress(sh.Writer{Context: c}))
			PrintReport(c, r, err)
		}),
	}

	// PlanCmd runs the tests of a plan file.
	PlanCmd = ishell.Cmd{
		Name:    "vibe.plan",
		Aliases: []string{"vp"},
		Help:    "FILE",
		Func: sh.MustBeConnected(func(c *ishell.Context, conn *sh.Conn) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("FILE required"))
				return
			}
			plan, err := vibration.LoadPlan(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			reports, err := conn.RunPlan(plan, report.Progress(sh.Writer{Context: c}))
			for _, r := range reports {
				c.Printf("motor %d @ %d:\n", r.Motor, r.PWM)
				PrintReport(c, r, nil)
			}
			if err != nil {
				c.Err(err)
			}
		}),
	}
)

func init() {
	sh.AddCmds(
		&AccelCmd,
		&VibeCmd,
		&PlanCmd,
	)
}
