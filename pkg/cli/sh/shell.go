// Package sh is an interactive shell talking MSP to a flight controller.
package sh

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	fx "github.com/robotalks/msp.go/pkg/framework"
	"github.com/robotalks/msp.go/pkg/imu"
	"github.com/robotalks/msp.go/pkg/motor"
	"github.com/robotalks/msp.go/pkg/msp"
	"github.com/robotalks/msp.go/pkg/transport"
	"github.com/robotalks/msp.go/pkg/vibration"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell      *ishell.Shell
	Config     *transport.Config
	VibeConfig *vibration.Config
	Conn       *Conn
}

// Conn is an opened flight controller connection.
type Conn struct {
	Target     string
	Port       transport.Port
	Client     *msp.Client
	Motors     *motor.Link
	Accel      *imu.Link
	Controller *vibration.Controller
}

// ErrNotConnected is returned by commands requiring a connection.
var ErrNotConnected = errors.New("not connected")

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&PortsCmd,
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// Dial opens target and creates the links over it.
func Dial(target string, conf *transport.Config, vconf *vibration.Config) (*Conn, error) {
	port, err := transport.Open(target, transport.PortOptions{BaudRate: conf.Baud}, conf.Timeout)
	if err != nil {
		return nil, err
	}
	client := msp.NewClient(port)
	return &Conn{
		Target:     target,
		Port:       port,
		Client:     client,
		Motors:     motor.NewLink(client),
		Accel:      imu.NewLink(client),
		Controller: vconf.NewController(client),
	}, nil
}

// Do runs fn until it completes. Ctrl-C cancels the context passed to
// fn, which stops the motors of a running test.
func (c *Conn) Do(name string, fn func(context.Context) error) error {
	var fnErr error
	err := fx.RunOne(name, fx.RunFunc(func(ctx context.Context) error {
		fnErr = fn(ctx)
		return fnErr
	}))
	if errors.Is(err, fx.ErrForcedExit) {
		return err
	}
	return fnErr
}

// RunTest runs a vibration test, reporting its states to n if not nil.
func (c *Conn) RunTest(spec vibration.TestSpec, n vibration.StateNotifier) (r *vibration.Report, err error) {
	err = c.Do("vibe", func(ctx context.Context) (err error) {
		r, err = c.Controller.Run(withNotifier(ctx, n), spec.Motor, spec.PWM, spec.Duration)
		return
	})
	return
}

// RunPlan runs the tests of a plan, reporting states to n if not nil.
func (c *Conn) RunPlan(p *vibration.Plan, n vibration.StateNotifier) (reports []*vibration.Report, err error) {
	err = c.Do("plan", func(ctx context.Context) (err error) {
		reports, err = c.Controller.RunPlan(withNotifier(ctx, n), p)
		return
	})
	return
}

func withNotifier(ctx context.Context, n vibration.StateNotifier) context.Context {
	if n == nil {
		return ctx
	}
	return vibration.WithNotifier(ctx, n)
}

// Writer adapts the output of an ishell context to io.Writer.
type Writer struct {
	*ishell.Context
}

// Write implements io.Writer.
func (w Writer) Write(p []byte) (int, error) {
	w.Context.Print(string(p))
	return len(p), nil
}

// Close stops the motors and closes the port.
func (c *Conn) Close() error {
	if err := c.Motors.StopMotors(); err != nil {
		glog.Warningf("stop motors on %s: %v", c.Target, err)
	}
	return c.Port.Close()
}

// New creates a new shell.
func New(conf *transport.Config, vconf *vibration.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:      ishell.New(),
		Config:     conf,
		VibeConfig: vconf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context, conn *Conn)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		conn := ShellFrom(c).Conn
		if conn == nil {
			c.Err(ErrNotConnected)
			return
		}
		fn(c, conn)
	}
}

// PrintResult prints v, in JSON if OutputJSON is set, otherwise using
// text. Returns err unchanged after printing it.
func PrintResult(c *ishell.Context, v interface{}, text string, err error) error {
	if err != nil {
		c.Err(err)
		return err
	}
	if ShellFrom(c).OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return err
		}
		c.Println(string(out))
		return nil
	}
	c.Println(text)
	return nil
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Connect opens target, or the configured port if target is empty.
func (s *Shell) Connect(target string) error {
	if target == "" {
		target = s.Config.Port
	}
	conn, err := Dial(target, s.Config, s.VibeConfig)
	if err != nil {
		return err
	}
	s.Disconnect()
	s.Conn = conn
	s.setPrompt(fmt.Sprintf("%s > ", target))
	return nil
}

// Disconnect stops the motors and closes the current connection.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		if err := s.Conn.Close(); err != nil {
			glog.Warningf("close %s: %v", s.Conn.Target, err)
		}
		s.Conn = nil
		s.setPrompt(unconnectedPrompt)
	}
}

func (s *Shell) setPrompt(prompt string) {
	if s.Shell != nil {
		s.Shell.SetPrompt(prompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.Disconnect()
	if s.AutoConnect && s.Config.Port != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.Port)
		}
		if err := s.Connect(""); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.Port, err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// PortsCmd lists serial devices.
	PortsCmd = ishell.Cmd{
		Name:    "ports",
		Aliases: []string{"list", "l"},
		Help:    "list serial devices",
		Func: func(c *ishell.Context) {
			ports, err := transport.ListSerial()
			if len(ports) == 0 {
				// in case ports is nil, make it empty slice.
				ports = []string{}
			}
			text := "No serial devices found"
			if len(ports) > 0 {
				text = fmt.Sprint(ports)
			}
			PrintResult(c, ports, text, err)
		},
	}

	// ConnectCmd connects a flight controller.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[PORT|URL]",
		Func: func(c *ishell.Context) {
			var target string
			if len(c.Args) > 0 {
				target = c.Args[0]
			}
			if err := ShellFrom(c).Connect(target); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current flight controller.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "stop motors and disconnect",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(transport.NewConfig(), vibration.NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
