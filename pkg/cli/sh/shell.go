package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/mrf.go/pkg/driver"
	"github.com/robotalks/mrf.go/pkg/l0/serial"
	"github.com/robotalks/mrf.go/pkg/robot"
	"github.com/robotalks/mrf.go/pkg/sim"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell     *ishell.Shell
	Config    *driver.Config
	SimConfig *sim.Config
	Conn      *Conn
}

// Conn is a connected robot with its flows running in background.
type Conn struct {
	Robot  *robot.Robot
	cancel func()
	doneCh chan struct{}
	err    error
}

// Stopped returns the error which stopped the flows, if stopped.
func (c *Conn) Stopped() (bool, error) {
	select {
	case <-c.doneCh:
		return true, c.err
	default:
		return false, nil
	}
}

func (c *Conn) close() {
	c.cancel()
	<-c.doneCh
	if err := c.Robot.Close(); err != nil {
		glog.Warningf("close %s: %v", c.Robot.Port, err)
	}
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
	simulate   bool

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
	flag.BoolVar(&simulate, "sim", simulate, "Connect the simulated robot.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *driver.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
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

// RobotFrom gets the connected robot from ishell context.
func RobotFrom(c *ishell.Context) *robot.Robot {
	if conn := ShellFrom(c).Conn; conn != nil {
		return conn.Robot
	}
	return nil
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		conn := ShellFrom(c).Conn
		if conn == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		if stopped, err := conn.Stopped(); stopped {
			c.Err(fmt.Errorf("connection lost: %v", err))
			return
		}
		fn(c)
	}
}

// Output prints v as JSON with -json, otherwise the text.
func Output(c *ishell.Context, v interface{}, text string) {
	if !ShellFrom(c).OutputJSON {
		c.Println(text)
		return
	}
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

// OK reports the result of a command without output.
func OK(c *ishell.Context, err error) {
	switch {
	case err != nil:
		c.Err(err)
	case ShellFrom(c).OutputJSON:
		c.Println(`{"ok":true}`)
	default:
		c.Println("OK")
	}
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// WithSimulation connects the simulated firmware instead of serial ports.
func (s *Shell) WithSimulation(conf *sim.Config) *Shell {
	s.SimConfig = conf
	return s
}

// Connect opens the port and starts the flows.
func (s *Shell) Connect(port string) error {
	conf := *s.Config
	if port != "" {
		conf.Port = port
	}
	simConf := s.SimConfig
	if conf.Port == robot.SimPort && simConf == nil {
		simConf = sim.NewConfig()
	}
	r, err := robot.Open(&conf, simConf)
	if err != nil {
		return err
	}
	s.Disconnect()
	ctx, cancel := context.WithCancel(context.Background())
	conn := &Conn{Robot: r, cancel: cancel, doneCh: make(chan struct{})}
	go func() {
		defer close(conn.doneCh)
		if conn.err = r.Run(ctx); conn.err != nil {
			glog.Errorf("%s: %v", r.Port, conn.err)
		}
	}()
	s.Conn = conn
	s.Shell.SetPrompt(fmt.Sprintf("%s(%s) > ", r.Port, r.Session.Variant().Name))
	return nil
}

// Disconnect disconnects current robot.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.close()
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.Disconnect()
	if s.AutoConnect {
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
	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name:    "ports",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ports, err := serial.List()
			if err != nil {
				c.Err(err)
				return
			}
			if len(ports) == 0 {
				// in case ports is nil, make it empty slice.
				ports = []string{}
			}
			text := strings.Join(ports, "\n")
			if text == "" {
				text = "No serial ports found"
			}
			Output(c, ports, text)
		},
	}

	// ConnectCmd connects a robot.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[PORT|sim] [PROTOCOL]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var port string
			if len(c.Args) > 0 {
				port = c.Args[0]
			}
			if len(c.Args) > 1 {
				s.Config.Protocol = c.Args[1]
			}
			OK(c, s.Connect(port))
		},
	}

	// DisconnectCmd disconnects current robot.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main. It connects
// automatically when -port or -sim is specified.
func Main() {
	flag.Parse()
	s := New(driver.Default()).WithAutoConnect(simulate)
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "port" {
			s.WithAutoConnect(true)
		}
	})
	if simulate {
		s.WithSimulation(sim.Default())
	}
	s.Run(flag.Args()...)
}
