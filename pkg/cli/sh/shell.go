package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/serterm/pkg/env"
	"github.com/robotalks/serterm/pkg/espled"
	fx "github.com/robotalks/serterm/pkg/framework"
	"github.com/robotalks/serterm/pkg/framing"
	"github.com/robotalks/serterm/pkg/term"
)

// Shell provides ishell backed interactive shell for espled controllers.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell  *ishell.Shell
	Config *env.Config
	Conn   *Conn
}

// Conn is an open device with a running reader.
type Conn struct {
	Name   string
	Ctx    context.Context
	Cancel func()
	Stream io.ReadWriteCloser
	Reader *term.Reader
	Writer *term.Writer
	Client *espled.Client

	runner *fx.Runner
}

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
		&SendCmd,
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

// New creates a new shell.
func New(conf *env.Config) *Shell {
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

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// Print prints a reply in plain text or JSON.
func (s *Shell) Print(c *ishell.Context, v interface{}) {
	if s.OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(FormatValue(v))
}

// FormatValue formats a reply for display.
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case []string:
		lines := make([]string, len(val))
		for n, item := range val {
			lines[n] = fmt.Sprintf("%d: %s", n, item)
		}
		return strings.Join(lines, "\n")
	case map[string]espled.Parameter:
		names := make([]string, 0, len(val))
		for name := range val {
			names = append(names, name)
		}
		sort.Strings(names)
		lines := make([]string, len(names))
		for n, name := range names {
			lines[n] = name + " = " + val[name].String()
		}
		return strings.Join(lines, "\n")
	case nil:
		return "OK"
	default:
		return fmt.Sprint(val)
	}
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Connect opens a device and attaches to it.
// An empty path uses the configured device.
func (s *Shell) Connect(path string) error {
	conf := *s.Config
	if path != "" {
		conf.Device.Path = path
	}
	port, err := conf.Open()
	if err != nil {
		return err
	}
	f, err := conf.NewFraming()
	if err != nil {
		port.Close()
		return err
	}
	s.Attach(conf.Device.Path, port, f)
	return nil
}

// Attach starts a connection over an opened stream.
func (s *Shell) Attach(name string, stream io.ReadWriteCloser, f framing.Framing) *Conn {
	s.Disconnect()
	conn := &Conn{
		Name:   name,
		Stream: stream,
		Reader: term.NewReader(stream, f),
		Writer: term.NewWriter(stream, f),
	}
	conn.Reader.PollInterval = s.Config.PollInterval
	if invalid, err := s.Config.InvalidPolicy(); err == nil {
		conn.Reader.Invalid = invalid
	}
	conn.Ctx, conn.Cancel = context.WithCancel(context.Background())
	conn.Client = espled.NewClient(conn.Writer)
	conn.Client.Fallback = term.HandleMessageFunc(func(_ context.Context, msg *framing.Message) {
		if msg.Valid {
			s.Shell.Println(msg.Text)
		} else {
			s.Shell.Printf("Received non-decodable message: %q\n", msg.Raw)
		}
	})
	conn.Reader.Handler = conn.Client
	conn.Reader.Notifier = term.StateChangedFunc(func(_ context.Context, state term.ReaderState, err error) {
		if state == term.ReaderLost {
			s.Shell.Printf("Connection lost: %v\n", err)
		}
	})
	conn.runner = fx.NewRunnerWith(conn.Ctx).Go(conn.Reader)
	s.Conn = conn
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", name))
	return conn
}

// Disconnect closes the current connection.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.Close()
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Close stops the reader and closes the stream.
func (c *Conn) Close() error {
	c.Cancel()
	err := c.Stream.Close()
	if werr := c.runner.Wait(); werr != nil {
		glog.V(1).Infof("%s reader: %v", c.Name, werr)
	}
	return err
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.Device.Path != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.Device.Path)
		}
		if err := s.Connect(""); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.Device.Path, err)
		}
	}
	defer s.Disconnect()

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
			s := ShellFrom(c)
			ports, err := listPorts()
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				if ports == nil {
					ports = []string{}
				}
				s.Print(c, ports)
				return
			}
			if len(ports) == 0 {
				c.Println("No serial devices found")
				return
			}
			for _, port := range ports {
				c.Println(port)
			}
		},
	}

	// ConnectCmd connects a device.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[DEVICE]",
		Func: func(c *ishell.Context) {
			var path string
			if len(c.Args) > 0 {
				path = c.Args[0]
			}
			if err := ShellFrom(c).Connect(path); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current device.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// SendCmd sends a raw command line.
	SendCmd = ishell.Cmd{
		Name: "send",
		Help: "TEXT",
		Func: MustBeConnected(func(c *ishell.Context) {
			if err := ShellFrom(c).Conn.Writer.Send(strings.Join(c.Args, " ")); err != nil {
				c.Err(err)
			}
		}),
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.Default()).WithAutoConnect(true).Run(flag.Args()...)
}

// DoRequest runs a request on the connected controller and prints the reply.
// fn receives the client and returns the reply to print.
func DoRequest(c *ishell.Context, fn func(context.Context, *espled.Client) (interface{}, error)) error {
	s := ShellFrom(c)
	if s.Conn == nil {
		err := fmt.Errorf("not connected")
		c.Err(err)
		return err
	}
	reply, err := fn(s.Conn.Ctx, s.Conn.Client)
	if err != nil {
		c.Err(err)
		return err
	}
	s.Print(c, reply)
	return nil
}
