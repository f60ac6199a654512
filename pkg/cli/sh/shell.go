// Package sh provides an interactive shell for poking a link.
package sh

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/fclink/pkg/env"
	"github.com/robotalks/fclink/pkg/l0/comm"
	"github.com/robotalks/fclink/pkg/telemetry"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoOpen    bool

	Shell   *ishell.Shell
	Config  *env.Config
	Session *Session
}

const (
	shellKey       = "$shell"
	unopenedPrompt = "[closed] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&OpenCmd,
		&CloseCmd,
		&SendCmd,
		&FlushCmd,
		&StatCmd,
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
	s.Shell.SetPrompt(unopenedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeOpen wraps command func requires an open link.
func MustBeOpen(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Session == nil {
			c.Err(fmt.Errorf("link not open"))
			return
		}
		fn(c)
	}
}

// Print prints v as JSON or with its default format.
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
	c.Println(v)
}

// SendFrame queues a frame and flushes the link.
func SendFrame(c *ishell.Context, f *comm.Frame) error {
	s := ShellFrom(c).Session
	if s == nil {
		err := fmt.Errorf("link not open")
		c.Err(err)
		return err
	}
	if err := s.Link.Send(f); err != nil {
		c.Err(err)
		return err
	}
	if err := s.Link.Flush(); err != nil {
		c.Err(err)
		return err
	}
	return nil
}

// HandleFrame implements comm.FrameHandler by printing received frames.
func (s *Shell) HandleFrame(_ context.Context, f *comm.Frame) {
	if s.OutputJSON {
		out, _ := json.Marshal(struct {
			Cmd  byte   `json:"cmd"`
			Data string `json:"data"`
		}{f.Cmd, hex.EncodeToString(f.Data)})
		s.Shell.Println(string(out))
		return
	}
	s.Shell.Printf("< %s\n", telemetry.Describe(f))
}

// WithAutoOpen sets AutoOpen.
func (s *Shell) WithAutoOpen(en bool) *Shell {
	s.AutoOpen = en
	return s
}

// Open opens the link at url, closing the current one.
func (s *Shell) Open(url string) error {
	conf := *s.Config
	conf.LinkURL = url
	conn, err := conf.OpenTransport(context.TODO())
	if err != nil {
		return err
	}
	s.Close()
	s.Session = StartSession(url, conn, conf.TxBufferSize, s)
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", url))
	return nil
}

// Close closes current link.
func (s *Shell) Close() {
	if s.Session != nil {
		s.Session.Close()
		s.Session = nil
		s.Shell.SetPrompt(unopenedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoOpen && s.Config.LinkURL != "" {
		if s.Interactive {
			s.Shell.Printf("Opening %s ...\n", s.Config.LinkURL)
		}
		if err := s.Open(s.Config.LinkURL); err != nil {
			log.Fatalf("open %q failed: %v", s.Config.LinkURL, err)
		}
	}
	defer s.Close()

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
	// OpenCmd opens a link.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "[URL]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			url := s.Config.LinkURL
			if len(c.Args) > 0 {
				url = c.Args[0]
			}
			if err := s.Open(url); err != nil {
				c.Err(err)
			}
		},
	}

	// CloseCmd closes current link.
	CloseCmd = ishell.Cmd{
		Name:    "close",
		Aliases: []string{"c"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Close()
		},
	}

	// SendCmd sends a frame.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "CMD [HEX...]",
		Func: MustBeOpen(func(c *ishell.Context) {
			f, err := ParseFrame(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			SendFrame(c, f)
		}),
	}

	// FlushCmd drains the TX ring.
	FlushCmd = ishell.Cmd{
		Name: "flush",
		Help: "",
		Func: MustBeOpen(func(c *ishell.Context) {
			if err := ShellFrom(c).Session.Link.Flush(); err != nil {
				c.Err(err)
			}
		}),
	}

	// StatCmd prints link statistics.
	StatCmd = ishell.Cmd{
		Name: "stat",
		Help: "",
		Func: MustBeOpen(func(c *ishell.Context) {
			s := ShellFrom(c)
			st := s.Session.Stat()
			if s.OutputJSON {
				s.Print(c, st)
				return
			}
			c.Printf("%s\n  tx: cap=%d pending=%d space_left=%d\n", st.URL, st.TxCap, st.TxPending, st.TxSpaceLeft)
			c.Printf("  frames: committed=%.0f dropped=%.0f received=%.0f\n", st.FramesCommitted, st.FramesDropped, st.FramesReceived)
			c.Printf("  bytes drained: %.0f\n", st.BytesDrained)
		}),
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.NewConfig()).WithAutoOpen(true).Run(flag.Args()...)
}
