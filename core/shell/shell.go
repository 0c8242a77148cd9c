package shell

import (
	"errors"
	"io"
	"log"
	"os"
	"strings"
	"syscall"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/smallsh/core/logger"
)

const (
	// EnvHome names the variable cd falls back to without an operand.
	EnvHome = "HOME"

	defaultPrompt = ": "
	commentPrefix = "#"
)

// LineReader supplies one line of input per call and io.EOF at the end of
// input.
type LineReader interface {
	Readline() (string, error)
}

type promptSetter interface {
	SetPrompt(string)
}

// Options configures a Shell.
type Options struct {
	// Prompt is shown before each line if the LineReader supports prompts,
	// ": " when empty.
	Prompt string
	// MaxJobs bounds the number of tracked background jobs.
	MaxJobs int
	// Color is one of ColorAuto, ColorAlways or ColorNever.
	Color string
	// Mode holds the foreground-only flag, a new one writing to Notices is
	// created when nil.
	Mode *Mode
	// Notices receives foreground-only mode changes, it defaults to the
	// shell output and should be unbuffered.
	Notices io.Writer
	// Events records shell activity, nil disables it.
	Events *logger.EventLog
	// Log receives diagnostics, nil discards them.
	Log *log.Logger
	// Procs waits on and signals children, defaults to SystemProcesses.
	Procs ProcessControl
	// Launcher starts children, defaults to NewLauncher().
	Launcher *Launcher
}

type Shell struct {
	In       LineReader
	Out      io.Writer
	Printer  *Printer
	Mode     *Mode
	Jobs     *JobTable
	Launcher *Launcher
	Procs    ProcessControl
	Events   *logger.EventLog
	Log      *log.Logger
	Prompt   string

	// Set to true to quit the shell
	Quit bool

	pid        int
	lastStatus Status
	shutDown   bool
}

// New creates a shell reading lines from in and writing messages to out.
func New(in LineReader, out io.Writer, opts Options) *Shell {
	if opts.Prompt == "" {
		opts.Prompt = defaultPrompt
	}
	if opts.Notices == nil {
		opts.Notices = out
	}
	if opts.Mode == nil {
		opts.Mode = NewMode(opts.Notices)
	}
	if opts.Log == nil {
		opts.Log = log.New(io.Discard, "", 0)
	}
	if opts.Procs == nil {
		opts.Procs = SystemProcesses{}
	}
	if opts.Launcher == nil {
		opts.Launcher = NewLauncher()
	}

	s := &Shell{
		In:       in,
		Out:      out,
		Printer:  NewPrinter(out, opts.Color),
		Mode:     opts.Mode,
		Jobs:     NewJobTable(opts.Procs, opts.MaxJobs),
		Launcher: opts.Launcher,
		Procs:    opts.Procs,
		Events:   opts.Events,
		Log:      opts.Log,
		Prompt:   opts.Prompt,
		pid:      os.Getpid(),
	}
	s.Jobs.OnDrop = func(pid int, err error) {
		s.Log.Printf("dropping background pid %d: %v", pid, err)
	}
	return s
}

// Pid returns the process ID $$ expands to.
func (s *Shell) Pid() int {
	return s.pid
}

// LastStatus returns the status of the last foreground command.
func (s *Shell) LastStatus() Status {
	return s.lastStatus
}

// Getenv reads a variable from the shell's environment.
func (s *Shell) Getenv(key string) string {
	return os.Getenv(key)
}

// Chdir changes the working directory of the shell and its future children.
func (s *Shell) Chdir(dir string) error {
	return os.Chdir(dir)
}

// Run reads and executes lines until exit or the end of input, then
// terminates outstanding background jobs.
func (s *Shell) Run() {
	for !s.Quit {
		if ps, ok := s.In.(promptSetter); ok {
			ps.SetPrompt(s.Prompt)
		}
		line, err := s.In.Readline()

		switch {
		case err == io.EOF:
			s.Quit = true // Input closed, quit.

		case err == readline.ErrInterrupt:
			// Interrupt clears line.
			continue

		case err != nil:
			s.Log.Printf("Error readline: %v", err)
			s.Quit = true

		default:
			s.RunLine(line)
		}
	}

	s.shutdown()
}

// RunLine executes a single line of input. Blank lines and comments are
// ignored entirely; every other line is followed by one sweep for finished
// background jobs unless it quit the shell.
func (s *Shell) RunLine(line string) {
	name, end := CommandWord(line)
	if name == "" || strings.HasPrefix(name, commentPrefix) {
		return
	}

	tokens := Tokenize(line, end, s.pid)
	if builtin, ok := AllBuiltins[name]; ok {
		args := append([]string{name}, tokens...)
		ret := builtin.Main(s, args)
		s.logEvent(s.Events.Builtin(args, ret))
	} else {
		s.runExternal(name, tokens)
	}

	if s.Quit {
		s.shutdown()
		return
	}
	s.reapJobs()
}

func (s *Shell) runExternal(name string, tokens []string) {
	cmd, err := Resolve(name, tokens, s.Mode.ForegroundOnly())
	if err != nil {
		s.Printer.Errorf("%s: %v\n", name, err)
		return
	}

	if cmd.Background && s.Jobs.Full() {
		s.Printer.Errorf("%s: %v\n", name, ErrJobTableFull)
		return
	}

	pid, err := s.Launcher.Launch(cmd)
	var execErr *ExecError
	switch {
	case errors.As(err, &execErr):
		s.Printer.Errorf("%v\n", execErr)
		s.logEvent(s.Events.ExecFailed(cmd.Args, execErr))
		if !cmd.Background {
			s.lastStatus = execErr.Status()
		}
		return

	case err != nil:
		s.Printer.Errorf("%v\n", err)
		s.logEvent(s.Events.RedirectFailed(cmd.Args, err))
		return
	}

	s.logEvent(s.Events.RunCommand(cmd.Args, pid, cmd.Background))

	if cmd.Background {
		if err := s.Jobs.Insert(pid); err != nil {
			s.Printer.Errorf("%s: %v\n", name, err)
			if err := s.Procs.Signal(pid, syscall.SIGTERM); err != nil {
				s.Log.Printf("terminating untracked pid %d: %v", pid, err)
			}
			return
		}
		s.Printer.Noticef("background pid is %d\n", pid)
		return
	}

	status, err := s.Procs.Wait(pid)
	if err != nil {
		s.Log.Printf("waiting for pid %d: %v", pid, err)
		return
	}
	s.lastStatus = status
	s.logEvent(s.Events.ForegroundDone(pid, status))
	if status.Signaled() {
		s.Printer.Noticef("%s\n", status)
	}
}

func (s *Shell) reapJobs() {
	for _, done := range s.Jobs.ReapOnce() {
		s.Printer.Noticef("%s\n", done)
		s.logEvent(s.Events.JobDone(done.Pid, done.Status))
	}
}

func (s *Shell) shutdown() {
	if s.shutDown {
		return
	}
	s.shutDown = true

	outstanding := s.Jobs.Len()
	if err := s.Jobs.TerminateAll(); err != nil {
		s.Log.Printf("terminating background jobs: %v", err)
	}
	s.logEvent(s.Events.ShellExit(outstanding))
}

func (s *Shell) logEvent(err error) {
	if err != nil {
		s.Log.Printf("event log: %v", err)
	}
}
