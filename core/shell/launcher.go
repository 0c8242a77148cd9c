package shell

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"syscall"
)

const (
	// ExitNotFound is the status recorded when a program can't be found.
	ExitNotFound = 127
	// ExitCannotExecute is the status recorded when a program was found but
	// couldn't be executed.
	ExitCannotExecute = 126

	outputPerm = 0600
)

var (
	// ErrInputRedirect is matched by errors opening an input redirection.
	ErrInputRedirect = errors.New("input redirection failed")
	// ErrOutputRedirect is matched by errors opening an output redirection.
	ErrOutputRedirect = errors.New("output redirection failed")
)

// RedirectError is returned when a redirection target can't be opened.
type RedirectError struct {
	Path string
	// Kind is ErrInputRedirect or ErrOutputRedirect.
	Kind error
	Err  error
}

func (e *RedirectError) Error() string {
	direction := "output"
	if e.Kind == ErrInputRedirect {
		direction = "input"
	}

	reason := e.Err
	var pathErr *fs.PathError
	if errors.As(reason, &pathErr) {
		reason = pathErr.Err
	}
	return fmt.Sprintf("cannot open %s for %s: %v", e.Path, direction, reason)
}

func (e *RedirectError) Is(target error) bool {
	return target == e.Kind
}

func (e *RedirectError) Unwrap() error {
	return e.Err
}

// ExecError is returned when the program image can't be started.
type ExecError struct {
	Name string
	Err  error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// Status is the terminal status the failed child is recorded with.
func (e *ExecError) Status() Status {
	if errors.Is(e.Err, exec.ErrNotFound) || errors.Is(e.Err, fs.ErrNotExist) {
		return Exited(ExitNotFound)
	}
	return Exited(ExitCannotExecute)
}

func newExecError(name string, err error) *ExecError {
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		err = execErr.Err
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		err = pathErr.Err
	}
	return &ExecError{Name: name, Err: err}
}

// Launcher starts child processes for resolved commands.
type Launcher struct {
	// Stdin, Stdout and Stderr are the shell's own streams, inherited by
	// children that don't redirect them.
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File

	// Dir is the working directory of children, the shell's when empty.
	Dir string
	// Env is the environment of children, the shell's when nil.
	Env []string
}

// NewLauncher creates a Launcher that inherits the process' standard streams.
func NewLauncher() *Launcher {
	return &Launcher{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

type openFiles []*os.File

func (of *openFiles) open(name string, flag int, perm os.FileMode) (*os.File, error) {
	fd, err := os.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	*of = append(*of, fd)
	return fd, nil
}

func (of *openFiles) Close() {
	for _, fd := range *of {
		fd.Close()
	}
	*of = nil
}

// Launch starts a child process for cmd and returns its process ID without
// waiting for it.
//
// Redirections are opened in the shell and handed to the child; the
// shell's own streams are never rebound and every file opened here is
// closed before Launch returns. Background commands without an explicit
// redirection read from and write to the null device and run in their own
// process group.
func (l *Launcher) Launch(cmd *Command) (int, error) {
	var files openFiles
	defer files.Close()

	stdin, stdout := l.Stdin, l.Stdout

	switch {
	case cmd.InputPath != "":
		fd, err := files.open(cmd.InputPath, os.O_RDONLY, 0)
		if err != nil {
			return 0, &RedirectError{Path: cmd.InputPath, Kind: ErrInputRedirect, Err: err}
		}
		stdin = fd
	case cmd.Background:
		fd, err := files.open(os.DevNull, os.O_RDONLY, 0)
		if err != nil {
			return 0, &RedirectError{Path: os.DevNull, Kind: ErrInputRedirect, Err: err}
		}
		stdin = fd
	}

	switch {
	case cmd.OutputPath != "":
		fd, err := files.open(cmd.OutputPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, outputPerm)
		if err != nil {
			return 0, &RedirectError{Path: cmd.OutputPath, Kind: ErrOutputRedirect, Err: err}
		}
		stdout = fd
	case cmd.Background:
		fd, err := files.open(os.DevNull, os.O_WRONLY, 0)
		if err != nil {
			return 0, &RedirectError{Path: os.DevNull, Kind: ErrOutputRedirect, Err: err}
		}
		stdout = fd
	}

	child := exec.Command(cmd.Program, cmd.Args[1:]...)
	child.Args = cmd.Args
	if stdin != nil {
		child.Stdin = stdin
	}
	if stdout != nil {
		child.Stdout = stdout
	}
	if l.Stderr != nil {
		child.Stderr = l.Stderr
	}
	child.Dir = l.Dir
	child.Env = l.Env
	child.SysProcAttr = &syscall.SysProcAttr{Setpgid: cmd.Background}

	if err := child.Start(); err != nil {
		return 0, newExecError(cmd.Program, err)
	}

	pid := child.Process.Pid
	// The child is waited on by ID from here on.
	_ = child.Process.Release()
	return pid, nil
}
