package shell

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// Status is the terminal state of a child: either a normal exit with a code
// or termination by a signal.
type Status struct {
	signaled bool
	code     int
	signal   syscall.Signal
}

// Exited returns the status of a child that exited normally.
func Exited(code int) Status {
	return Status{code: code}
}

// Signaled returns the status of a child that was killed by sig.
func Signaled(sig syscall.Signal) Status {
	return Status{signaled: true, signal: sig}
}

// StatusFromWait converts a raw wait status.
func StatusFromWait(ws unix.WaitStatus) Status {
	if ws.Signaled() {
		return Signaled(syscall.Signal(ws.Signal()))
	}
	return Exited(ws.ExitStatus())
}

// Signaled reports whether the child was terminated by a signal.
func (s Status) Signaled() bool {
	return s.signaled
}

// ExitCode returns the exit code, or -1 if the child was signaled.
func (s Status) ExitCode() int {
	if s.signaled {
		return -1
	}
	return s.code
}

// Signal returns the terminating signal, or 0 if the child exited.
func (s Status) Signal() syscall.Signal {
	if !s.signaled {
		return 0
	}
	return s.signal
}

// Success is true for a normal exit with code 0.
func (s Status) Success() bool {
	return !s.signaled && s.code == 0
}

func (s Status) String() string {
	if s.signaled {
		return fmt.Sprintf("terminated by signal %d", int(s.signal))
	}
	return fmt.Sprintf("exit value %d", s.code)
}
