package shell

import (
	"errors"
	"syscall"

	"golang.org/x/sys/unix"
)

// ErrNotChild is returned when a process ID can't be waited on because it
// isn't, or is no longer, a child of the shell.
var ErrNotChild = errors.New("not a child process")

// ProcessControl waits on and signals child processes by ID.
type ProcessControl interface {
	// Wait blocks until the child exits or is killed.
	Wait(pid int) (Status, error)
	// Poll checks the child without blocking, done is false if it's still
	// running.
	Poll(pid int) (status Status, done bool, err error)
	// Signal sends sig to the child.
	Signal(pid int, sig syscall.Signal) error
}

// SystemProcesses implements ProcessControl with wait4(2) and kill(2).
type SystemProcesses struct{}

var _ ProcessControl = SystemProcesses{}

func wait4(pid int, options int) (int, unix.WaitStatus, error) {
	var ws unix.WaitStatus
	for {
		wpid, err := unix.Wait4(pid, &ws, options, nil)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.ECHILD:
			return 0, ws, ErrNotChild
		default:
			return wpid, ws, err
		}
	}
}

// Wait blocks until the child exits or is killed. A child stopped by a
// terminal stop request is continued, so foreground children don't suspend.
func (SystemProcesses) Wait(pid int) (Status, error) {
	for {
		_, ws, err := wait4(pid, unix.WUNTRACED)
		if err != nil {
			return Status{}, err
		}

		if ws.Stopped() {
			if err := unix.Kill(pid, unix.SIGCONT); err != nil {
				return Status{}, err
			}
			continue
		}

		if ws.Exited() || ws.Signaled() {
			return StatusFromWait(ws), nil
		}
	}
}

// Poll checks the child with WNOHANG.
func (SystemProcesses) Poll(pid int) (Status, bool, error) {
	wpid, ws, err := wait4(pid, unix.WNOHANG)
	if err != nil {
		return Status{}, false, err
	}
	if wpid == 0 || !(ws.Exited() || ws.Signaled()) {
		return Status{}, false, nil
	}
	return StatusFromWait(ws), true, nil
}

// Signal sends sig to the child.
func (SystemProcesses) Signal(pid int, sig syscall.Signal) error {
	return unix.Kill(pid, sig)
}
