package shell

import (
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

var (
	enterForegroundOnly = []byte("\nEntering foreground-only mode (& is now ignored)\n")
	exitForegroundOnly  = []byte("\nExiting foreground-only mode\n")
)

// Mode holds the foreground-only flag. It's flipped by SIGTSTP and read
// when a command line is resolved.
type Mode struct {
	foregroundOnly atomic.Bool
	notices        io.Writer
}

// NewMode creates a Mode that reports changes to w. w should be unbuffered
// because notices can be written at any point of the dispatch loop.
func NewMode(w io.Writer) *Mode {
	return &Mode{notices: w}
}

// ForegroundOnly reports whether background requests are being ignored.
func (m *Mode) ForegroundOnly() bool {
	return m.foregroundOnly.Load()
}

// Toggle flips the flag, writes a notice of the new state and returns it.
func (m *Mode) Toggle() bool {
	for {
		old := m.foregroundOnly.Load()
		if m.foregroundOnly.CompareAndSwap(old, !old) {
			notice := enterForegroundOnly
			if old {
				notice = exitForegroundOnly
			}
			if m.notices != nil {
				_, _ = m.notices.Write(notice)
			}
			return !old
		}
	}
}

// Watch toggles the mode each time the process receives SIGTSTP until the
// returned stop function is called. While watching, SIGTSTP no longer
// suspends the shell.
func (m *Mode) Watch() (stop func()) {
	sigs := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigs, syscall.SIGTSTP)

	go func() {
		for {
			select {
			case <-sigs:
				m.Toggle()
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

// IgnoreInterrupts catches and drops SIGINT so a terminal interrupt only
// affects the foreground child, which still starts with the default action.
func IgnoreInterrupts() (stop func()) {
	sigs := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigs, os.Interrupt)

	go func() {
		for {
			select {
			case <-sigs:
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}
