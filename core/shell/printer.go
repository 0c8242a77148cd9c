package shell

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"golang.org/x/term"
)

const (
	ColorAlways = "always"
	ColorAuto   = "auto"
	ColorNever  = "never"
)

// Printer writes shell messages to the output sink, one message per call.
type Printer struct {
	w io.Writer

	notice *color.Color
	fail   *color.Color
}

// NewPrinter creates a printer for w. In ColorAuto mode color is used only
// when w is a terminal.
func NewPrinter(w io.Writer, mode string) *Printer {
	p := &Printer{
		w:      w,
		notice: color.New(color.FgCyan),
		fail:   color.New(color.FgRed, color.Bold),
	}

	if shouldColor(w, mode) {
		p.notice.EnableColor()
		p.fail.EnableColor()
	} else {
		p.notice.DisableColor()
		p.fail.DisableColor()
	}
	return p
}

func shouldColor(w io.Writer, mode string) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}

	fd, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return term.IsTerminal(int(fd.Fd()))
}

// Printf writes an uncolored message.
func (p *Printer) Printf(format string, a ...interface{}) {
	fmt.Fprintf(p.w, format, a...)
}

// Noticef writes an informational message such as a job notification.
func (p *Printer) Noticef(format string, a ...interface{}) {
	fmt.Fprint(p.w, p.notice.Sprintf(format, a...))
}

// Errorf writes an error message.
func (p *Printer) Errorf(format string, a ...interface{}) {
	fmt.Fprint(p.w, p.fail.Sprintf(format, a...))
}
