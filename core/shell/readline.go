package shell

import (
	"os"

	"github.com/abiosoft/readline"
	"golang.org/x/term"
)

// FilterInputRune consumes Ctrl-Z typed at the prompt and toggles the mode
// instead of letting the line editor suspend the shell.
func (m *Mode) FilterInputRune(r rune) (rune, bool) {
	if r == readline.CharCtrlZ {
		m.Toggle()
		return r, false
	}
	return r, true
}

// NewReadline creates a line editor on the process' terminal. History is
// kept in memory only. Ctrl-Z at the prompt toggles mode.
func NewReadline(prompt string, historyLimit int, mode *Mode) (*readline.Instance, error) {
	if historyLimit == 0 {
		historyLimit = -1
	}

	cfg := &readline.Config{
		Prompt:              prompt,
		HistoryLimit:        historyLimit,
		FuncFilterInputRune: mode.FilterInputRune,
		FuncIsTerminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
		},
	}

	if err := cfg.Init(); err != nil {
		return nil, err
	}

	return readline.NewEx(cfg)
}
