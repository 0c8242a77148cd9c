package shell

import (
	"errors"
	"fmt"
	"strings"
)

const (
	opRedirectIn  = "<"
	opRedirectOut = ">"
	opBackground  = "&"
)

// ErrMissingRedirectTarget is returned when a redirection operator isn't
// followed by a file name.
var ErrMissingRedirectTarget = errors.New("missing redirection target")

// Command is a fully resolved command line, ready to launch.
type Command struct {
	// Program is the name of the program to run, it's searched on PATH.
	Program string
	// Args holds the full argument vector, Args[0] is Program.
	Args []string
	// InputPath is the file to use as standard input, empty if unset.
	InputPath string
	// OutputPath is the file to use as standard output, empty if unset.
	OutputPath string
	// Background is set if the shell shouldn't wait for the command.
	Background bool
}

func (c *Command) String() string {
	var sb strings.Builder
	sb.WriteString(strings.Join(c.Args, " "))
	if c.InputPath != "" {
		fmt.Fprintf(&sb, " < %s", c.InputPath)
	}
	if c.OutputPath != "" {
		fmt.Fprintf(&sb, " > %s", c.OutputPath)
	}
	if c.Background {
		sb.WriteString(" &")
	}
	return sb.String()
}

func isOperator(tok string) bool {
	return tok == opRedirectIn || tok == opRedirectOut
}

// redirectTarget returns the file name following the operator at index i.
func redirectTarget(tokens []string, i int) (string, error) {
	if i+1 >= len(tokens) || isOperator(tokens[i+1]) {
		return "", fmt.Errorf("%w after %q", ErrMissingRedirectTarget, tokens[i])
	}
	return tokens[i+1], nil
}

// Resolve builds a Command from the program name and the tokens following
// it on the line.
//
// Redirections end the argument list: neither the operator, its target nor
// anything after them is passed to the program. A single "<" may be followed
// by a "> file" pair. A final "&" requests background execution unless
// foregroundOnly is set, in which case it's kept as a literal argument. An
// "&" anywhere else is always a literal argument.
func Resolve(program string, tokens []string, foregroundOnly bool) (*Command, error) {
	cmd := &Command{
		Program: program,
		Args:    []string{program},
	}

	if n := len(tokens); n > 0 && tokens[n-1] == opBackground && !foregroundOnly {
		cmd.Background = true
		tokens = tokens[:n-1]
	}

	for i := 0; i < len(tokens); i++ {
		switch tokens[i] {
		case opRedirectOut:
			target, err := redirectTarget(tokens, i)
			if err != nil {
				return nil, err
			}
			cmd.OutputPath = target
			return cmd, nil

		case opRedirectIn:
			target, err := redirectTarget(tokens, i)
			if err != nil {
				return nil, err
			}
			cmd.InputPath = target

			if i+2 < len(tokens) && tokens[i+2] == opRedirectOut {
				target, err := redirectTarget(tokens, i+2)
				if err != nil {
					return nil, err
				}
				cmd.OutputPath = target
			}
			return cmd, nil

		default:
			cmd.Args = append(cmd.Args, tokens[i])
		}
	}

	return cmd, nil
}
