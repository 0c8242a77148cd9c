package shell

import (
	"fmt"
	"sort"

	"github.com/pborman/getopt/v2"
)

// AllBuiltins holds a list of all registered shell builtins.
var AllBuiltins = make(map[string]ShellBuiltin)

type ShellBuiltin interface {
	Main(s *Shell, args []string) int
}

type ShellBuiltinFunc func(s *Shell, args []string) int

func (f ShellBuiltinFunc) Main(s *Shell, args []string) int {
	return f(s, args)
}

var _ ShellBuiltin = (ShellBuiltinFunc)(nil)

// BuiltinNames returns the sorted names of all builtins.
func BuiltinNames() []string {
	var names []string
	for name := range AllBuiltins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// parseBuiltinFlags parses the flags common to all builtins. If ok is false
// the builtin should return ret without doing anything else.
func parseBuiltinFlags(s *Shell, args []string, usage, short string) (operands []string, ret int, ok bool) {
	opts := getopt.New()
	helpOpt := opts.BoolLong("help", 'h', "show help and exit")

	err := opts.Getopt(args, nil)
	if err != nil || *helpOpt {
		w := s.Out
		ret = 0
		if err != nil {
			s.Printer.Errorf("%s: %v\n", args[0], err)
			ret = 1
		}
		fmt.Fprintf(w, "usage: %s\n", usage)
		fmt.Fprintln(w, short)
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Options:")
		opts.PrintOptions(w)
		return nil, ret, false
	}

	return opts.Args(), 0, true
}

// Cd is the cd shell builtin.
func Cd(s *Shell, args []string) int {
	operands, ret, ok := parseBuiltinFlags(s, args, "cd [dir]", "Change the shell working directory, $HOME by default.")
	if !ok {
		return ret
	}

	switch len(operands) {
	case 0:
		operands = append(operands, s.Getenv(EnvHome))
		fallthrough
	case 1:
		if err := s.Chdir(operands[0]); err != nil {
			s.Printer.Errorf("%s: %v\n", args[0], err)
			return 1
		}
	default:
		s.Printer.Errorf("%s: too many arguments\n", args[0])
		return 1
	}
	return 0
}

// StatusCmd is the status shell builtin, it prints the status of the last
// foreground command.
func StatusCmd(s *Shell, args []string) int {
	_, ret, ok := parseBuiltinFlags(s, args, "status", "Show the exit value or terminating signal of the last foreground command.")
	if !ok {
		return ret
	}

	s.Printer.Printf("%s\n", s.LastStatus())
	return 0
}

// Exit quits the shell, background jobs are terminated by the dispatch loop.
// Arguments are ignored.
func Exit(s *Shell, args []string) int {
	s.Quit = true
	return 0
}

func init() {
	AllBuiltins["cd"] = ShellBuiltinFunc(Cd)
	AllBuiltins["status"] = ShellBuiltinFunc(StatusCmd)
	AllBuiltins["exit"] = ShellBuiltinFunc(Exit)
}
