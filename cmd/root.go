package cmd

import (
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/josephlewis42/smallsh/core/config"
	"github.com/josephlewis42/smallsh/core/logger"
	"github.com/josephlewis42/smallsh/core/shell"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var cfgPath string

func loadConfig() (*config.Configuration, error) {
	if cfgPath == "" {
		return config.Default(), nil
	}

	configuration, err := config.Load(afero.NewOsFs(), cfgPath)
	if errors.Is(err, fs.ErrNotExist) {
		log.Println("Couldn't load config: did you run init?")
	}

	return configuration, err
}

func colorMode(configured string) string {
	if configured != shell.ColorAuto {
		return configured
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return shell.ColorAlways
	}
	return shell.ColorNever
}

// rootCmd runs the interactive shell.
var rootCmd = &cobra.Command{
	Use:   "smallsh",
	Short: "A small interactive shell",
	Long: `An interactive shell that runs one program per line with optional
input (<) and output (>) redirection and background jobs (&).

Send SIGTSTP (Ctrl-Z) to toggle foreground-only mode, in which & is ignored.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		diag := log.New(cmd.ErrOrStderr(), "[smallsh] ", 0)

		configuration, err := loadConfig()
		if err != nil {
			return err
		}

		mode := shell.NewMode(os.Stdout)
		rl, err := shell.NewReadline(configuration.Prompt, configuration.HistoryLimit, mode)
		if err != nil {
			return err
		}
		defer rl.Close()

		var events *logger.EventLog
		if configuration.EventLogPath() != "" {
			fd, err := configuration.OpenEventLog()
			if err != nil {
				return err
			}
			defer fd.Close()
			events = logger.NewEventLog(fd)
		}

		sh := shell.New(rl, rl, shell.Options{
			Prompt:  configuration.Prompt,
			MaxJobs: configuration.MaxJobs,
			Color:   colorMode(configuration.Color),
			Mode:    mode,
			Events:  events,
			Log:     diag,
		})

		stopMode := sh.Mode.Watch()
		defer stopMode()
		stopInterrupts := shell.IgnoreInterrupts()
		defer stopInterrupts()

		sh.Run()
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config path, built-in defaults if empty")
}
