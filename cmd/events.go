package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/josephlewis42/smallsh/core/logger"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

var eventLogPath string

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Explore the shell event log.",
}

var reportCommand = &cobra.Command{
	Use:   "report",
	Short: "Show a report of events.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		var fd io.ReadCloser
		if eventLogPath != "" {
			f, err := os.Open(eventLogPath)
			if err != nil {
				return err
			}
			fd = f
		} else {
			config, err := loadConfig()
			if err != nil {
				return err
			}
			if config.EventLogPath() == "" {
				return errors.New("event logging is disabled, set event_log in the config or pass --log")
			}
			f, err := config.ReadEventLog()
			if err != nil {
				return err
			}
			fd = f
		}
		defer fd.Close()

		var report logger.Report
		if err := logger.ReadJSONLinesLog(fd, report.Update); err != nil {
			return err
		}

		out, err := yaml.Marshal(report)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(out))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(reportCommand)
	reportCommand.Flags().StringVar(&eventLogPath, "log", "", "event log to read, the configured one if empty")
}
