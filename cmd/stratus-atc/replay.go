package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stratus-atc/internal/journal"
	"stratus-atc/internal/logging"
)

var (
	replayInput     string
	replaySpeed     float64
	replayPrintOnly bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a transcript log file",
	Long:  "replay feeds transcript rows from a JSONL log back into the configured sinks or STDOUT, preserving timing.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := logging.New()

		var writer journal.TransmissionWriter
		if replayPrintOnly {
			writer = &journal.StdoutWriter{}
		} else {
			tw, _, cleanup, err := newJournalWriters(cfg, true, log)
			if err != nil {
				return err
			}
			defer cleanup()
			writer = tw
		}
		return journal.ReplayLogFile(replayInput, writer, replaySpeed)
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to transcript log file")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Print rows to STDOUT instead of the configured sinks")
	replayCmd.MarkFlagRequired("input")
}
