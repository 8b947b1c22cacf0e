package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"stratus-atc/internal/logging"
	"stratus-atc/internal/ollama"
)

var sayCmd = &cobra.Command{
	Use:   "say [transmission]",
	Short: "Send one pilot transmission and print the response",
	Long:  "say reads the current telemetry snapshot, sends a single transmission, and prints response chunks as they arrive.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := logging.New()

		s, err := newSession(cfg, false, log)
		if err != nil {
			return err
		}
		defer s.close()

		ctx := context.Background()
		snap, err := s.store.Read()
		if err != nil {
			return fmt.Errorf("no telemetry snapshot, is the simulator bridge running? %w", err)
		}

		text := strings.Join(args, " ")
		_, err = s.engine.ProcessStream(ctx, text, snap, func(c ollama.StreamChunk) {
			if c.Final {
				fmt.Printf("%s\n[%d ms]\n", c.Text, c.LatencyMs)
				return
			}
			fmt.Printf("%s ", c.Text)
		})
		return err
	},
}
