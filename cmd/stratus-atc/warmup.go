package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"stratus-atc/internal/logging"
)

var warmupOnce bool

var warmupCmd = &cobra.Command{
	Use:   "warmup",
	Short: "Run the model keep-alive heartbeat headless",
	Long:  "warmup keeps the Ollama model resident without the console. With --once it sends a single ping and exits.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := logging.New()

		s, err := newSession(cfg, true, log)
		if err != nil {
			return err
		}
		defer s.close()

		if warmupOnce {
			latency := s.warm.ForcePing(context.Background())
			fmt.Printf("warmup ping: %d ms\n", latency)
			return nil
		}

		s.warm.Start()
		defer s.warm.Stop()

		done := make(chan struct{})
		defer close(done)
		go func() {
			sub := s.warm.Subscribe()
			defer s.warm.Unsubscribe(sub)
			var lastCount uint64
			for {
				select {
				case <-done:
					return
				case st := <-sub:
					if st.Count == lastCount {
						continue
					}
					lastCount = st.Count
					fmt.Printf("heartbeat %d: %d ms\n", st.Count, st.LastLatencyMs)
				}
			}
		}()

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs
		return nil
	},
}

func init() {
	warmupCmd.Flags().BoolVar(&warmupOnce, "once", false, "Send a single ping and exit")
}
