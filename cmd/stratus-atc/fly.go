package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"stratus-atc/internal/admin"
	"stratus-atc/internal/comlink"
	"stratus-atc/internal/logging"
	"stratus-atc/internal/ollama"
)

var flyPollInterval time.Duration

var flyCmd = &cobra.Command{
	Use:   "fly",
	Short: "Run the interactive pilot console",
	Long:  "fly starts the radio console, the warmup heartbeat, and the admin surface for one flight session.",
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

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if cfg.Warmup.Enabled {
			s.warm.Start()
			defer s.warm.Stop()
		}

		var console *comlink.ComLink
		console = comlink.New(cfg.Callsign, func(text string) {
			snap, err := s.store.Read()
			if err != nil {
				console.Status(fmt.Sprintf("no telemetry: %v", err))
				return
			}
			_, err = s.engine.ProcessStream(ctx, text, snap, func(c ollama.StreamChunk) {
				console.AppendChunk(c)
			})
			if err != nil {
				console.Status(fmt.Sprintf("tower offline: %v", err))
			}
		})
		defer console.Close()

		if !s.client.Available(ctx) {
			console.Status("ollama unreachable, transmissions will fail until it is up")
		}
		if snap, err := s.store.Read(); err == nil {
			console.SetTelemetry(snap)
		}

		// Footer feeds: warmup stats and telemetry changes.
		go func() {
			sub := s.warm.Subscribe()
			defer s.warm.Unsubscribe(sub)
			for {
				select {
				case <-ctx.Done():
					return
				case st := <-sub:
					console.SetStats(st)
				}
			}
		}()
		go func() {
			ticker := time.NewTicker(flyPollInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					snap, err := s.store.Poll()
					if err != nil {
						log.Debug("telemetry poll failed", "err", err)
						continue
					}
					if snap != nil {
						console.SetTelemetry(*snap)
					}
				}
			}
		}()

		if cfg.AdminAddr != "" {
			srv := admin.NewServer(s.engine, s.warm, s.store, log)
			if s.cache != nil {
				srv.SetCache(s.cache)
			}
			go func() {
				if err := srv.Start(ctx, cfg.AdminAddr); err != nil && err != http.ErrServerClosed {
					log.Error("admin server failed", "err", err)
				}
			}()
		}

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs

		cancel()
		return nil
	},
}

func init() {
	flyCmd.Flags().DurationVar(&flyPollInterval, "poll", time.Second, "Telemetry poll interval (e.g. 500ms, 2s)")
}
