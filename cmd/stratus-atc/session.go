package main

import (
	"log/slog"
	"time"

	"stratus-atc/internal/atc"
	"stratus-atc/internal/cache"
	"stratus-atc/internal/config"
	"stratus-atc/internal/journal"
	"stratus-atc/internal/ollama"
	"stratus-atc/internal/telemetry"
	"stratus-atc/internal/warmup"
)

// session bundles the engine with everything it was wired to.
type session struct {
	engine  *atc.Engine
	client  *ollama.Client
	store   *telemetry.Store
	warm    *warmup.Service
	cache   *cache.Cache
	journal journal.TransmissionWriter
	stop    chan struct{}
	cleanup []func()
}

// newSession builds the conversation engine and its services from
// config. The warmup loop is created but not started.
func newSession(cfg *config.Config, allowStdout bool, log *slog.Logger) (*session, error) {
	s := &session{stop: make(chan struct{})}

	var err error
	if cfg.DataDir != "" {
		s.store, err = telemetry.NewStoreAt(cfg.DataDir)
	} else {
		s.store, err = telemetry.NewStore()
	}
	if err != nil {
		return nil, err
	}
	s.cleanup = append(s.cleanup, func() { s.store.Close() })

	s.client = ollama.NewClient(cfg.OllamaURL, cfg.Model)
	s.client.SetOptions(ollama.Options{
		Temperature: cfg.Stream.Temperature,
		NumPredict:  cfg.Stream.MaxTokens,
	})
	stream := ollama.NewStreamClient(cfg.OllamaURL, cfg.Model, cfg.Stream.MinChunkChars, cfg.Stream.MaxChunkChars)
	stream.SetOptions(ollama.Options{
		Temperature: cfg.Stream.Temperature,
		NumPredict:  cfg.Stream.MaxTokens,
	})

	s.engine = atc.NewEngine(cfg.Callsign, cfg.AircraftType, s.client, stream, log)
	s.engine.SetHistoryLimit(cfg.HistoryLimit)

	tw, hw, jcleanup, err := newJournalWriters(cfg, allowStdout, log)
	if err != nil {
		s.close()
		return nil, err
	}
	s.cleanup = append(s.cleanup, jcleanup)
	if tw != nil {
		s.journal = tw
		s.engine.SetJournal(tw)
	}

	if cfg.CachePath != "" {
		s.cache, err = cache.Open(cfg.CachePath, log)
		if err != nil {
			s.close()
			return nil, err
		}
		s.cleanup = append(s.cleanup, func() { s.cache.Close() })
		s.engine.SetCache(s.cache)
	}

	s.warm = warmup.New(warmup.Config{
		Model:    cfg.Model,
		Interval: cfg.Warmup.IntervalDuration(),
		URL:      cfg.OllamaURL,
	}, log)
	s.engine.SetHeartbeat(s.warm)

	if hw != nil {
		go s.journalHeartbeats(hw)
	}
	return s, nil
}

// journalHeartbeats turns warmup stats updates into heartbeat rows. It
// returns when the session closes.
func (s *session) journalHeartbeats(hw journal.HeartbeatWriter) {
	sub := s.warm.Subscribe()
	defer s.warm.Unsubscribe(sub)

	var lastCount uint64
	for {
		select {
		case <-s.stop:
			return
		case st := <-sub:
			if st.Count == lastCount {
				continue
			}
			lastCount = st.Count
			hw.WriteHeartbeat(journal.HeartbeatRow{
				SessionID: s.engine.SessionID(),
				Count:     st.Count,
				LatencyMs: st.LastLatencyMs,
				Success:   true,
				Timestamp: time.Now().UTC(),
			})
		}
	}
}

func (s *session) close() {
	close(s.stop)
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		s.cleanup[i]()
	}
}
