// Model warmup heartbeat.
//
// Keeps the Ollama model resident by sending periodic minimal-cost
// generation requests, avoiding the 5-15s cold-start reload penalty on
// the first real request after idle time. The heartbeat is paused while
// a real generation is in flight so two requests never contend for the
// same loaded model.
package warmup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"stratus-atc/internal/ollama"
)

// Config is immutable for the lifetime of one heartbeat run.
type Config struct {
	Model    string
	Interval time.Duration
	URL      string
}

// DefaultConfig returns the standard local setup.
func DefaultConfig() Config {
	return Config{
		Model:    ollama.DefaultModel,
		Interval: 30 * time.Second,
		URL:      ollama.DefaultURL,
	}
}

// Stats is the broadcast state cell. Every publication fully replaces
// the previous value; late subscribers see the last published value.
type Stats struct {
	Count         uint64 `json:"count"`
	LastLatencyMs int64  `json:"last_latency_ms"`
	Running       bool   `json:"running"`
	Paused        bool   `json:"paused"`
}

// Pinger issues one minimal-cost generation request and reports its
// round-trip latency. Errors are informational; the latency is always
// valid.
type Pinger interface {
	Ping(ctx context.Context) (int64, error)
}

type serviceState int

const (
	stateStopped serviceState = iota
	stateRunning
)

// Service runs the heartbeat loop and broadcasts stats.
type Service struct {
	cfg    Config
	pinger Pinger
	log    *slog.Logger

	mu     sync.Mutex
	state  serviceState
	paused bool
	last   Stats
	stop   chan struct{}
	done   chan struct{}
	subs   map[chan Stats]struct{}
}

// New creates a stopped service. A nil logger falls back to slog.Default().
func New(cfg Config, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	return &Service{
		cfg:    cfg,
		pinger: newHTTPPinger(cfg),
		log:    log,
		subs:   make(map[chan Stats]struct{}),
	}
}

// Start spawns the heartbeat loop. Calling Start on a running service is
// a warned no-op, not an error.
func (s *Service) Start() {
	s.mu.Lock()
	if s.state == stateRunning {
		s.mu.Unlock()
		s.log.Warn("warmup service already running")
		return
	}
	s.state = stateRunning
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stop, s.done
	s.publishLocked(nil)
	s.mu.Unlock()

	s.log.Info("warmup service started", "model", s.cfg.Model, "interval", s.cfg.Interval)
	go s.run(stop, done)
}

func (s *Service) run(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			s.log.Info("warmup service stopped")
			return
		case <-ticker.C:
			if s.IsPaused() {
				s.log.Debug("warmup paused, skipping heartbeat")
				continue
			}
			s.ping(context.Background())
		}
	}
}

// ping performs one heartbeat and publishes fresh stats. Failures are
// recorded and logged; they never stop the loop.
func (s *Service) ping(ctx context.Context) int64 {
	latency, err := s.pinger.Ping(ctx)
	if err != nil {
		s.log.Warn("warmup ping failed", "latency_ms", latency, "err", err)
	} else {
		s.log.Debug("warmup ping", "latency_ms", latency)
	}

	s.mu.Lock()
	s.publishLocked(func(st *Stats) {
		st.Count++
		st.LastLatencyMs = latency
	})
	s.mu.Unlock()
	return latency
}

// Stop signals the loop to exit after its current cycle and waits for it.
// An in-flight ping is never interrupted.
func (s *Service) Stop() {
	s.mu.Lock()
	if s.state != stateRunning {
		s.mu.Unlock()
		return
	}
	s.state = stateStopped
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done

	s.mu.Lock()
	s.publishLocked(nil)
	s.mu.Unlock()
}

// Pause skips heartbeats from the next cycle boundary on.
func (s *Service) Pause() {
	s.mu.Lock()
	s.paused = true
	s.publishLocked(nil)
	s.mu.Unlock()
	s.log.Debug("warmup service paused")
}

// Resume re-enables heartbeats at the next cycle boundary.
func (s *Service) Resume() {
	s.mu.Lock()
	s.paused = false
	s.publishLocked(nil)
	s.mu.Unlock()
	s.log.Debug("warmup service resumed")
}

// ForcePing bypasses the interval and performs one ping immediately,
// returning its latency. Works while the periodic loop is paused.
func (s *Service) ForcePing(ctx context.Context) int64 {
	latency := s.ping(ctx)
	s.log.Info("forced warmup complete", "latency_ms", latency)
	return latency
}

// IsRunning reports whether the loop is active.
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateRunning
}

// IsPaused reports whether heartbeats are currently skipped.
func (s *Service) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Stats returns the most recently published value.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Subscribe returns a channel that immediately yields the last published
// stats and then live updates. Slow subscribers never block the writer;
// a stale unread value is replaced by the newest one.
func (s *Service) Subscribe() chan Stats {
	ch := make(chan Stats, 1)
	s.mu.Lock()
	ch <- s.last
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

// Unsubscribe detaches a channel obtained from Subscribe.
func (s *Service) Unsubscribe(ch chan Stats) {
	s.mu.Lock()
	delete(s.subs, ch)
	s.mu.Unlock()
}

// publishLocked mutates the state cell and fans it out. Callers hold mu.
func (s *Service) publishLocked(mutate func(*Stats)) {
	if mutate != nil {
		mutate(&s.last)
	}
	s.last.Running = s.state == stateRunning
	s.last.Paused = s.paused
	for ch := range s.subs {
		select {
		case ch <- s.last:
		default:
			// Drop the stale value, keep the newest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s.last:
			default:
			}
		}
	}
}

// httpPinger sends the smallest practical generation request: a fixed
// prompt, five tokens, zero temperature.
type httpPinger struct {
	httpc *http.Client
	cfg   Config
}

func newHTTPPinger(cfg Config) *httpPinger {
	return &httpPinger{
		httpc: &http.Client{Timeout: 15 * time.Second},
		cfg:   cfg,
	}
}

type pingRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options ollama.Options `json:"options"`
}

func (p *httpPinger) Ping(ctx context.Context) (int64, error) {
	start := time.Now()

	body, err := json.Marshal(pingRequest{
		Model:   p.cfg.Model,
		Prompt:  "Ready",
		Options: ollama.Options{Temperature: 0, NumPredict: 5},
	})
	if err != nil {
		return time.Since(start).Milliseconds(), err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return time.Since(start).Milliseconds(), err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpc.Do(req)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return latency, err
	}
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		return latency, fmt.Errorf("warmup ping status %d", resp.StatusCode)
	}
	return latency, nil
}
