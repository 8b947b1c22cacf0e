// Admin status server: a small HTTP surface for inspecting the session
// and poking the warmup loop.
package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"stratus-atc/internal/atc"
	"stratus-atc/internal/cache"
	"stratus-atc/internal/telemetry"
	"stratus-atc/internal/warmup"
)

//go:embed templates/index.html
var content embed.FS

// Conversation exposes the engine state the admin surface reads.
type Conversation interface {
	SessionID() string
	History() []atc.Entry
	ClearHistory()
}

// Heartbeat exposes the warmup controls.
type Heartbeat interface {
	Stats() warmup.Stats
	ForcePing(ctx context.Context) int64
	Pause()
	Resume()
}

// TelemetrySource reads the latest simulator snapshot.
type TelemetrySource interface {
	Read() (telemetry.Snapshot, error)
}

// CacheStats exposes response cache counters.
type CacheStats interface {
	Stats() cache.Stats
}

type Server struct {
	conv  Conversation
	warm  Heartbeat
	tele  TelemetrySource
	cache CacheStats
	log   *slog.Logger
	tpl   *template.Template
}

// NewServer wires the admin surface. tele and log may be nil; attach a
// cache with SetCache.
func NewServer(conv Conversation, warm Heartbeat, tele TelemetrySource, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	tpl := template.Must(template.New("index.html").ParseFS(content, "templates/index.html"))
	return &Server{conv: conv, warm: warm, tele: tele, log: log, tpl: tpl}
}

// SetCache attaches the response cache counters to /stats.
func (s *Server) SetCache(c CacheStats) { s.cache = c }

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/history", s.handleHistory)
	mux.HandleFunc("/history/clear", s.handleHistoryClear)
	mux.HandleFunc("/telemetry", s.handleTelemetry)
	mux.HandleFunc("/warmup/force", s.handleWarmupForce)
	mux.HandleFunc("/warmup/pause", s.handleWarmupPause)
	mux.HandleFunc("/warmup/resume", s.handleWarmupResume)
	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.routes()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("admin server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap, snapErr := s.readTelemetry()
	data := struct {
		SessionID string
		Warmup    warmup.Stats
		History   []atc.Entry
		Snapshot  telemetry.Snapshot
		HasSnap   bool
	}{
		SessionID: s.conv.SessionID(),
		Warmup:    s.warm.Stats(),
		History:   s.conv.History(),
		Snapshot:  snap,
		HasSnap:   snapErr == nil,
	}
	s.tpl.Execute(w, data)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]any{
		"session_id":     s.conv.SessionID(),
		"history_length": len(s.conv.History()),
		"warmup":         s.warm.Stats(),
	}
	if s.cache != nil {
		stats["cache"] = s.cache.Stats()
	}
	writeJSON(w, stats)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.conv.History())
}

func (s *Server) handleHistoryClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.conv.ClearHistory()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	snap, err := s.readTelemetry()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, snap)
}

func (s *Server) handleWarmupForce(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	latency := s.warm.ForcePing(r.Context())
	writeJSON(w, map[string]any{"latency_ms": latency})
}

func (s *Server) handleWarmupPause(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.warm.Pause()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWarmupResume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.warm.Resume()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) readTelemetry() (telemetry.Snapshot, error) {
	if s.tele == nil {
		return telemetry.Snapshot{}, errors.New("no telemetry source attached")
	}
	return s.tele.Read()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
