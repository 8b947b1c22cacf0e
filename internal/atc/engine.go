// ATC conversation engine: prompt construction, bounded history, and
// delegation to the generation clients.
package atc

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"stratus-atc/internal/journal"
	"stratus-atc/internal/ollama"
	"stratus-atc/internal/telemetry"
)

// Speaker identifies one side of the radio exchange.
type Speaker string

const (
	SpeakerPilot Speaker = "PILOT"
	SpeakerATC   Speaker = "ATC"
)

// Entry is one transmission in the conversation history.
type Entry struct {
	Speaker   Speaker   `json:"speaker"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// DefaultHistoryLimit keeps the last ten exchanges.
const DefaultHistoryLimit = 20

// Generator produces a single-shot model response.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// StreamGenerator produces a chunked model response, invoking the
// callback per chunk.
type StreamGenerator interface {
	GenerateWithCallback(ctx context.Context, prompt string, fn func(ollama.StreamChunk)) (string, error)
}

// ResponseCache is the optional persistent response store.
type ResponseCache interface {
	Get(phase, pilotText string) (string, bool)
	Put(phase, pilotText, response string) error
	Invalidate(phase string) error
}

// HeartbeatPauser pauses the warmup loop while a generation is in flight
// so the two never contend for the loaded model.
type HeartbeatPauser interface {
	Pause()
	Resume()
}

// Engine owns the conversation and turns pilot transmissions into ATC
// responses. At most one generation per engine is in flight at a time.
type Engine struct {
	callsign     string
	aircraftType string
	gen          Generator
	stream       StreamGenerator
	log          *slog.Logger
	sessionID    string

	cache     ResponseCache
	writer    journal.TransmissionWriter
	heartbeat HeartbeatPauser

	// genMu serializes whole exchanges so a second transmission sent
	// while a response streams cannot interleave its history entries
	// or resume the heartbeat under the first generation.
	genMu sync.Mutex

	mu           sync.Mutex
	history      []Entry
	historyLimit int
	lastPhase    string
}

// NewEngine creates an engine for one aircraft. A nil logger falls back
// to slog.Default().
func NewEngine(callsign, aircraftType string, gen Generator, stream StreamGenerator, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		callsign:     callsign,
		aircraftType: aircraftType,
		gen:          gen,
		stream:       stream,
		log:          log,
		sessionID:    uuid.New().String(),
		historyLimit: DefaultHistoryLimit,
	}
}

// SetCache attaches a persistent response cache.
func (e *Engine) SetCache(c ResponseCache) { e.cache = c }

// SetJournal attaches a transcript writer.
func (e *Engine) SetJournal(w journal.TransmissionWriter) { e.writer = w }

// SetHeartbeat attaches the warmup service to pause during generations.
func (e *Engine) SetHeartbeat(h HeartbeatPauser) { e.heartbeat = h }

// SetHistoryLimit overrides the history ceiling. Values < 2 keep the default.
func (e *Engine) SetHistoryLimit(n int) {
	if n >= 2 {
		e.historyLimit = n
	}
}

// SessionID identifies this conversation in journal rows.
func (e *Engine) SessionID() string { return e.sessionID }

// History returns a copy of the conversation history.
func (e *Engine) History() []Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Entry, len(e.history))
	copy(out, e.history)
	return out
}

// ClearHistory drops the conversation.
func (e *Engine) ClearHistory() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = nil
}

// Process handles one pilot transmission with a single-shot generation.
// The pilot's entry is in history before generation is attempted, so a
// failed generation followed by a retry never duplicates it.
func (e *Engine) Process(ctx context.Context, pilotText string, snap telemetry.Snapshot) (string, error) {
	return e.process(ctx, pilotText, snap, nil)
}

// ProcessStream handles one pilot transmission, forwarding chunks to fn
// (e.g. the playback layer) as phrase boundaries allow.
func (e *Engine) ProcessStream(ctx context.Context, pilotText string, snap telemetry.Snapshot, fn func(ollama.StreamChunk)) (string, error) {
	return e.process(ctx, pilotText, snap, fn)
}

func (e *Engine) process(ctx context.Context, pilotText string, snap telemetry.Snapshot, fn func(ollama.StreamChunk)) (string, error) {
	e.genMu.Lock()
	defer e.genMu.Unlock()

	phase := FlightPhase(snap)
	start := time.Now()

	prompt := e.beginExchange(pilotText, snap, phase)

	if e.heartbeat != nil {
		e.heartbeat.Pause()
		defer e.heartbeat.Resume()
	}

	if e.cache != nil {
		if cached, ok := e.cache.Get(phase, pilotText); ok {
			e.log.Debug("response cache hit", "phase", phase)
			if fn != nil {
				fn(ollama.StreamChunk{Text: cached, Final: true, LatencyMs: time.Since(start).Milliseconds()})
			}
			e.finishExchange(cached, snap, phase, time.Since(start), true)
			return cached, nil
		}
	}

	var response string
	var err error
	if fn != nil && e.stream != nil {
		response, err = e.stream.GenerateWithCallback(ctx, prompt, fn)
	} else {
		response, err = e.gen.Generate(ctx, prompt)
	}
	if err != nil {
		return "", err
	}
	response = strings.TrimSpace(response)

	if e.cache != nil {
		if err := e.cache.Put(phase, pilotText, response); err != nil {
			e.log.Warn("response cache store failed", "err", err)
		}
	}
	e.finishExchange(response, snap, phase, time.Since(start), false)
	return response, nil
}

// beginExchange appends the pilot entry and renders the prompt from the
// history preceding it.
func (e *Engine) beginExchange(pilotText string, snap telemetry.Snapshot, phase string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cache != nil && e.lastPhase != "" && e.lastPhase != phase {
		if err := e.cache.Invalidate(e.lastPhase); err != nil {
			e.log.Warn("cache invalidation failed", "phase", e.lastPhase, "err", err)
		}
	}
	e.lastPhase = phase

	prompt := buildPrompt(e.callsign, e.aircraftType, snap, e.history, pilotText)
	e.history = append(e.history, Entry{Speaker: SpeakerPilot, Message: pilotText, Timestamp: time.Now().UTC()})

	e.journalRow(SpeakerPilot, pilotText, snap, phase, 0, false)
	return prompt
}

// finishExchange appends the ATC entry and applies the trim policy.
func (e *Engine) finishExchange(response string, snap telemetry.Snapshot, phase string, elapsed time.Duration, cached bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.history = append(e.history, Entry{Speaker: SpeakerATC, Message: response, Timestamp: time.Now().UTC()})

	// Trim whole pilot/ATC pairs so alternation is preserved.
	for len(e.history) > e.historyLimit {
		e.history = e.history[2:]
	}

	e.journalRow(SpeakerATC, response, snap, phase, elapsed.Milliseconds(), cached)
}

func (e *Engine) journalRow(speaker Speaker, message string, snap telemetry.Snapshot, phase string, latencyMs int64, cached bool) {
	if e.writer == nil {
		return
	}
	row := journal.TransmissionRow{
		SessionID:      e.sessionID,
		TransmissionID: uuid.New().String(),
		Speaker:        string(speaker),
		Message:        message,
		LatencyMs:      latencyMs,
		AltitudeFt:     AltitudeFt(snap),
		Phase:          phase,
		Cached:         cached,
		Timestamp:      time.Now().UTC(),
	}
	if err := e.writer.WriteTransmission(row); err != nil {
		e.log.Warn("journal write failed", "err", err)
	}
}
