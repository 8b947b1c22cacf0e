// Session journal: structured records of every radio transmission and
// warmup heartbeat, fanned out to pluggable writers.
package journal

import "time"

// Speaker labels for TransmissionRow.
const (
	SpeakerPilot = "PILOT"
	SpeakerATC   = "ATC"
)

// TransmissionRow records one side of a radio exchange.
type TransmissionRow struct {
	SessionID      string    `json:"session_id"`
	TransmissionID string    `json:"transmission_id"`
	Speaker        string    `json:"speaker"`
	Message        string    `json:"message"`
	LatencyMs      int64     `json:"latency_ms"`
	AltitudeFt     int       `json:"altitude_ft"`
	Phase          string    `json:"phase"`
	Cached         bool      `json:"cached,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// HeartbeatRow records one warmup ping.
type HeartbeatRow struct {
	SessionID string    `json:"session_id"`
	Count     uint64    `json:"count"`
	LatencyMs int64     `json:"latency_ms"`
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
}

// TransmissionWriter is an interface to support different journal outputs.
type TransmissionWriter interface {
	WriteTransmission(TransmissionRow) error
}

// HeartbeatWriter handles warmup heartbeat records.
type HeartbeatWriter interface {
	WriteHeartbeat(HeartbeatRow) error
}
