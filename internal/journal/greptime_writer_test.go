package journal

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockGreptimeClient struct {
	table *table.Table
}

func (m *mockGreptimeClient) Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error) {
	if len(tables) > 0 {
		m.table = tables[0]
	}
	return &gpb.GreptimeResponse{}, nil
}

func TestGreptimeWriterTransmission(t *testing.T) {
	m := &mockGreptimeClient{}
	w := &GreptimeWriter{client: m, txTable: "atc_transmissions", hbTable: "warmup_heartbeats"}
	w.log = discardLogger()

	row := TransmissionRow{
		SessionID:      "s1",
		TransmissionID: "t1",
		Speaker:        SpeakerATC,
		Message:        "Cessna one two three, radar contact.",
		LatencyMs:      321,
		AltitudeFt:     4500,
		Phase:          "in flight",
		Timestamp:      time.Unix(0, 0).UTC(),
	}
	if err := w.WriteTransmission(row); err != nil {
		t.Fatalf("WriteTransmission: %v", err)
	}
	if m.table == nil {
		t.Fatalf("expected table to be captured")
	}

	values := m.table.GetRows().Rows[0].Values
	if got := values[0].GetStringValue(); got != "s1" {
		t.Errorf("session_id = %s, want s1", got)
	}
	if got := values[3].GetStringValue(); got != row.Message {
		t.Errorf("message = %s, want %s", got, row.Message)
	}
	if got := values[4].GetI64Value(); got != 321 {
		t.Errorf("latency_ms = %d, want 321", got)
	}
}

func TestGreptimeWriterHeartbeat(t *testing.T) {
	m := &mockGreptimeClient{}
	w := &GreptimeWriter{client: m, txTable: "atc_transmissions", hbTable: "warmup_heartbeats"}
	w.log = discardLogger()

	row := HeartbeatRow{SessionID: "s1", Count: 7, LatencyMs: 88, Success: true, Timestamp: time.Unix(0, 0).UTC()}
	if err := w.WriteHeartbeat(row); err != nil {
		t.Fatalf("WriteHeartbeat: %v", err)
	}
	if m.table == nil {
		t.Fatalf("expected table to be captured")
	}

	values := m.table.GetRows().Rows[0].Values
	if got := values[1].GetU64Value(); got != 7 {
		t.Errorf("count = %d, want 7", got)
	}
	if !values[3].GetBoolValue() {
		t.Errorf("success flag lost")
	}
}
