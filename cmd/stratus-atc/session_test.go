package main

import (
	"context"
	"testing"
	"time"

	"stratus-atc/internal/atc"
	"stratus-atc/internal/journal"
	"stratus-atc/internal/warmup"
)

type captureHeartbeats struct {
	rows chan journal.HeartbeatRow
}

func (c *captureHeartbeats) WriteHeartbeat(row journal.HeartbeatRow) error {
	select {
	case c.rows <- row:
	default:
	}
	return nil
}

func TestJournalHeartbeatsStopsOnClose(t *testing.T) {
	s := &session{
		engine: atc.NewEngine("N123AB", "C172", nil, nil, testLogger()),
		warm: warmup.New(warmup.Config{
			Model:    "test-model",
			Interval: time.Hour,
			URL:      "http://127.0.0.1:0",
		}, testLogger()),
		stop: make(chan struct{}),
	}

	hw := &captureHeartbeats{rows: make(chan journal.HeartbeatRow, 4)}
	returned := make(chan struct{})
	go func() {
		s.journalHeartbeats(hw)
		close(returned)
	}()

	// The ping fails (nothing listens) but still counts and publishes.
	s.warm.ForcePing(context.Background())
	select {
	case row := <-hw.rows:
		if row.Count != 1 || row.SessionID != s.engine.SessionID() {
			t.Errorf("unexpected heartbeat row: %+v", row)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("heartbeat row never journaled")
	}

	s.close()
	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("journalHeartbeats did not return after session close")
	}
}
