package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"stratus-atc/internal/config"
	"stratus-atc/internal/journal"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewJournalWritersStdoutFallback(t *testing.T) {
	t.Setenv("GREPTIMEDB_ENDPOINT", "")
	tw, hw, cleanup, err := newJournalWriters(&config.Config{}, true, testLogger())
	if err != nil {
		t.Fatalf("newJournalWriters returned error: %v", err)
	}
	cleanup()
	if _, ok := tw.(*journal.StdoutWriter); !ok {
		t.Fatalf("expected *journal.StdoutWriter, got %T", tw)
	}
	if _, ok := hw.(*journal.StdoutWriter); !ok {
		t.Fatalf("expected *journal.StdoutWriter, got %T", hw)
	}
}

func TestNewJournalWritersNoneConfigured(t *testing.T) {
	t.Setenv("GREPTIMEDB_ENDPOINT", "")
	tw, hw, cleanup, err := newJournalWriters(&config.Config{}, false, testLogger())
	if err != nil {
		t.Fatalf("newJournalWriters returned error: %v", err)
	}
	cleanup()
	if tw != nil || hw != nil {
		t.Fatalf("expected nil writers without sinks, got %T / %T", tw, hw)
	}
}

func TestNewJournalWritersTranscriptFile(t *testing.T) {
	t.Setenv("GREPTIMEDB_ENDPOINT", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "transcript.jsonl")
	cfg := &config.Config{}
	cfg.Journal.TranscriptPath = path

	tw, _, cleanup, err := newJournalWriters(cfg, true, testLogger())
	if err != nil {
		t.Fatalf("newJournalWriters returned error: %v", err)
	}
	defer cleanup()
	if _, ok := tw.(*journal.FileWriter); !ok {
		t.Fatalf("expected *journal.FileWriter, got %T", tw)
	}

	row := journal.TransmissionRow{SessionID: "s1", Speaker: journal.SpeakerPilot, Message: "radio check", Timestamp: time.Now()}
	if err := tw.WriteTransmission(row); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("expected transcript file to be non-empty")
	}
}

func TestNewJournalWritersEnvOverride(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Journal.TranscriptPath = filepath.Join(dir, "transcript.jsonl")
	t.Setenv("GREPTIMEDB_ENDPOINT", "localhost:4001")

	tw, _, cleanup, err := newJournalWriters(cfg, false, testLogger())
	if err != nil {
		t.Fatalf("newJournalWriters returned error: %v", err)
	}
	defer cleanup()
	if _, ok := tw.(*journal.MultiWriter); !ok {
		t.Fatalf("expected *journal.MultiWriter with file and greptime sinks, got %T", tw)
	}
}
