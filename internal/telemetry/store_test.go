package telemetry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeSnapshot(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, TelemetryFile), []byte(content), 0o644); err != nil {
		t.Fatalf("write telemetry file: %v", err)
	}
}

const sampleJSON = `{
  "timestamp": 1700000000,
  "simulator": "X-Plane 12",
  "aircraft": "C172",
  "position": {"latitude": 47.45, "longitude": -122.31, "altitude_msl_m": 457.2, "altitude_agl_m": 300.0},
  "orientation": {"heading_mag": 180.0, "heading_true": 182.5, "pitch": 2.0, "roll": -1.0},
  "speed": {"ground_speed_mps": 51.4, "ias_kts": 95.0, "tas_mps": 52.0, "vertical_speed_fpm": -500.0},
  "radios": {"com1_hz": 118300000, "com1_standby_hz": 121500000, "com2_hz": 124700000, "com2_standby_hz": 0, "nav1_hz": 110300000, "nav2_hz": 0},
  "transponder": {"code": 1200, "mode": 3},
  "state": {"on_ground": false, "paused": false}
}`

func TestReadSnapshot(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStoreAt(dir)
	if err != nil {
		t.Fatalf("NewStoreAt: %v", err)
	}
	defer store.Close()

	writeSnapshot(t, dir, sampleJSON)

	snap, err := store.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if snap.Aircraft != "C172" {
		t.Errorf("expected aircraft C172, got %q", snap.Aircraft)
	}
	if snap.Position.AltMSLM != 457.2 {
		t.Errorf("expected altitude 457.2, got %f", snap.Position.AltMSLM)
	}
	if snap.Transponder.Code != 1200 {
		t.Errorf("expected squawk 1200, got %d", snap.Transponder.Code)
	}
	if snap.State.OnGround {
		t.Errorf("expected airborne state")
	}
}

func TestReadMissingFile(t *testing.T) {
	store, err := NewStoreAt(t.TempDir())
	if err != nil {
		t.Fatalf("NewStoreAt: %v", err)
	}
	defer store.Close()

	if _, err := store.Read(); !errors.Is(err, ErrRead) {
		t.Errorf("expected ErrRead, got %v", err)
	}
}

func TestReadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStoreAt(dir)
	if err != nil {
		t.Fatalf("NewStoreAt: %v", err)
	}
	defer store.Close()

	writeSnapshot(t, dir, "{not json")

	if _, err := store.Read(); !errors.Is(err, ErrParse) {
		t.Errorf("expected ErrParse, got %v", err)
	}
}

func TestPollWithoutChange(t *testing.T) {
	store, err := NewStoreAt(t.TempDir())
	if err != nil {
		t.Fatalf("NewStoreAt: %v", err)
	}
	defer store.Close()

	snap, err := store.Poll()
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if snap != nil {
		t.Errorf("expected no snapshot without a change, got %+v", snap)
	}
}

func TestPollAfterChange(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStoreAt(dir)
	if err != nil {
		t.Fatalf("NewStoreAt: %v", err)
	}
	defer store.Close()

	// Several rapid writes must cost a single read on the next poll.
	for i := 0; i < 5; i++ {
		writeSnapshot(t, dir, sampleJSON)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		snap, err := store.Poll()
		if err != nil {
			t.Fatalf("Poll: %v", err)
		}
		if snap != nil {
			if snap.Aircraft != "C172" {
				t.Errorf("expected aircraft C172, got %q", snap.Aircraft)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no change notification observed before deadline")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStorePathStable(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStoreAt(dir)
	if err != nil {
		t.Fatalf("NewStoreAt: %v", err)
	}
	defer store.Close()

	want := filepath.Join(dir, TelemetryFile)
	if store.Path() != want {
		t.Errorf("expected path %q, got %q", want, store.Path())
	}
	if store.Dir() != dir {
		t.Errorf("expected dir %q, got %q", dir, store.Dir())
	}
}
