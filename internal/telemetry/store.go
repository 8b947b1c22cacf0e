// File-based telemetry exchange with the simulator bridge.
//
// The bridge writes stratus_telemetry.json into the StratusATC data
// directory; the store watches that directory and deserializes the
// latest snapshot on demand.
package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// TelemetryFile is the well-known snapshot file name inside the data directory.
const TelemetryFile = "stratus_telemetry.json"

var (
	// ErrRead reports that the telemetry file is missing or unreadable.
	ErrRead = errors.New("telemetry read failed")
	// ErrParse reports malformed telemetry content.
	ErrParse = errors.New("telemetry parse failed")
	// ErrWatch reports that the directory watch could not be established.
	ErrWatch = errors.New("telemetry watch failed")
)

// Store watches the telemetry data directory and reads snapshots on demand.
type Store struct {
	dataDir string
	watcher *fsnotify.Watcher
}

// NewStore creates a store over the platform data directory, creating it
// if needed. The directory watch is established here; a watch failure is
// fatal for the store.
func NewStore() (*Store, error) {
	dir, err := DataDir()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatch, err)
	}
	return NewStoreAt(dir)
}

// NewStoreAt creates a store over an explicit directory.
func NewStoreAt(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatch, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatch, err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("%w: %v", ErrWatch, err)
	}
	return &Store{dataDir: dir, watcher: w}, nil
}

// DataDir resolves the per-platform StratusATC data directory.
func DataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "StratusATC"), nil
}

// Dir returns the watched data directory. Stable for the store's lifetime.
func (s *Store) Dir() string {
	return s.dataDir
}

// Path returns the full path of the telemetry file.
func (s *Store) Path() string {
	return filepath.Join(s.dataDir, TelemetryFile)
}

// Read deserializes the current snapshot from disk.
func (s *Store) Read() (Snapshot, error) {
	var snap Snapshot
	data, err := os.ReadFile(s.Path())
	if err != nil {
		return snap, fmt.Errorf("%w: %v", ErrRead, err)
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return snap, nil
}

// Poll drains pending change notifications without blocking. If at least
// one fired since the previous poll it performs a single Read; otherwise
// it returns (nil, nil). Rapid-fire notifications cost one read at most.
func (s *Store) Poll() (*Snapshot, error) {
	changed := false
drain:
	for {
		select {
		case _, ok := <-s.watcher.Events:
			if !ok {
				break drain
			}
			changed = true
		case _, ok := <-s.watcher.Errors:
			if !ok {
				break drain
			}
			// Watch errors are transient; a re-read costs one file open.
			changed = true
		default:
			break drain
		}
	}
	if !changed {
		return nil, nil
	}
	snap, err := s.Read()
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Close releases the directory watch.
func (s *Store) Close() error {
	return s.watcher.Close()
}
