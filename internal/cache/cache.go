// Persistent response cache.
//
// Common pilot/ATC exchanges repeat constantly within one flight phase;
// caching them answers in well under the model's generation latency.
// Entries are keyed by flight phase plus a normalized form of the pilot
// transmission and invalidated when the phase changes.
package cache

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	_ "modernc.org/sqlite"
)

// Stats summarizes cache performance for the status surfaces.
type Stats struct {
	Hits          uint64  `json:"hits"`
	Misses        uint64  `json:"misses"`
	Invalidations uint64  `json:"invalidations"`
	HitRate       float64 `json:"hit_rate"`
}

// Cache stores generated ATC responses in a local SQLite database.
type Cache struct {
	db  *sql.DB
	log *slog.Logger

	mu            sync.Mutex
	hits          uint64
	misses        uint64
	invalidations uint64
}

// Open opens (or creates) the cache database at path.
func Open(path string, log *slog.Logger) (*Cache, error) {
	if log == nil {
		log = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		log.Warn("failed to set WAL mode", "err", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		log.Warn("failed to set synchronous mode", "err", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS responses (
			phase TEXT NOT NULL,
			intent_key TEXT NOT NULL,
			response TEXT NOT NULL,
			hit_count INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (phase, intent_key)
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create responses table: %w", err)
	}
	return &Cache{db: db, log: log}, nil
}

// Get looks up a cached response for the phase and pilot transmission.
func (c *Cache) Get(phase, pilotText string) (string, bool) {
	key := intentKey(pilotText)
	if key == "" {
		return "", false
	}

	var response string
	err := c.db.QueryRow(
		"SELECT response FROM responses WHERE phase = ? AND intent_key = ?",
		phase, key,
	).Scan(&response)
	if err != nil {
		if err != sql.ErrNoRows {
			c.log.Warn("cache lookup failed", "err", err)
		}
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		return "", false
	}

	if _, err := c.db.Exec(
		"UPDATE responses SET hit_count = hit_count + 1 WHERE phase = ? AND intent_key = ?",
		phase, key,
	); err != nil {
		c.log.Warn("cache hit count update failed", "err", err)
	}
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	return response, true
}

// Put stores a generated response, replacing any previous entry for the
// same phase and intent.
func (c *Cache) Put(phase, pilotText, response string) error {
	key := intentKey(pilotText)
	if key == "" || response == "" {
		return nil
	}
	_, err := c.db.Exec(
		"INSERT OR REPLACE INTO responses (phase, intent_key, response, hit_count, created_at) VALUES (?, ?, ?, 0, ?)",
		phase, key, response, time.Now().Unix(),
	)
	return err
}

// Invalidate drops all entries for one flight phase.
func (c *Cache) Invalidate(phase string) error {
	res, err := c.db.Exec("DELETE FROM responses WHERE phase = ?", phase)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		c.mu.Lock()
		c.invalidations += uint64(n)
		c.mu.Unlock()
		c.log.Debug("cache invalidated", "phase", phase, "entries", n)
	}
	return nil
}

// Stats returns hit/miss counters for this process lifetime.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := Stats{Hits: c.hits, Misses: c.misses, Invalidations: c.invalidations}
	if total := c.hits + c.misses; total > 0 {
		st.HitRate = float64(c.hits) / float64(total)
	}
	return st
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// intentKey normalizes a pilot transmission so trivially different
// wordings of the same request share a cache entry: lowercase, no
// punctuation, collapsed whitespace.
func intentKey(text string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}
