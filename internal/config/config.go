// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// WarmupSettings controls the model keep-alive heartbeat.
type WarmupSettings struct {
	Enabled  bool   `yaml:"enabled"`
	Interval string `yaml:"interval"`
}

// IntervalDuration parses the configured heartbeat interval. An empty or
// unparsable value falls back to the default.
func (w WarmupSettings) IntervalDuration() time.Duration {
	d, err := time.ParseDuration(w.Interval)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// StreamSettings tunes phrase chunking and sampling.
type StreamSettings struct {
	MinChunkChars int     `yaml:"min_chunk_chars"`
	MaxChunkChars int     `yaml:"max_chunk_chars"`
	Temperature   float64 `yaml:"temperature"`
	MaxTokens     int     `yaml:"max_tokens"`
}

// JournalSettings selects where transcripts and heartbeat rows go.
// All fields are optional; empty means the sink is disabled.
type JournalSettings struct {
	TranscriptPath   string `yaml:"transcript_path"`
	HeartbeatPath    string `yaml:"heartbeat_path"`
	GreptimeEndpoint string `yaml:"greptime_endpoint"`
	GreptimeDatabase string `yaml:"greptime_database"`
}

// Config is the root configuration for one aircraft session.
type Config struct {
	Callsign     string `yaml:"callsign"`
	AircraftType string `yaml:"aircraft_type"`
	Model        string `yaml:"model"`
	OllamaURL    string `yaml:"ollama_url"`
	DataDir      string `yaml:"data_dir"`
	HistoryLimit int    `yaml:"history_limit"`
	AdminAddr    string `yaml:"admin_addr"`
	CachePath    string `yaml:"cache_path"`

	Warmup  WarmupSettings  `yaml:"warmup"`
	Stream  StreamSettings  `yaml:"stream"`
	Journal JournalSettings `yaml:"journal"`
}

// Load loads YAML config and validates it against a CUE schema.
func Load(configPath, cueSchemaPath string) (*Config, error) {
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if cfg.Callsign == "" {
		return nil, fmt.Errorf("config %s: callsign is required", configPath)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.AircraftType == "" {
		c.AircraftType = "C172"
	}
	if c.Model == "" {
		c.Model = "llama3.2:3b"
	}
	if c.OllamaURL == "" {
		c.OllamaURL = "http://localhost:11434"
	}
	if c.HistoryLimit < 2 {
		c.HistoryLimit = 20
	}
	if c.Stream.MinChunkChars <= 0 {
		c.Stream.MinChunkChars = 20
	}
	if c.Stream.MaxChunkChars <= 0 {
		c.Stream.MaxChunkChars = 100
	}
	if c.Stream.Temperature <= 0 {
		c.Stream.Temperature = 0.7
	}
	if c.Stream.MaxTokens <= 0 {
		c.Stream.MaxTokens = 256
	}
	if c.Warmup.Interval == "" {
		c.Warmup.Interval = "30s"
	}
}
