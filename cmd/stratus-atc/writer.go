package main

import (
	"log/slog"
	"os"

	"stratus-atc/internal/config"
	"stratus-atc/internal/journal"
)

// newJournalWriters assembles the configured journal sinks. The env var
// GREPTIMEDB_ENDPOINT overrides the config value. With no sink
// configured, allowStdout selects the stdout writer; otherwise both
// returned writers are nil.
func newJournalWriters(cfg *config.Config, allowStdout bool, log *slog.Logger) (journal.TransmissionWriter, journal.HeartbeatWriter, func(), error) {
	cleanup := func() {}

	var tws []journal.TransmissionWriter
	var hws []journal.HeartbeatWriter

	if cfg.Journal.TranscriptPath != "" {
		fw, err := journal.NewFileWriter(cfg.Journal.TranscriptPath, cfg.Journal.HeartbeatPath)
		if err != nil {
			return nil, nil, nil, err
		}
		cleanup = func() { fw.Close() }
		tws = append(tws, fw)
		hws = append(hws, fw)
	}

	endpoint := cfg.Journal.GreptimeEndpoint
	if env := os.Getenv("GREPTIMEDB_ENDPOINT"); env != "" {
		endpoint = env
	}
	if endpoint != "" {
		database := cfg.Journal.GreptimeDatabase
		if database == "" {
			database = "public"
		}
		gw, err := journal.NewGreptimeWriter(endpoint, database, log)
		if err != nil {
			cleanup()
			return nil, nil, nil, err
		}
		tws = append(tws, gw)
		hws = append(hws, gw)
	}

	if len(tws) == 0 {
		if !allowStdout {
			return nil, nil, cleanup, nil
		}
		sw := &journal.StdoutWriter{}
		return sw, sw, cleanup, nil
	}
	if len(tws) == 1 {
		return tws[0], hws[0], cleanup, nil
	}
	mw := journal.NewMultiWriter(tws, hws)
	return mw, mw, cleanup, nil
}
