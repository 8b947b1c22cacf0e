package journal

import (
	"encoding/json"
	"io"
	"os"
	"time"
)

// ReplayLog replays transmission rows from r to writer. A speed >1
// accelerates playback; if speed <= 0, no artificial delay is inserted.
func ReplayLog(r io.Reader, writer TransmissionWriter, speed float64) error {
	dec := json.NewDecoder(r)
	var prev time.Time
	for {
		var row TransmissionRow
		if err := dec.Decode(&row); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if !prev.IsZero() && speed > 0 {
			diff := row.Timestamp.Sub(prev)
			if speed != 1 {
				diff = time.Duration(float64(diff) / speed)
			}
			if diff > 0 {
				time.Sleep(diff)
			}
		}
		if err := writer.WriteTransmission(row); err != nil {
			return err
		}
		prev = row.Timestamp
	}
}

// ReplayLogFile opens a transcript file and replays its rows.
func ReplayLogFile(path string, writer TransmissionWriter, speed float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ReplayLog(f, writer, speed)
}
