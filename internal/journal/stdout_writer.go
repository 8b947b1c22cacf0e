// Writer implementation printing journal rows to STDOUT
package journal

import (
	"encoding/json"
	"fmt"
)

// StdoutWriter prints journal rows to STDOUT as JSON lines.
type StdoutWriter struct{}

// WriteTransmission outputs a single transmission row.
func (w *StdoutWriter) WriteTransmission(row TransmissionRow) error {
	data, _ := json.Marshal(row)
	fmt.Println(string(data))
	return nil
}

// WriteHeartbeat outputs a single heartbeat row.
func (w *StdoutWriter) WriteHeartbeat(row HeartbeatRow) error {
	data, _ := json.Marshal(row)
	fmt.Println(string(data))
	return nil
}
