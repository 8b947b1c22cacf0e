package journal

// MultiWriter fans out journal rows to multiple writers.
type MultiWriter struct {
	txWriters []TransmissionWriter
	hbWriters []HeartbeatWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(tws []TransmissionWriter, hws []HeartbeatWriter) *MultiWriter {
	return &MultiWriter{txWriters: tws, hbWriters: hws}
}

// WriteTransmission sends a transmission row to all writers.
func (mw *MultiWriter) WriteTransmission(row TransmissionRow) error {
	for _, w := range mw.txWriters {
		if err := w.WriteTransmission(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteHeartbeat sends a heartbeat row to all heartbeat writers.
func (mw *MultiWriter) WriteHeartbeat(row HeartbeatRow) error {
	for _, w := range mw.hbWriters {
		if err := w.WriteHeartbeat(row); err != nil {
			return err
		}
	}
	return nil
}
