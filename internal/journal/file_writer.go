package journal

import (
	"encoding/json"
	"os"
)

// FileWriter appends transmission and heartbeat rows to JSONL files.
type FileWriter struct {
	txFile *os.File
	hbFile *os.File
	txEnc  *json.Encoder
	hbEnc  *json.Encoder
}

// NewFileWriter creates a FileWriter. heartbeatPath may be empty to skip
// the heartbeat log.
func NewFileWriter(transcriptPath, heartbeatPath string) (*FileWriter, error) {
	tf, err := os.Create(transcriptPath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{txFile: tf, txEnc: json.NewEncoder(tf)}
	if heartbeatPath != "" {
		hf, err := os.Create(heartbeatPath)
		if err != nil {
			tf.Close()
			return nil, err
		}
		fw.hbFile = hf
		fw.hbEnc = json.NewEncoder(hf)
	}
	return fw, nil
}

// WriteTransmission logs a single transmission row.
func (f *FileWriter) WriteTransmission(row TransmissionRow) error {
	return f.txEnc.Encode(row)
}

// WriteHeartbeat logs a single heartbeat row, if enabled.
func (f *FileWriter) WriteHeartbeat(row HeartbeatRow) error {
	if f.hbEnc == nil {
		return nil
	}
	return f.hbEnc.Encode(row)
}

// Close closes the underlying files.
func (f *FileWriter) Close() error {
	var err error
	if f.txFile != nil {
		if e := f.txFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	if f.hbFile != nil {
		if e := f.hbFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
