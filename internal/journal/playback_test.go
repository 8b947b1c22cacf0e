package journal

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestReplayLogPreservesOrder(t *testing.T) {
	ts := time.Unix(1700000000, 0).UTC()
	rows := []TransmissionRow{
		{TransmissionID: "t1", Speaker: SpeakerPilot, Message: "ready to copy", Timestamp: ts},
		{TransmissionID: "t2", Speaker: SpeakerATC, Message: "cleared as filed", Timestamp: ts.Add(time.Second)},
		{TransmissionID: "t3", Speaker: SpeakerPilot, Message: "readback correct", Timestamp: ts.Add(2 * time.Second)},
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}

	w := &captureWriter{}
	if err := ReplayLog(&buf, w, 0); err != nil {
		t.Fatalf("ReplayLog: %v", err)
	}
	if len(w.tx) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(w.tx))
	}
	for i, r := range w.tx {
		if r.TransmissionID != rows[i].TransmissionID {
			t.Errorf("row %d out of order: %s", i, r.TransmissionID)
		}
	}
}

func TestReplayLogBadInput(t *testing.T) {
	w := &captureWriter{}
	if err := ReplayLog(bytes.NewBufferString("{broken"), w, 0); err == nil {
		t.Errorf("expected decode error")
	}
}
