package sim

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"regard/internal/tracking"
)

func TestFileWriter(t *testing.T) {
	dir := t.TempDir()
	posPath := filepath.Join(dir, "positions.jsonl")
	interpPath := posPath + ".interpretations"
	ts := time.Unix(60, 0).UTC()

	fw, err := NewFileWriter(posPath, interpPath)
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	rows := []tracking.PositionRow{
		{EntityID: "a", EntityType: tracking.TypeDrone, Name: "A", Lat: 1, Lng: 2, Timestamp: ts},
		{EntityID: "b", EntityType: tracking.TypePerson, Name: "B", Lat: 3, Lng: 4, Timestamp: ts.Add(time.Second)},
	}
	if err := fw.WritePositions(rows); err != nil {
		t.Fatalf("WritePositions: %v", err)
	}
	ir := tracking.InterpretationRow{EntityID: "a", Outcome: tracking.OutcomeCompleted, Interpretation: "loop", Confidence: 0.4, Timestamp: ts}
	if err := fw.WriteInterpretation(ir); err != nil {
		t.Fatalf("WriteInterpretation: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(posPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	var got []tracking.PositionRow
	for sc.Scan() {
		var r tracking.PositionRow
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatalf("decode position: %v", err)
		}
		got = append(got, r)
	}
	if len(got) != 2 || got[1].EntityType != tracking.TypePerson || !got[0].Timestamp.Equal(ts) {
		t.Fatalf("unexpected positions: %+v", got)
	}

	data, err := os.ReadFile(interpPath)
	if err != nil {
		t.Fatalf("read interpretations: %v", err)
	}
	var gotI tracking.InterpretationRow
	if err := json.Unmarshal(data, &gotI); err != nil {
		t.Fatalf("decode interpretation: %v", err)
	}
	if gotI.Interpretation != "loop" || gotI.Outcome != tracking.OutcomeCompleted {
		t.Fatalf("unexpected interpretation: %+v", gotI)
	}
}

func TestFileWriterWithoutInterpretations(t *testing.T) {
	fw, err := NewFileWriter(filepath.Join(t.TempDir(), "p.jsonl"), "")
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	defer fw.Close()
	if err := fw.WriteInterpretation(tracking.InterpretationRow{EntityID: "a"}); err != nil {
		t.Fatalf("disabled interpretation log should be a no-op: %v", err)
	}
}
