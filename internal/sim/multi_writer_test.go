package sim

import (
	"errors"
	"testing"

	"regard/internal/tracking"
)

func TestMultiWriterFanOut(t *testing.T) {
	a, b := &collectWriter{}, &collectWriter{err: errors.New("down")}
	c := &collectWriter{}
	mw := NewMultiWriter([]PositionWriter{a, b, c}, []InterpretationWriter{a, c})

	err := mw.WritePositions([]tracking.PositionRow{{EntityID: "x"}, {EntityID: "y"}})
	if err == nil {
		t.Fatal("expected joined error from failing writer")
	}
	if len(a.positions) != 2 || len(c.positions) != 2 {
		t.Errorf("healthy writers should receive all rows: a=%d c=%d", len(a.positions), len(c.positions))
	}
	if err := mw.WriteInterpretation(tracking.InterpretationRow{EntityID: "x"}); err != nil {
		t.Fatalf("WriteInterpretation: %v", err)
	}
	if len(a.interpretations) != 1 || len(c.interpretations) != 1 {
		t.Errorf("interpretation not fanned out")
	}
}
