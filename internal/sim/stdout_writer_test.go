package sim

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"regard/internal/scenario"
	"regard/internal/tracking"
)

func TestJSONStdoutWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &JSONStdoutWriter{out: &buf}
	_ = w.WritePosition(tracking.PositionRow{EntityID: "a", Timestamp: time.Unix(0, 0).UTC()})
	_ = w.WriteInterpretation(tracking.InterpretationRow{EntityID: "a", Outcome: tracking.OutcomeFailed})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"entity_id":"a"`) || !strings.Contains(lines[1], `"outcome":"failed"`) {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestColorStdoutWriter(t *testing.T) {
	var buf bytes.Buffer
	sc := scenario.BuiltIn()["quiet"]
	w := NewColorStdoutWriter(&sc)
	w.out = &buf

	_ = w.WritePosition(tracking.PositionRow{EntityID: "a", EntityType: tracking.TypeDrone, Lat: 1.5, Timestamp: time.Unix(0, 0).UTC()})
	_ = w.WriteInterpretation(tracking.InterpretationRow{EntityID: "a", Outcome: tracking.OutcomeCompleted, Alert: true, Confidence: 0.9})
	_ = w.WriteInterpretation(tracking.InterpretationRow{EntityID: "a", Outcome: tracking.OutcomeFailed})

	out := buf.String()
	if strings.Count(out, "Scenario: Quiet") != 1 {
		t.Errorf("overview should print once: %q", out)
	}
	for _, want := range []string{"entity=a", "lat=1.50000", "ALERT", "ANALYSIS FAILED"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}
