package scenario

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"regard/internal/tracking"
)

func TestLoadScenario(t *testing.T) {
	sc, err := Load("testdata/simple.yaml")
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	if sc.Name != "example" {
		t.Fatalf("unexpected name %s", sc.Name)
	}
	if len(sc.Entities) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(sc.Entities))
	}
	if sc.Entities[1].Jump == nil || sc.Entities[1].Jump.Points != 2 {
		t.Fatalf("jump not parsed: %+v", sc.Entities[1])
	}
	if sc.Entities[1].Anomaly == nil || sc.Entities[1].Anomaly.Confidence != 0.9 {
		t.Fatalf("anomaly not parsed: %+v", sc.Entities[1].Anomaly)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("testdata/missing.yaml"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoadRejectsInvalidAnomaly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	data := `name: bad
entities:
  - id: ID-900-BAD
    name: Bad
    type: drone
    origin: {lat: 1, lng: 2}
    history_points: 2
    drift: 0.001
    anomaly:
      interpretation: too sure
      confidence: 1.5
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for out-of-range anomaly confidence")
	}
}

func TestBuildHistories(t *testing.T) {
	sc, err := Load("testdata/simple.yaml")
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	now := time.Unix(1_700_000_000, 0)
	entities := sc.Build(now, rand.New(rand.NewSource(1)))
	if len(entities) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(entities))
	}
	walker := entities[1]
	if len(walker.MovementHistory) != 5 {
		t.Fatalf("expected 3+2 points, got %d", len(walker.MovementHistory))
	}
	tail := walker.MovementHistory[len(walker.MovementHistory)-1]
	if walker.CurrentPosition != tail {
		t.Fatalf("current position is not the history tail")
	}
	if tail.Lat > 41 {
		t.Fatalf("expected path to end near the jump target, got %+v", tail)
	}
	if !walker.Alert {
		t.Fatalf("expected alert from seeded anomaly")
	}
	for i := 1; i < len(walker.MovementHistory); i++ {
		if walker.MovementHistory[i].Timestamp <= walker.MovementHistory[i-1].Timestamp {
			t.Fatalf("history not chronological at %d", i)
		}
	}
	if tail.Time().After(now) {
		t.Fatalf("history must end before now")
	}
}

func TestBuildDeterministic(t *testing.T) {
	sc := BuiltIn()[DefaultName]
	now := time.Unix(1_700_000_000, 0)
	a := sc.Build(now, rand.New(rand.NewSource(7)))
	b := sc.Build(now, rand.New(rand.NewSource(7)))
	for i := range a {
		if a[i].CurrentPosition != b[i].CurrentPosition {
			t.Fatalf("entity %s differs between identical seeds", a[i].ID)
		}
	}
}

func TestBuiltInScenarios(t *testing.T) {
	for name, sc := range BuiltIn() {
		if sc.Description == "" {
			t.Fatalf("scenario %s missing description", name)
		}
		entities := sc.Build(time.Now(), rand.New(rand.NewSource(1)))
		if _, err := tracking.NewStore(entities); err != nil {
			t.Fatalf("scenario %s does not build a valid store: %v", name, err)
		}
	}
	paris := BuiltIn()[DefaultName]
	if len(paris.Entities) != 5 {
		t.Fatalf("expected 5 entities in %s, got %d", DefaultName, len(paris.Entities))
	}
}
