package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"regard/internal/tracking"
)

func TestObserveEvent(t *testing.T) {
	m := New()
	m.Track([]tracking.Entity{{ID: "a"}, {ID: "b", Alert: true}})
	if got := testutil.ToFloat64(m.alertsActive); got != 1 {
		t.Fatalf("alerts after Track = %v, want 1", got)
	}

	m.ObserveEvent(tracking.Event{Kind: tracking.EventPositionUpdated, EntityID: "a"})
	m.ObserveEvent(tracking.Event{Kind: tracking.EventPositionUpdated, EntityID: "b"})
	if got := testutil.ToFloat64(m.positionUpdates); got != 2 {
		t.Errorf("position updates = %v, want 2", got)
	}

	m.ObserveEvent(tracking.Event{Kind: tracking.EventInterpretationStarted, EntityID: "a"})
	if got := testutil.ToFloat64(m.inFlight); got != 1 {
		t.Errorf("in flight = %v, want 1", got)
	}
	m.ObserveEvent(tracking.Event{
		Kind:     tracking.EventInterpretationCompleted,
		EntityID: "a",
		Entity:   tracking.Entity{ID: "a", Alert: true},
	})
	if got := testutil.ToFloat64(m.inFlight); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.alertsActive); got != 2 {
		t.Errorf("alerts = %v, want 2", got)
	}
}

func TestObserveInterpretation(t *testing.T) {
	m := New()
	m.ObserveInterpretation("completed", 200*time.Millisecond)
	m.ObserveInterpretation("failed", time.Second)
	m.ObserveInterpretation("failed", time.Second)
	if got := testutil.ToFloat64(m.interpretations.WithLabelValues("failed")); got != 2 {
		t.Errorf("failed = %v, want 2", got)
	}
	if got := testutil.CollectAndCount(m.duration); got != 1 {
		t.Errorf("histogram series = %d", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveEvent(tracking.Event{Kind: tracking.EventPositionUpdated})
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rr.Body)
	if !strings.Contains(string(body), "regard_position_updates_total 1") {
		t.Errorf("exposition missing counter:\n%s", body)
	}
}

func TestNilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveEvent(tracking.Event{Kind: tracking.EventPositionUpdated})
	m.ObserveInterpretation("completed", time.Second)
	m.Track(nil)
	if m.Registry() != nil {
		t.Error("nil metrics should have nil registry")
	}
}
