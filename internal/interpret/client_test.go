package interpret

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regard/internal/notify"
	"regard/internal/tracking"
)

type recordingNotifier struct {
	mu  sync.Mutex
	got []notify.Notification
}

func (r *recordingNotifier) Notify(level notify.Level, title, message, entityID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, notify.Notification{Level: level, Title: title, Message: message, EntityID: entityID})
}

func (r *recordingNotifier) all() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Notification(nil), r.got...)
}

func newStore(t *testing.T) *tracking.Store {
	t.Helper()
	s, err := tracking.NewStore([]tracking.Entity{
		{
			ID:       "ID-123-ALPHA",
			Metadata: tracking.Metadata{Name: "Drone Alpha", Type: tracking.TypeDrone, Tags: []string{"asset"}},
			MovementHistory: []tracking.MovementPoint{
				{Lat: 48.85, Lng: 2.35, Timestamp: 1000},
				{Lat: 48.86, Lng: 2.36, Timestamp: 2000},
				{Lat: 48.87, Lng: 2.37, Timestamp: 3000},
			},
		},
	})
	require.NoError(t, err)
	return s
}

func fixed(result tracking.AnomalyInterpretation, err error) Service {
	return ServiceFunc(func(context.Context, Request) (tracking.AnomalyInterpretation, error) {
		return result, err
	})
}

func TestRequestInterpretation_CompletesWithAlert(t *testing.T) {
	store := newStore(t)
	n := &recordingNotifier{}
	c := NewClient(store, fixed(tracking.AnomalyInterpretation{Interpretation: "erratic loop", Confidence: 0.9}, nil), n, nil, Options{})

	var kinds []tracking.EventKind
	store.Subscribe(func(ev tracking.Event) { kinds = append(kinds, ev.Kind) })

	reqID, err := c.RequestInterpretation(context.Background(), "ID-123-ALPHA")
	require.NoError(t, err)
	assert.NotEmpty(t, reqID)
	c.Wait()

	e, ok := store.Get("ID-123-ALPHA")
	require.True(t, ok)
	require.NotNil(t, e.Anomaly)
	assert.Equal(t, "erratic loop", e.Anomaly.Interpretation)
	assert.True(t, e.Alert)
	assert.False(t, e.IsProcessingAnomaly)
	assert.Equal(t, []tracking.EventKind{tracking.EventInterpretationStarted, tracking.EventInterpretationCompleted}, kinds)

	got := n.all()
	require.Len(t, got, 1)
	assert.Equal(t, notify.LevelInfo, got[0].Level)
	assert.Equal(t, "ID-123-ALPHA", got[0].EntityID)
}

func TestRequestInterpretation_FailureKeepsPreviousResult(t *testing.T) {
	store := newStore(t)
	store.CompleteInterpretation("ID-123-ALPHA", tracking.AnomalyInterpretation{Interpretation: "earlier", Confidence: 0.85})
	n := &recordingNotifier{}
	c := NewClient(store, fixed(tracking.AnomalyInterpretation{}, errors.New("boom")), n, nil, Options{})

	_, err := c.RequestInterpretation(context.Background(), "ID-123-ALPHA")
	require.NoError(t, err)
	c.Wait()

	e, _ := store.Get("ID-123-ALPHA")
	assert.False(t, e.IsProcessingAnomaly)
	require.NotNil(t, e.Anomaly)
	assert.Equal(t, "earlier", e.Anomaly.Interpretation)
	assert.True(t, e.Alert)

	got := n.all()
	require.Len(t, got, 1)
	assert.Equal(t, notify.LevelError, got[0].Level)
}

func TestRequestInterpretation_OutOfRangeConfidenceFails(t *testing.T) {
	for name, confidence := range map[string]float64{"above range": 1.5, "NaN": math.NaN()} {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			n := &recordingNotifier{}
			c := NewClient(store, fixed(tracking.AnomalyInterpretation{Interpretation: "x", Confidence: confidence}, nil), n, nil, Options{})

			_, err := c.RequestInterpretation(context.Background(), "ID-123-ALPHA")
			require.NoError(t, err)
			c.Wait()

			e, _ := store.Get("ID-123-ALPHA")
			assert.Nil(t, e.Anomaly)
			assert.False(t, e.Alert)
			assert.False(t, e.IsProcessingAnomaly)
			require.Len(t, n.all(), 1)
			assert.Equal(t, notify.LevelError, n.all()[0].Level)
		})
	}
}

func TestRequestInterpretation_Gate(t *testing.T) {
	store := newStore(t)
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex
	svc := ServiceFunc(func(ctx context.Context, _ Request) (tracking.AnomalyInterpretation, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		<-release
		return tracking.AnomalyInterpretation{Interpretation: "ok", Confidence: 0.3}, nil
	})
	c := NewClient(store, svc, nil, nil, Options{})

	_, err := c.RequestInterpretation(context.Background(), "ID-123-ALPHA")
	require.NoError(t, err)

	_, err = c.RequestInterpretation(context.Background(), "ID-123-ALPHA")
	assert.ErrorIs(t, err, ErrAlreadyProcessing)

	_, err = c.RequestInterpretation(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrUnknownEntity)

	close(release)
	c.Wait()
	mu.Lock()
	assert.Equal(t, 1, calls)
	mu.Unlock()

	e, _ := store.Get("ID-123-ALPHA")
	assert.False(t, e.Alert, "confidence 0.3 must not alert")

	_, err = c.RequestInterpretation(context.Background(), "ID-123-ALPHA")
	assert.NoError(t, err, "gate reopens after settlement")
	c.Wait()
}

func TestRequestInterpretation_DetachedFromCaller(t *testing.T) {
	store := newStore(t)
	started := make(chan struct{})
	svc := ServiceFunc(func(ctx context.Context, _ Request) (tracking.AnomalyInterpretation, error) {
		close(started)
		time.Sleep(20 * time.Millisecond)
		if err := ctx.Err(); err != nil {
			return tracking.AnomalyInterpretation{}, err
		}
		return tracking.AnomalyInterpretation{Interpretation: "fine", Confidence: 0.5}, nil
	})
	c := NewClient(store, svc, nil, nil, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	_, err := c.RequestInterpretation(ctx, "ID-123-ALPHA")
	require.NoError(t, err)
	<-started
	cancel()
	c.Wait()

	e, _ := store.Get("ID-123-ALPHA")
	require.NotNil(t, e.Anomaly)
	assert.Equal(t, "fine", e.Anomaly.Interpretation)
}

func TestRequestInterpretation_Timeout(t *testing.T) {
	store := newStore(t)
	svc := ServiceFunc(func(ctx context.Context, _ Request) (tracking.AnomalyInterpretation, error) {
		<-ctx.Done()
		return tracking.AnomalyInterpretation{}, ctx.Err()
	})
	n := &recordingNotifier{}
	c := NewClient(store, svc, n, nil, Options{Timeout: 10 * time.Millisecond})

	_, err := c.RequestInterpretation(context.Background(), "ID-123-ALPHA")
	require.NoError(t, err)
	c.Wait()

	e, _ := store.Get("ID-123-ALPHA")
	assert.False(t, e.IsProcessingAnomaly)
	require.Len(t, n.all(), 1)
	assert.Equal(t, notify.LevelError, n.all()[0].Level)
}

func TestRequestInterpretation_Unavailable(t *testing.T) {
	store := newStore(t)
	c := NewClient(store, UnavailableService{Reason: "no api key"}, nil, nil, Options{})
	_, err := c.RequestInterpretation(context.Background(), "ID-123-ALPHA")
	require.NoError(t, err)
	c.Wait()
	e, _ := store.Get("ID-123-ALPHA")
	assert.False(t, e.IsProcessingAnomaly)
	assert.Nil(t, e.Anomaly)
}

func TestBuildRequest(t *testing.T) {
	store := newStore(t)
	e, _ := store.Get("ID-123-ALPHA")

	req, err := BuildRequest(e, 0)
	require.NoError(t, err)
	assert.Equal(t, "ID-123-ALPHA", req.ID)
	assert.JSONEq(t, `[{"lat":48.85,"lng":2.35,"timestamp":1000},{"lat":48.86,"lng":2.36,"timestamp":2000},{"lat":48.87,"lng":2.37,"timestamp":3000}]`, req.MovementData)
	assert.JSONEq(t, `{"name":"Drone Alpha","type":"drone","tags":["asset"]}`, req.Metadata)

	req, err = BuildRequest(e, 2)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"lat":48.86,"lng":2.36,"timestamp":2000},{"lat":48.87,"lng":2.37,"timestamp":3000}]`, req.MovementData)
}
