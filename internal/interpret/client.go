package interpret

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"regard/internal/logging"
	"regard/internal/metrics"
	"regard/internal/notify"
	"regard/internal/tracking"
)

// DefaultTimeout bounds a single service call.
const DefaultTimeout = 30 * time.Second

// Options tunes a Client.
type Options struct {
	Timeout          time.Duration
	MaxHistoryPoints int
	Logger           *slog.Logger
}

// Client drives the interpretation lifecycle: open the entity gate, call the
// service in the background and settle the result on the store.
type Client struct {
	store     *tracking.Store
	service   Service
	notifier  notify.Notifier
	metrics   *metrics.Metrics
	timeout   time.Duration
	maxPoints int
	logger    *slog.Logger
	now       func() time.Time

	wg sync.WaitGroup
}

// NewClient wires a Client. notifier and m may be nil.
func NewClient(store *tracking.Store, service Service, notifier notify.Notifier, m *metrics.Metrics, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Client{
		store:     store,
		service:   service,
		notifier:  notifier,
		metrics:   m,
		timeout:   opts.Timeout,
		maxPoints: opts.MaxHistoryPoints,
		logger:    opts.Logger,
		now:       time.Now,
	}
}

// RequestInterpretation dispatches an interpretation for id and returns a
// request id immediately. The service call outlives ctx cancellation; it is
// bounded only by the client timeout.
func (c *Client) RequestInterpretation(ctx context.Context, id string) (string, error) {
	if _, ok := c.store.Get(id); !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownEntity, id)
	}
	if !c.store.BeginInterpretation(id) {
		return "", fmt.Errorf("%w: %s", ErrAlreadyProcessing, id)
	}
	log := c.log(ctx)

	// entities are never removed, so the snapshot exists once the gate is open
	snap, _ := c.store.Get(id)
	req, err := BuildRequest(snap, c.maxPoints)
	if err != nil {
		c.store.FailInterpretation(id)
		c.notify(notify.LevelError, "Analysis failed", fmt.Sprintf("Could not prepare interpretation for %s.", id), id)
		return "", err
	}

	requestID := uuid.NewString()
	log.Info("interpretation requested", "entity_id", id, "request_id", requestID, "points", len(snap.MovementHistory))

	c.wg.Add(1)
	go c.run(context.WithoutCancel(ctx), log, requestID, req)
	return requestID, nil
}

// Wait blocks until every dispatched request has settled.
func (c *Client) Wait() {
	c.wg.Wait()
}

func (c *Client) run(ctx context.Context, log *slog.Logger, requestID string, req Request) {
	defer c.wg.Done()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := c.now()
	result, err := c.service.Interpret(ctx, req)
	if err == nil {
		err = Validate(result)
	}
	elapsed := c.now().Sub(start)

	if err != nil {
		c.store.FailInterpretation(req.ID)
		c.metrics.ObserveInterpretation(tracking.OutcomeFailed, elapsed)
		log.Warn("interpretation failed", "entity_id", req.ID, "request_id", requestID, "err", err)
		c.notify(notify.LevelError, "Analysis failed", fmt.Sprintf("Interpretation of the anomaly for %s failed.", req.ID), req.ID)
		return
	}

	c.store.CompleteInterpretation(req.ID, result)
	c.metrics.ObserveInterpretation(tracking.OutcomeCompleted, elapsed)
	log.Info("interpretation completed", "entity_id", req.ID, "request_id", requestID,
		"confidence", result.Confidence, "alert", result.Alerting(), "duration", elapsed)
	c.notify(notify.LevelInfo, "Analysis complete", fmt.Sprintf("The anomaly for %s has been interpreted.", req.ID), req.ID)
}

func (c *Client) notify(level notify.Level, title, msg, id string) {
	if c.notifier != nil {
		c.notifier.Notify(level, title, msg, id)
	}
}

func (c *Client) log(ctx context.Context) *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return logging.FromContext(ctx)
}
