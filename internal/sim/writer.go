package sim

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"regard/internal/tracking"
)

// PositionWriter persists position rows.
type PositionWriter interface {
	WritePosition(tracking.PositionRow) error
}

// InterpretationWriter persists settled interpretation rows.
type InterpretationWriter interface {
	WriteInterpretation(tracking.InterpretationRow) error
}

// Optional: position writers may support batch mode
type batchPositionWriter interface {
	WritePositions([]tracking.PositionRow) error
}

// Optional: interpretation writers may support batch mode
type batchInterpretationWriter interface {
	WriteInterpretations([]tracking.InterpretationRow) error
}

// DefaultFlushInterval is how often Run flushes a batching recorder.
const DefaultFlushInterval = time.Second

// Recorder converts store events into rows for the configured writers.
// Write failures are logged and never reach the store.
type Recorder struct {
	positions       PositionWriter
	interpretations InterpretationWriter
	logger          *slog.Logger
	batchSize       int

	mu        sync.Mutex
	posBuf    []tracking.PositionRow
	interpBuf []tracking.InterpretationRow
}

// NewRecorder creates a Recorder writing every row as it arrives. Either
// writer may be nil.
func NewRecorder(pw PositionWriter, iw InterpretationWriter, logger *slog.Logger) *Recorder {
	return NewBatchingRecorder(pw, iw, 1, logger)
}

// NewBatchingRecorder buffers up to batchSize rows per kind and hands them to
// the writers' batch methods when they have them. Buffers are flushed when
// full, by Run, or by Flush.
func NewBatchingRecorder(pw PositionWriter, iw InterpretationWriter, batchSize int, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	if batchSize < 1 {
		batchSize = 1
	}
	return &Recorder{positions: pw, interpretations: iw, logger: logger, batchSize: batchSize}
}

// Attach subscribes the recorder to store and returns the unsubscribe func.
func (r *Recorder) Attach(store *tracking.Store) func() {
	return store.Subscribe(r.Handle)
}

// Handle processes a single store event.
func (r *Recorder) Handle(ev tracking.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch ev.Kind {
	case tracking.EventPositionUpdated:
		if r.positions == nil {
			return
		}
		r.posBuf = append(r.posBuf, tracking.PositionRowFromEntity(ev.Entity))
		if len(r.posBuf) >= r.batchSize {
			r.logErr("position write failed", r.flushPositions())
		}
	default:
		if r.interpretations == nil {
			return
		}
		row, ok := tracking.InterpretationRowFromEvent(ev)
		if !ok {
			return
		}
		r.interpBuf = append(r.interpBuf, row)
		if len(r.interpBuf) >= r.batchSize {
			r.logErr("interpretation write failed", r.flushInterpretations())
		}
	}
}

// Flush writes every buffered row.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return errors.Join(r.flushPositions(), r.flushInterpretations())
}

// Run flushes buffered rows every interval until ctx is done, then flushes
// once more.
func (r *Recorder) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.logErr("flush failed", r.Flush())
		case <-ctx.Done():
			r.logErr("final flush failed", r.Flush())
			return
		}
	}
}

func (r *Recorder) logErr(msg string, err error) {
	if err != nil {
		r.logger.Error(msg, "err", err)
	}
}

func (r *Recorder) flushPositions() error {
	rows := r.posBuf
	r.posBuf = nil
	switch {
	case len(rows) == 0:
		return nil
	case len(rows) == 1:
		return r.positions.WritePosition(rows[0])
	}
	if bw, ok := r.positions.(batchPositionWriter); ok {
		return bw.WritePositions(rows)
	}
	var errs []error
	for _, row := range rows {
		errs = append(errs, r.positions.WritePosition(row))
	}
	return errors.Join(errs...)
}

func (r *Recorder) flushInterpretations() error {
	rows := r.interpBuf
	r.interpBuf = nil
	switch {
	case len(rows) == 0:
		return nil
	case len(rows) == 1:
		return r.interpretations.WriteInterpretation(rows[0])
	}
	if bw, ok := r.interpretations.(batchInterpretationWriter); ok {
		return bw.WriteInterpretations(rows)
	}
	var errs []error
	for _, row := range rows {
		errs = append(errs, r.interpretations.WriteInterpretation(row))
	}
	return errors.Join(errs...)
}
