package sim

import (
	"errors"

	"regard/internal/tracking"
)

// MultiWriter fans out position and interpretation rows to multiple writers.
type MultiWriter struct {
	poswriters    []PositionWriter
	interpwriters []InterpretationWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(pws []PositionWriter, iws []InterpretationWriter) *MultiWriter {
	return &MultiWriter{poswriters: pws, interpwriters: iws}
}

// WritePosition sends a position row to all writers. Every writer is
// attempted; errors are joined.
func (mw *MultiWriter) WritePosition(row tracking.PositionRow) error {
	var errs []error
	for _, w := range mw.poswriters {
		if err := w.WritePosition(row); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WritePositions sends multiple position rows to all writers, using batch if supported.
func (mw *MultiWriter) WritePositions(rows []tracking.PositionRow) error {
	var errs []error
	for _, w := range mw.poswriters {
		if bw, ok := w.(batchPositionWriter); ok {
			if err := bw.WritePositions(rows); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		for _, r := range rows {
			if err := w.WritePosition(r); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// WriteInterpretation sends an interpretation row to all writers.
func (mw *MultiWriter) WriteInterpretation(row tracking.InterpretationRow) error {
	var errs []error
	for _, w := range mw.interpwriters {
		if err := w.WriteInterpretation(row); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteInterpretations sends multiple interpretation rows to all writers, using batch if supported.
func (mw *MultiWriter) WriteInterpretations(rows []tracking.InterpretationRow) error {
	var errs []error
	for _, w := range mw.interpwriters {
		if bw, ok := w.(batchInterpretationWriter); ok {
			if err := bw.WriteInterpretations(rows); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		for _, r := range rows {
			if err := w.WriteInterpretation(r); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
