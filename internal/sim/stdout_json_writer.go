package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"regard/internal/tracking"
)

// JSONStdoutWriter prints position and interpretation rows as JSON to STDOUT.
type JSONStdoutWriter struct {
	out io.Writer
	mu  sync.Mutex
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

// WritePosition outputs a position row in JSON format.
func (w *JSONStdoutWriter) WritePosition(row tracking.PositionRow) error {
	return w.print(row)
}

// WritePositions outputs multiple position rows in JSON format.
func (w *JSONStdoutWriter) WritePositions(rows []tracking.PositionRow) error {
	for _, r := range rows {
		_ = w.WritePosition(r)
	}
	return nil
}

// WriteInterpretation outputs an interpretation row in JSON format.
func (w *JSONStdoutWriter) WriteInterpretation(row tracking.InterpretationRow) error {
	return w.print(row)
}

func (w *JSONStdoutWriter) print(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}
