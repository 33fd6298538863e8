package sim

import (
	"encoding/json"
	"os"
	"sync"

	"regard/internal/tracking"
)

// FileWriter writes position and interpretation rows to JSONL files.
type FileWriter struct {
	mu        sync.Mutex
	posFile   *os.File
	interFile *os.File
	posEnc    *json.Encoder
	interEnc  *json.Encoder
}

// NewFileWriter creates a FileWriter. interpretationPath may be empty to skip
// that log.
func NewFileWriter(positionPath, interpretationPath string) (*FileWriter, error) {
	pf, err := os.Create(positionPath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{posFile: pf, posEnc: json.NewEncoder(pf)}
	if interpretationPath != "" {
		inf, err := os.Create(interpretationPath)
		if err != nil {
			pf.Close()
			return nil, err
		}
		fw.interFile = inf
		fw.interEnc = json.NewEncoder(inf)
	}
	return fw, nil
}

// WritePosition logs a single position row.
func (f *FileWriter) WritePosition(row tracking.PositionRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.posEnc.Encode(row)
}

// WritePositions logs multiple position rows.
func (f *FileWriter) WritePositions(rows []tracking.PositionRow) error {
	for _, r := range rows {
		if err := f.WritePosition(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteInterpretation logs a single interpretation row, if enabled.
func (f *FileWriter) WriteInterpretation(row tracking.InterpretationRow) error {
	if f.interEnc == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.interEnc.Encode(row)
}

// WriteInterpretations logs multiple interpretation rows.
func (f *FileWriter) WriteInterpretations(rows []tracking.InterpretationRow) error {
	for _, r := range rows {
		if err := f.WriteInterpretation(r); err != nil {
			return err
		}
	}
	return nil
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var err error
	if f.posFile != nil {
		if e := f.posFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	if f.interFile != nil {
		if e := f.interFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
