// ColorStdoutWriter prints human-friendly, colorized rows to STDOUT.
package sim

import (
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"regard/internal/scenario"
	"regard/internal/tracking"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

// ColorStdoutWriter prints rows using ANSI colors.
type ColorStdoutWriter struct {
	sc          *scenario.Scenario
	out         io.Writer
	once        sync.Once
	mu          sync.Mutex
	typeColors  map[tracking.EntityType]string
	entityColor map[string]string
	colorIdx    int
}

var entityPalette = []string{colorGreen, colorYellow, colorBlue, colorMagenta, colorCyan}

// NewColorStdoutWriter creates a ColorStdoutWriter writing to os.Stdout. sc
// is printed as an overview before the first row and may be nil.
func NewColorStdoutWriter(sc *scenario.Scenario) *ColorStdoutWriter {
	return &ColorStdoutWriter{
		sc:  sc,
		out: os.Stdout,
		typeColors: map[tracking.EntityType]string{
			tracking.TypeDrone:   colorCyan,
			tracking.TypeVehicle: colorYellow,
			tracking.TypePerson:  colorMagenta,
		},
		entityColor: make(map[string]string),
	}
}

func (w *ColorStdoutWriter) getEntityColor(id string) string {
	if c, ok := w.entityColor[id]; ok {
		return c
	}
	c := entityPalette[w.colorIdx%len(entityPalette)]
	w.entityColor[id] = c
	w.colorIdx++
	return c
}

func (w *ColorStdoutWriter) printOverview() {
	if w.sc == nil {
		return
	}

	fmt.Fprintf(w.out, "Scenario: %s\n", w.sc.Name)
	if w.sc.Description != "" {
		fmt.Fprintf(w.out, "%s\n", w.sc.Description)
	}
	fmt.Fprintln(w.out, "\nEntities:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tName\tType\tTags\n")
	for _, e := range w.sc.Entities {
		col := w.getEntityColor(e.ID)
		fmt.Fprintf(tw, "%s%s%s\t%s\t%s\t%v\n", col, e.ID, colorReset, e.Name, e.Type, e.Tags)
	}
	tw.Flush()
	fmt.Fprintln(w.out)
}

// WritePosition outputs a single position row in colorized format.
func (w *ColorStdoutWriter) WritePosition(row tracking.PositionRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.once.Do(w.printOverview)

	typeColor, ok := w.typeColors[row.EntityType]
	if !ok {
		typeColor = colorGray
	}
	fmt.Fprintf(w.out, "%s[%s]%s ", colorGray, row.Timestamp.Format(time.RFC3339), colorReset)
	fmt.Fprintf(w.out, "%sentity=%s%s ", w.getEntityColor(row.EntityID), row.EntityID, colorReset)
	fmt.Fprintf(w.out, "%stype=%s%s ", typeColor, row.EntityType, colorReset)
	fmt.Fprintf(w.out, "%slat=%.5f%s ", colorGreen, row.Lat, colorReset)
	fmt.Fprintf(w.out, "%slng=%.5f%s", colorYellow, row.Lng, colorReset)
	fmt.Fprintln(w.out)
	return nil
}

// WritePositions outputs multiple position rows.
func (w *ColorStdoutWriter) WritePositions(rows []tracking.PositionRow) error {
	for _, r := range rows {
		_ = w.WritePosition(r)
	}
	return nil
}

// WriteInterpretation prints a settled interpretation to STDOUT.
func (w *ColorStdoutWriter) WriteInterpretation(row tracking.InterpretationRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.once.Do(w.printOverview)

	if row.Outcome == tracking.OutcomeFailed {
		fmt.Fprintf(w.out, "%s[%s]%s %sANALYSIS FAILED%s entity=%s\n",
			colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
			colorRed, colorReset, row.EntityID)
		return nil
	}
	label, labelColor := "ANALYSIS", colorBlue
	if row.Alert {
		label, labelColor = "ALERT", colorRed
	}
	fmt.Fprintf(w.out, "%s[%s]%s %s%s%s entity=%s conf=%.2f %q\n",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		labelColor, label, colorReset, row.EntityID, row.Confidence, row.Interpretation)
	return nil
}
