package sim

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"regard/internal/tracking"
)

// ReplayLog reads position rows from r and applies them to store. A speed >0
// accelerates playback. If speed <= 0, no artificial delay is inserted.
// It returns the number of rows applied; rows for unknown entities are skipped.
func ReplayLog(ctx context.Context, r io.Reader, store *tracking.Store, speed float64) (int, error) {
	dec := json.NewDecoder(r)
	var prev time.Time
	applied := 0
	for {
		var row tracking.PositionRow
		if err := dec.Decode(&row); err != nil {
			if err == io.EOF {
				return applied, nil
			}
			return applied, err
		}
		if !prev.IsZero() && speed > 0 {
			diff := row.Timestamp.Sub(prev)
			if speed != 1 {
				diff = time.Duration(float64(diff) / speed)
			}
			if diff > 0 {
				t := time.NewTimer(diff)
				select {
				case <-ctx.Done():
					t.Stop()
					return applied, ctx.Err()
				case <-t.C:
				}
			}
		}
		if err := ctx.Err(); err != nil {
			return applied, err
		}
		if store.ApplyPositionUpdate(row.EntityID, tracking.NewMovementPoint(row.Lat, row.Lng, row.Timestamp)) {
			applied++
		}
		prev = row.Timestamp
	}
}

// ReplayLogFile opens a file and replays its position rows.
func ReplayLogFile(ctx context.Context, path string, store *tracking.Store, speed float64) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return ReplayLog(ctx, f, store, speed)
}
