package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"regard/internal/logging"
	"regard/internal/sim"
	"regard/internal/tracking"
)

var (
	replayInput     string
	replaySpeed     float64
	replayPrintOnly bool
	replayLogFile   string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a recorded position log",
	Long:  "replay seeds the configured scenario and feeds position rows from a JSONL log back through the store, recording them like a live run.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := logging.NewContext(cmd.Context(), logger)
		store, sc, err := buildStore(cfg, newRand(cfg.Simulation.Seed))
		if err != nil {
			return err
		}
		pw, iw, cleanup, err := newWriters(cfg.Outputs, sc, detectStdout(), replayPrintOnly, replayLogFile, logger)
		if err != nil {
			return err
		}
		defer cleanup()
		n, err := replayInto(ctx, store, pw, iw)
		logger.Info("replay finished", "input", replayInput, "applied", n)
		return err
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to position log file")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier (<= 0 disables delays)")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Only print rows to STDOUT, skip GreptimeDB and NATS")
	replayCmd.Flags().StringVar(&replayLogFile, "log-file", "", "Path to export replayed rows (JSONL)")
	replayCmd.MarkFlagRequired("input")
}

// replayBatchSize bounds how many replayed rows are buffered per batch insert.
const replayBatchSize = 100

func replayInto(ctx context.Context, store *tracking.Store, pw sim.PositionWriter, iw sim.InterpretationWriter) (int, error) {
	if pw == nil {
		return sim.ReplayLogFile(ctx, replayInput, store, replaySpeed)
	}
	rec := sim.NewBatchingRecorder(pw, iw, replayBatchSize, logger)
	unsubscribe := rec.Attach(store)
	n, err := sim.ReplayLogFile(ctx, replayInput, store, replaySpeed)
	unsubscribe()
	return n, errors.Join(err, rec.Flush())
}
