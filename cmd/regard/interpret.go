package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"regard/internal/interpret"
	"regard/internal/logging"
	"regard/internal/notify"
)

var interpretCmd = &cobra.Command{
	Use:   "interpret <entity-id>",
	Short: "Run one interpretation against a scenario entity",
	Long:  "interpret seeds the configured scenario, requests an anomaly interpretation for one entity, waits for it to settle and prints the entity as JSON.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := logging.NewContext(cmd.Context(), logger)
		store, _, err := buildStore(cfg, newRand(cfg.Simulation.Seed))
		if err != nil {
			return err
		}
		notes := notify.NewCenter(notify.DefaultCapacity)
		client := interpret.NewClient(store, newService(cfg.Interpreter, logger), notes, nil, interpret.Options{
			Timeout:          cfg.Interpreter.Timeout,
			MaxHistoryPoints: cfg.Interpreter.MaxHistoryPoints,
			Logger:           logger,
		})

		id := args[0]
		if _, err := client.RequestInterpretation(ctx, id); err != nil {
			return err
		}
		client.Wait()

		e, _ := store.Get(id)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(e); err != nil {
			return err
		}
		if recent := notes.Recent(1); len(recent) == 1 && recent[0].Level == notify.LevelError {
			return fmt.Errorf("%s: %s", recent[0].Title, recent[0].Message)
		}
		return nil
	},
}
