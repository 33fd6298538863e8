package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"regard/internal/config"
	"regard/internal/logging"
)

var (
	rootConfigPath string
	rootSchemaPath string
	rootEnvFiles   []string

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "regard",
	Short: "Tracked-entity monitoring toolkit",
	Long:  "regard tracks entity positions, simulates movement and asks an interpretation service to explain anomalies.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(rootEnvFiles...); err != nil {
			return err
		}
		c, err := config.Load(rootConfigPath, rootSchemaPath)
		if err != nil {
			return err
		}
		cfg = c
		logger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
		slog.SetDefault(logger)
		return nil
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config", "", "Path to configuration YAML (defaults apply when empty)")
	rootCmd.PersistentFlags().StringVar(&rootSchemaPath, "schema", "", "Path to a CUE schema overriding the embedded one")
	rootCmd.PersistentFlags().StringSliceVar(&rootEnvFiles, "env-file", []string{".env", ".env.local"}, "Dotenv files to load if present")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(interpretCmd)
	rootCmd.AddCommand(dashboardCmd)
}
