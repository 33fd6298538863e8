package main

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"regard/internal/admin"
	"regard/internal/interpret"
	"regard/internal/logging"
	"regard/internal/metrics"
	"regard/internal/notify"
	"regard/internal/sim"
	"regard/internal/tui"
)

var (
	servePrintOnly bool
	serveLogFile   string
	serveTUI       bool
	serveNoAdmin   bool
	serveTUILog    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the simulator, HTTP API and optional terminal dashboard",
	Long:  "serve seeds the entity store from the configured scenario, drifts positions on a ticker and exposes the store over HTTP and an optional terminal dashboard.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		useTUI := serveTUI && term.IsTerminal(int(os.Stdout.Fd()))
		if serveTUI && !useTUI {
			logger.Warn("stdout is not a terminal, running without the dashboard")
		}
		log := logger
		if useTUI {
			// the dashboard owns the terminal
			w := io.Discard
			if serveTUILog != "" {
				f, err := os.OpenFile(serveTUILog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			log = logging.NewWithWriter(w, cfg.Logging.Level, cfg.Logging.Format)
		}
		ctx = logging.NewContext(ctx, log)

		rng := newRand(cfg.Simulation.Seed)
		store, sc, err := buildStore(cfg, rng)
		if err != nil {
			return err
		}

		mode := detectStdout()
		if useTUI {
			mode = stdoutNone
		}
		pw, iw, cleanup, err := newWriters(cfg.Outputs, sc, mode, servePrintOnly, serveLogFile, log)
		if err != nil {
			return err
		}
		defer cleanup()
		var rec *sim.Recorder
		if pw != nil {
			rec = sim.NewBatchingRecorder(pw, iw, cfg.Outputs.BatchSize, log)
			defer rec.Attach(store)()
		}

		m := metrics.New()
		m.Track(store.Snapshot())
		defer store.Subscribe(m.ObserveEvent)()

		notes := notify.NewCenter(notify.DefaultCapacity)
		client := interpret.NewClient(store, newService(cfg.Interpreter, log), notes, m, interpret.Options{
			Timeout:          cfg.Interpreter.Timeout,
			MaxHistoryPoints: cfg.Interpreter.MaxHistoryPoints,
			Logger:           log,
		})

		simulator := sim.NewSimulator(store, sim.Options{
			TickInterval: cfg.Simulation.TickInterval,
			DriftStep:    cfg.Simulation.DriftStep,
			Rand:         rng,
		})

		log.Info("starting",
			"scenario", sc.Name,
			"entities", store.Len(),
			"tick", simulator.TickInterval(),
			"interpreter", cfg.Interpreter.String(),
			"map_enabled", cfg.Map.Enabled())

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			simulator.Run(gctx)
			return nil
		})
		if rec != nil {
			g.Go(func() error {
				rec.Run(gctx, cfg.Outputs.FlushInterval)
				return nil
			})
		}
		if !serveNoAdmin {
			srv := admin.NewServer(admin.Options{
				Store:         store,
				Requester:     client,
				Notifications: notes,
				Metrics:       m,
				Map:           admin.MapConfig{Provider: cfg.Map.Provider, APIKey: cfg.Map.APIKey},
				CorsOrigins:   cfg.Admin.CorsOrigins,
				Logger:        log,
			})
			g.Go(func() error { return srv.Start(gctx, cfg.Admin.ListenAddr) })
		}
		if useTUI {
			dash := tui.New(store, client, tui.Options{APIActive: !serveNoAdmin, MapEnabled: cfg.Map.Enabled()})
			defer store.Subscribe(dash.HandleEvent)()
			defer notes.Subscribe(dash.HandleNotification)()
			g.Go(func() error {
				defer stop()
				return dash.Run(gctx)
			})
		}

		err = g.Wait()
		log.Info("waiting for in-flight interpretations")
		client.Wait()
		if rec != nil {
			if ferr := rec.Flush(); ferr != nil {
				log.Error("flush failed", "err", ferr)
			}
		}
		log.Info("stopped")
		return err
	},
}

func init() {
	serveCmd.Flags().BoolVar(&servePrintOnly, "print-only", false, "Only print rows to STDOUT, skip GreptimeDB and NATS")
	serveCmd.Flags().StringVar(&serveLogFile, "log-file", "", "Path to export position/interpretation rows (JSONL)")
	serveCmd.Flags().BoolVar(&serveTUI, "tui", false, "Show the terminal dashboard when stdout is a terminal")
	serveCmd.Flags().StringVar(&serveTUILog, "tui-log", "", "Log file used while the terminal dashboard is active")
	serveCmd.Flags().BoolVar(&serveNoAdmin, "no-admin", false, "Disable the HTTP API")
}

