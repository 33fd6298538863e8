package main

import (
	"log/slog"
	"os"

	"golang.org/x/term"

	"regard/internal/config"
	"regard/internal/scenario"
	"regard/internal/sim"
)

type stdoutMode int

const (
	stdoutNone stdoutMode = iota
	stdoutJSON
	stdoutColor
)

// detectStdout picks colour output on a terminal and JSON lines otherwise.
func detectStdout() stdoutMode {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return stdoutColor
	}
	return stdoutJSON
}

// newWriters sets up position and interpretation writers from the outputs
// config. printOnly skips the remote sinks. The returned cleanup closes every
// opened resource.
func newWriters(out config.OutputsConfig, sc *scenario.Scenario, mode stdoutMode, printOnly bool, logFile string, log *slog.Logger) (sim.PositionWriter, sim.InterpretationWriter, func(), error) {
	var (
		pws     []sim.PositionWriter
		iws     []sim.InterpretationWriter
		closers []func() error
	)
	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Warn("closing writer", "err", err)
			}
		}
	}
	add := func(w interface {
		sim.PositionWriter
		sim.InterpretationWriter
	}) {
		pws = append(pws, w)
		iws = append(iws, w)
	}

	switch mode {
	case stdoutColor:
		add(sim.NewColorStdoutWriter(sc))
	case stdoutJSON:
		add(sim.NewJSONStdoutWriter())
	}

	if !printOnly {
		if out.GreptimeEndpoint != "" {
			gw, err := sim.NewGreptimeDBWriter(out.GreptimeEndpoint, out.GreptimeDatabase, log)
			if err != nil {
				cleanup()
				return nil, nil, nil, err
			}
			add(gw)
			log.Info("recording to GreptimeDB", "endpoint", out.GreptimeEndpoint, "database", out.GreptimeDatabase)
		}
		if out.NATSURL != "" {
			nw, err := sim.NewNATSWriter(out.NATSURL, out.NATSSubjectPrefix)
			if err != nil {
				cleanup()
				return nil, nil, nil, err
			}
			add(nw)
			closers = append(closers, nw.Close)
			log.Info("publishing to NATS", "url", out.NATSURL, "prefix", out.NATSSubjectPrefix)
		}
	}

	if logFile != "" {
		fw, err := sim.NewFileWriter(logFile, logFile+".interpretations")
		if err != nil {
			cleanup()
			return nil, nil, nil, err
		}
		add(fw)
		closers = append(closers, fw.Close)
	}

	switch len(pws) {
	case 0:
		return nil, nil, cleanup, nil
	case 1:
		return pws[0], iws[0], cleanup, nil
	}
	mw := sim.NewMultiWriter(pws, iws)
	return mw, mw, cleanup, nil
}
