package sim

import (
	"context"
	"time"

	"regard/internal/logging"
)

// Run starts the simulation loop and stops when the context is done.
func (s *Simulator) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	log.Info("starting simulator", "tick_interval", s.tickInterval, "drift_step", s.driftStep)
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			log.Info("stopping simulator")
			return
		}
	}
}

func (s *Simulator) tick(ctx context.Context) {
	id, ok := s.Step()
	if !ok {
		return
	}
	logging.FromContext(ctx).Debug("position drifted", "entity_id", id)
}
