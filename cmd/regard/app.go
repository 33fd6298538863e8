package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"regard/internal/config"
	"regard/internal/interpret"
	"regard/internal/scenario"
	"regard/internal/tracking"
)

// loadScenario resolves the configured scenario file or built-in name.
func loadScenario(c *config.Config) (*scenario.Scenario, error) {
	if c.ScenarioFile != "" {
		return scenario.Load(c.ScenarioFile)
	}
	name := c.Scenario
	if name == "" {
		name = scenario.DefaultName
	}
	sc, ok := scenario.BuiltIn()[name]
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q", name)
	}
	return &sc, nil
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// buildStore seeds a store from the configured scenario.
func buildStore(c *config.Config, rng *rand.Rand) (*tracking.Store, *scenario.Scenario, error) {
	sc, err := loadScenario(c)
	if err != nil {
		return nil, nil, err
	}
	store, err := tracking.NewStore(sc.Build(time.Now(), rng))
	if err != nil {
		return nil, nil, fmt.Errorf("seed store: %w", err)
	}
	return store, sc, nil
}

// newService picks the interpretation backend. A missing credential yields a
// service that fails every request so the rest of the system keeps running.
func newService(c config.InterpreterConfig, log *slog.Logger) interpret.Service {
	switch c.Provider {
	case "http":
		return interpret.NewHTTPService(c.Endpoint)
	case "none":
		return interpret.UnavailableService{Reason: "interpreter disabled"}
	}
	if c.APIKey == "" {
		log.Warn("ANTHROPIC_API_KEY not set, interpretation requests will fail")
		return interpret.UnavailableService{Reason: "ANTHROPIC_API_KEY not set"}
	}
	return interpret.NewClaudeService(c.APIKey, c.Model, c.MaxTokens, log)
}
