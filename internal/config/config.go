// YAML config loader with CUE validation and environment overrides
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// SimulationConfig tunes the position simulator.
type SimulationConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	DriftStep    float64       `yaml:"drift_step"`
	Seed         int64         `yaml:"seed"`
}

// InterpreterConfig selects and tunes the interpretation service.
type InterpreterConfig struct {
	Provider         string        `yaml:"provider"`
	Model            string        `yaml:"model"`
	Endpoint         string        `yaml:"endpoint"`
	Timeout          time.Duration `yaml:"timeout"`
	MaxHistoryPoints int           `yaml:"max_history_points"`
	MaxTokens        int           `yaml:"max_tokens"`
	APIKey           string        `yaml:"-"`
}

// String masks the API key.
func (c InterpreterConfig) String() string {
	return fmt.Sprintf("InterpreterConfig{Provider:%s, Model:%s, Endpoint:%s, APIKey:%s}", c.Provider, c.Model, c.Endpoint, maskKey(c.APIKey))
}

// AdminConfig holds HTTP API settings.
type AdminConfig struct {
	ListenAddr  string   `yaml:"listen_addr"`
	CorsOrigins []string `yaml:"cors_origins"`
}

// MapConfig holds the map provider credential. An empty key disables map
// rendering without affecting the rest of the system.
type MapConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"-"`
}

// Enabled reports whether a map credential is configured.
func (m MapConfig) Enabled() bool { return m.APIKey != "" }

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// OutputsConfig holds optional export sinks.
type OutputsConfig struct {
	GreptimeEndpoint  string `yaml:"greptime_endpoint"`
	GreptimeDatabase  string `yaml:"greptime_database"`
	NATSURL           string `yaml:"nats_url"`
	NATSSubjectPrefix string `yaml:"nats_subject_prefix"`

	// BatchSize > 1 buffers rows and writes them through batch inserts.
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// Config is the root configuration.
type Config struct {
	Scenario     string            `yaml:"scenario"`
	ScenarioFile string            `yaml:"scenario_file"`
	Simulation   SimulationConfig  `yaml:"simulation"`
	Interpreter  InterpreterConfig `yaml:"interpreter"`
	Admin        AdminConfig       `yaml:"admin"`
	Map          MapConfig         `yaml:"map"`
	Logging      LoggingConfig     `yaml:"logging"`
	Outputs      OutputsConfig     `yaml:"outputs"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Scenario: "paris",
		Simulation: SimulationConfig{
			TickInterval: 5 * time.Second,
			DriftStep:    0.001,
		},
		Interpreter: InterpreterConfig{
			Provider:  "claude",
			Model:     "claude-haiku-4-5-20251001",
			Timeout:   30 * time.Second,
			MaxTokens: 1024,
		},
		Admin: AdminConfig{
			ListenAddr:  ":8080",
			CorsOrigins: []string{"*"},
		},
		Map:     MapConfig{Provider: "google"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Outputs: OutputsConfig{
			GreptimeDatabase:  "public",
			NATSSubjectPrefix: "regard",
			BatchSize:         1,
			FlushInterval:     time.Second,
		},
	}
}

// Load reads the YAML file at configPath, validates it against the CUE schema
// (the embedded one when schemaPath is empty) and applies environment
// overrides. An empty configPath yields defaults plus environment.
func Load(configPath, schemaPath string) (*Config, error) {
	cfg := Default()
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		schema := defaultSchema
		if schemaPath != "" {
			if schema, err = os.ReadFile(schemaPath); err != nil {
				return nil, fmt.Errorf("read schema: %w", err)
			}
		}
		if err := ValidateWithCue(data, schema); err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.Interpreter.APIKey = v
	}
	if v := os.Getenv("REGARD_INTERPRETER_ENDPOINT"); v != "" {
		c.Interpreter.Endpoint = v
	}
	c.Map.APIKey = firstEnv("REGARD_MAP_API_KEY", "GOOGLE_MAPS_API_KEY")
	if v := os.Getenv("TICK_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TICK_INTERVAL: %w", err)
		}
		c.Simulation.TickInterval = d
	}
	if v := os.Getenv("GREPTIMEDB_ENDPOINT"); v != "" {
		c.Outputs.GreptimeEndpoint = v
	}
	if v := os.Getenv("GREPTIMEDB_DATABASE"); v != "" {
		c.Outputs.GreptimeDatabase = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		c.Outputs.NATSURL = v
	}
	return nil
}

// Validate checks value ranges the schema cannot express.
func (c *Config) Validate() error {
	if c.Simulation.TickInterval <= 0 {
		return fmt.Errorf("simulation.tick_interval must be positive")
	}
	if c.Simulation.DriftStep <= 0 {
		return fmt.Errorf("simulation.drift_step must be positive")
	}
	if c.Interpreter.Timeout <= 0 {
		return fmt.Errorf("interpreter.timeout must be positive")
	}
	if c.Interpreter.MaxHistoryPoints < 0 {
		return fmt.Errorf("interpreter.max_history_points must be >= 0")
	}
	if c.Interpreter.Provider == "http" && c.Interpreter.Endpoint == "" {
		return fmt.Errorf("interpreter.endpoint is required for the http provider")
	}
	if c.Admin.ListenAddr == "" {
		return fmt.Errorf("admin.listen_addr must not be empty")
	}
	if c.Outputs.BatchSize < 0 {
		return fmt.Errorf("outputs.batch_size must be >= 0")
	}
	return nil
}

// LoadDotEnv loads the given env files if they exist. Variables already set
// in the environment win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func maskKey(key string) string {
	const visible = 4
	if len(key) <= visible*2 {
		return "***"
	}
	return key[:visible] + "****" + key[len(key)-visible:]
}
