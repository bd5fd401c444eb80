package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Logging    LoggingConfig    `yaml:"logging"`
	Repository RepositoryConfig `yaml:"repository"`
	Auth       AuthConfig       `yaml:"auth"`
	Timer      TimerConfig      `yaml:"timer"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Host string `yaml:"host"`
}

type DatabaseConfig struct {
	URL            string        `yaml:"url"`
	MaxConnections int           `yaml:"max_connections"`
	MinConnections int           `yaml:"min_connections"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
}

type LoggingConfig struct {
	Development bool `yaml:"development"`
}

type RepositoryConfig struct {
	Type string `yaml:"type"` // "postgres" or "inmemory"
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// TimerConfig controls the tick cadence and the status policies of the
// countdown engine.
type TimerConfig struct {
	TickInterval     time.Duration `yaml:"tick_interval"`
	RolloverInterval time.Duration `yaml:"rollover_interval"`
	// FocusFlushEvery is how many focus increments are accumulated in memory
	// before the ledger is flushed to durable storage.
	FocusFlushEvery int `yaml:"focus_flush_every"`
	// CompleteOnExhaust marks a task COMPLETED when its countdown hits zero.
	// When false (default) the task is paused and flagged exhausted so the
	// rollover sweep can carry it to the next day.
	CompleteOnExhaust bool `yaml:"complete_on_exhaust"`
	// ResetRemainingOnUncomplete restores the full duration when a COMPLETED
	// task is toggled back to PAUSED.
	ResetRemainingOnUncomplete bool `yaml:"reset_remaining_on_uncomplete"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	cfg := Default()
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
		},
		Repository: RepositoryConfig{
			Type: "inmemory",
		},
		Auth: AuthConfig{
			TokenTTL: 365 * 24 * time.Hour,
		},
		Timer: TimerConfig{
			TickInterval:               time.Second,
			RolloverInterval:           time.Minute,
			FocusFlushEvery:            10,
			CompleteOnExhaust:          false,
			ResetRemainingOnUncomplete: true,
		},
	}
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
