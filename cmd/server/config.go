package main

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the server.
type Config struct {
	Addr         string        `envconfig:"ADDR" default:":8080"`
	DBPath       string        `envconfig:"DB_PATH" default:"timecards.db"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout  time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`
}

// LoadConfig reads configuration from TIMECARD_* environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("TIMECARD", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
