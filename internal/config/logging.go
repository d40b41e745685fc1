package config

import "github.com/caarlos0/env/v11"

// LogConfig controls the node's structured log output. DetailedLogging on
// ServerConfig lowers the effective level to debug regardless of Level, which
// mirrors how operators flip verbose logging on a single fleet process.
type LogConfig struct {
	Level       string `env:"LOG_LEVEL" envDefault:"info"`
	Pretty      bool   `env:"LOG_PRETTY" envDefault:"false"`
	SampleEvery int    `env:"LOG_SAMPLE_EVERY" envDefault:"0"`
	File        string `env:"LOG_FILE"`
	MaxMB       int    `env:"LOG_MAX_MB" envDefault:"10"`
}

func LoadLog() (LogConfig, error) {
	var cfg LogConfig
	err := env.Parse(&cfg)
	return cfg, err
}
