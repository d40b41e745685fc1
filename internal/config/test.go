package config

import "github.com/caarlos0/env/v11"

// TestConfig carries settings for integration tests. Tests that need a real
// journal database skip themselves when the DSN is absent.
type TestConfig struct {
	JournalDSN string `env:"TEST_JOURNAL_DSN,required,notEmpty"`
}

func LoadTest() (TestConfig, error) {
	var cfg TestConfig
	err := env.Parse(&cfg)
	return cfg, err
}
