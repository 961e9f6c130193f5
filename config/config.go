// Package config loads worker configuration from the environment and an
// optional config file.
package config

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/spf13/viper"
)

// Config holds everything the worker needs to know about itself and its
// coordinator. The match parameters themselves arrive with the task.
type Config struct {
	// CoordinatorURL is the base URL of the test coordinator.
	CoordinatorURL string `mapstructure:"coordinator_url"`

	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`

	// UniqueKey distinguishes this worker's artifacts (pgn output) from
	// other workers sharing a directory.
	UniqueKey string `mapstructure:"unique_key"`

	// Concurrency is the total number of CPUs to give the match runner.
	Concurrency int `mapstructure:"concurrency"`

	// TestingDir holds the engine binaries, books and match-runner binary
	// staged by the asset/build layers.
	TestingDir string `mapstructure:"testing_dir"`

	// MatchRunner is the command used to launch the match runner. It may
	// carry arguments ("wine cutechess-cli.exe"); shell-style quoting is
	// honored.
	MatchRunner string `mapstructure:"match_runner"`
}

// Load reads configuration from CAIRN_* environment variables and, if
// present, a worker.yaml in the current directory.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("cairn")
	v.AutomaticEnv()

	v.SetDefault("coordinator_url", "http://localhost:6543")
	v.SetDefault("username", "")
	v.SetDefault("password", "")
	v.SetDefault("unique_key", "")
	v.SetDefault("concurrency", runtime.NumCPU()-1)
	v.SetDefault("testing_dir", "testing")
	v.SetDefault("match_runner", "cutechess-cli")

	v.SetConfigName("worker")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &cfg, nil
}
