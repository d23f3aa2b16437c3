package main

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/Numi2/zcash-numi-sdk/internal/tracker"
)

type config struct {
	Rpc      rpcConfig
	Network  string `default:"mainnet"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Metrics  metricsConfig
	Tracker  tracker.Config
}

type rpcConfig struct {
	URL  string `envconfig:"RPC_URL" default:"http://127.0.0.1:8232"`
	User string `envconfig:"RPC_USER"`
	Pass string `envconfig:"RPC_PASS"`
}

type metricsConfig struct {
	Enabled bool   `envconfig:"METRICS_ENABLED" default:"false"`
	Addr    string `envconfig:"METRICS_ADDR" default:":9090"`
}

func newConfig() (config, error) {
	var cfg config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return config{}, fmt.Errorf("failed to process env var: %w", err)
	}
	return cfg, nil
}
