package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// serverConfig is draftd's optional YAML config. Every field has a
// default and the usual env vars override the file.
type serverConfig struct {
	Port string `yaml:"port"`
	NATS struct {
		URL          string `yaml:"url"`
		StreamName   string `yaml:"stream_name"`
		ConsumerName string `yaml:"consumer_name"`
	} `yaml:"nats"`
	WebSocket struct {
		WriteTimeoutSeconds int `yaml:"write_timeout_seconds"`
		ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`
		PingIntervalSeconds int `yaml:"ping_interval_seconds"`
	} `yaml:"websocket"`
}

func loadConfig(path string) (serverConfig, error) {
	var cfg serverConfig
	cfg.Port = "8081"
	cfg.NATS.URL = "nats://localhost:4222"
	cfg.NATS.StreamName = "DRAFT_EVENTS"
	cfg.NATS.ConsumerName = "draft-gateway"

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	if port := os.Getenv("GATEWAY_PORT"); port != "" {
		cfg.Port = port
	}
	if url := os.Getenv("NATS_URL"); url != "" {
		cfg.NATS.URL = url
	}
	return cfg, nil
}
