package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	API struct {
		BaseURL   string `yaml:"base_url"`
		WSBaseURL string `yaml:"ws_base_url"`
	} `yaml:"api"`
	Room struct {
		PingIntervalMs   int `yaml:"ping_interval_ms"`
		PongDeadlineMs   int `yaml:"pong_deadline_ms"`
		BaseDelayMs      int `yaml:"base_delay_ms"`
		MaxDelayMs       int `yaml:"max_delay_ms"`
		CountdownGraceMs int `yaml:"countdown_grace_ms"`
		MaxRetries       int `yaml:"max_retries"`
	} `yaml:"room"`
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

func millis(ms int, fallback time.Duration) time.Duration {
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
