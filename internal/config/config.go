package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	// Broker connection
	BrokerHost            string
	BrokerPort            int
	ConnectTimeout        time.Duration
	ReconnectInterval     time.Duration
	CAFile                string
	TLSInsecureSkipVerify bool

	// Local control API
	ControlAddr string

	// Secret store
	SecretsFile string

	// Chunking
	ChunkMinSize int
	ChunkMaxSize int

	// Extraction
	ExtractTimeout time.Duration

	// Connect on startup when an identity is present
	AutoConnect bool
}

func Load() Config {
	cfg := Config{
		BrokerHost:            os.Getenv("BROKER_HOST"),
		BrokerPort:            envInt("BROKER_PORT", 8883),
		ConnectTimeout:        envDuration("MQTT_CONNECT_TIMEOUT", 4*time.Second),
		ReconnectInterval:     envDuration("MQTT_RECONNECT_INTERVAL", 1*time.Second),
		CAFile:                os.Getenv("MQTT_CA_FILE"),
		TLSInsecureSkipVerify: envBool("MQTT_INSECURE", false),

		ControlAddr: envOr("CONTROL_ADDR", "127.0.0.1:8090"),

		SecretsFile: envOr("SECRETS_FILE", defaultSecretsFile()),

		ChunkMinSize: envInt("CHUNK_MIN_SIZE", 800),
		ChunkMaxSize: envInt("CHUNK_MAX_SIZE", 2000),

		ExtractTimeout: envDuration("EXTRACT_TIMEOUT", 2*time.Minute),

		AutoConnect: envBool("AUTO_CONNECT", true),
	}

	if cfg.BrokerPort <= 0 {
		cfg.BrokerPort = 8883
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 4 * time.Second
	}
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = 1 * time.Second
	}
	if cfg.ChunkMinSize <= 0 {
		cfg.ChunkMinSize = 800
	}
	if cfg.ChunkMaxSize <= cfg.ChunkMinSize {
		cfg.ChunkMaxSize = cfg.ChunkMinSize + 1200
	}
	if cfg.ExtractTimeout <= 0 {
		cfg.ExtractTimeout = 2 * time.Minute
	}

	return cfg
}

func (c Config) Validate() error {
	if c.BrokerHost == "" {
		return fmt.Errorf("BROKER_HOST is required")
	}
	if c.ControlAddr == "" {
		return fmt.Errorf("CONTROL_ADDR is required")
	}
	return nil
}

func defaultSecretsFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "secrets.json"
	}
	return filepath.Join(dir, "syncagent", "secrets.json")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
