package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the base server configuration.
type Config struct {
	Host          string
	Port          string
	SQLiteDBPath  string
	AllowTestMode bool

	JWTSecret                string
	JWTAccessTokenExpirySec  int
	JWTRefreshTokenExpirySec int

	// SoundbarsFile is an optional YAML file of soundbars to register at
	// startup. There is no network discovery: every device is registered
	// with a known host and port.
	SoundbarsFile string

	// DefaultSoundbarPort is used when a registration omits the port.
	DefaultSoundbarPort int

	ConnectTimeoutMs int

	// MQTT state publishing; disabled when the broker URL is empty.
	MQTTBrokerURL   string
	MQTTClientID    string
	MQTTTopicPrefix string

	// Device event log retention.
	EventRetentionDays int
	EventPruneSchedule string
}

// Load reads configuration from environment variables with defaults.
func Load() (Config, error) {
	cfg := Config{
		Host:                     envString("HOST", "0.0.0.0"),
		Port:                     envString("PORT", "9100"),
		SQLiteDBPath:             envString("SQLITE_DB_PATH", "./data/soundbar-hub.db"),
		AllowTestMode:            envBool("ALLOW_TEST_MODE", false),
		JWTSecret:                envString("JWT_SECRET", ""),
		JWTAccessTokenExpirySec:  envInt("JWT_ACCESS_TOKEN_EXPIRY", 3600),
		JWTRefreshTokenExpirySec: envInt("JWT_REFRESH_TOKEN_EXPIRY", 2592000),
		SoundbarsFile:            envString("SOUNDBARS_FILE", ""),
		DefaultSoundbarPort:      envInt("SOUNDBAR_PORT", 9741),
		ConnectTimeoutMs:         envInt("SOUNDBAR_CONNECT_TIMEOUT_MS", 10000),
		MQTTBrokerURL:            envString("MQTT_BROKER_URL", ""),
		MQTTClientID:             envString("MQTT_CLIENT_ID", "soundbar-hub"),
		MQTTTopicPrefix:          envString("MQTT_TOPIC_PREFIX", "soundbarhub"),
		EventRetentionDays:       envInt("EVENT_RETENTION_DAYS", 30),
		EventPruneSchedule:       envString("EVENT_PRUNE_SCHEDULE", "@hourly"),
	}

	if len(strings.TrimSpace(cfg.JWTSecret)) < 32 {
		return Config{}, fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}

	return cfg, nil
}

func envString(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func envInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return strings.EqualFold(val, "true")
}
