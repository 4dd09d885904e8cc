package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	ServerURL           string
	LeaderboardURL      string
	ReconnectDelay      time.Duration
	ReconnectBackoff    bool
	ReconnectMaxDelay   time.Duration
	LeaderboardInterval time.Duration
	ErrorTTL            time.Duration
	RedisURL            string
	RedisPassword       string
	AccessToken         string
	Username            string
	APIAddr             string
	APIToken            string
	AllowedOrigins      []string
	LogLevel            string
	LogFormat           string
}

var AppConfig *Config

func LoadConfig() *Config {
	serverURL := GetEnv("SERVER_URL", "ws://localhost:8080/ws")
	leaderboardURL := GetEnv("LEADERBOARD_URL", "http://localhost:8080/api/leaderboard")

	// Reconnect policy
	reconnectDelayMs := GetEnvAsInt("RECONNECT_DELAY_MS", 3000)
	reconnectMaxDelayMs := GetEnvAsInt("RECONNECT_MAX_DELAY_MS", 30000)
	reconnectBackoff := GetEnvAsBool("RECONNECT_BACKOFF", false)

	leaderboardIntervalSec := GetEnvAsInt("LEADERBOARD_INTERVAL_SECONDS", 10)
	errorTTLSec := GetEnvAsInt("ERROR_TTL_SECONDS", 5)

	// Local control API & CORS
	apiAddr := GetEnv("API_ADDR", "")
	allowedOrigins := []string{"http://localhost:5173"}
	if extras := GetEnv("ALLOWED_ORIGINS", ""); extras != "" {
		for _, origin := range strings.Split(extras, ",") {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				allowedOrigins = append(allowedOrigins, trimmed)
			}
		}
	}

	AppConfig = &Config{
		ServerURL:           serverURL,
		LeaderboardURL:      leaderboardURL,
		ReconnectDelay:      time.Duration(reconnectDelayMs) * time.Millisecond,
		ReconnectBackoff:    reconnectBackoff,
		ReconnectMaxDelay:   time.Duration(reconnectMaxDelayMs) * time.Millisecond,
		LeaderboardInterval: time.Duration(leaderboardIntervalSec) * time.Second,
		ErrorTTL:            time.Duration(errorTTLSec) * time.Second,
		RedisURL:            GetEnv("REDIS_URL", ""),
		RedisPassword:       GetEnv("REDIS_PASSWORD", ""),
		AccessToken:         GetEnv("ACCESS_TOKEN", ""),
		Username:            GetEnv("USERNAME", ""),
		APIAddr:             apiAddr,
		APIToken:            GetEnv("API_TOKEN", ""),
		AllowedOrigins:      allowedOrigins,
		LogLevel:            GetEnv("LOG_LEVEL", "info"),
		LogFormat:           GetEnv("LOG_FORMAT", "console"),
	}

	return AppConfig
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil || value < 0 {
		log.Warn().Str("key", key).Str("value", valueStr).Int("default", defaultValue).
			Msg("invalid integer value, using default")
		return defaultValue
	}
	return value
}

func GetEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Bool("default", defaultValue).
			Msg("invalid boolean value, using default")
		return defaultValue
	}
	return value
}
