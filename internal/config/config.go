package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Session backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config aggregates every service setting.
type Config struct {
	Server  ServerConfig
	Session SessionConfig
	Engine  EngineConfig
	Stream  StreamConfig
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

// SessionConfig tunes conversation retention.
type SessionConfig struct {
	TTL           time.Duration
	MaxMessages   int
	SweepInterval time.Duration
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// EngineConfig describes the analytics engine subprocess.
type EngineConfig struct {
	Python       string
	Script       string
	Timeout      time.Duration
	HistoryLimit int
}

// StreamConfig tunes incremental delivery.
type StreamConfig struct {
	ChunkDelay time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	sess, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	eng, err := loadEngineConfig()
	if err != nil {
		return nil, err
	}

	delayMs, err := parseIntEnv("STREAM_CHUNK_DELAY_MS", 30)
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		Session: sess,
		Engine:  eng,
		Stream:  StreamConfig{ChunkDelay: time.Duration(delayMs) * time.Millisecond},
	}, nil
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" verbatim.
		return ServerConfig{Addr: port}, nil
	}
	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}
	return ServerConfig{Addr: ":" + port}, nil
}

func loadSessionConfig() (SessionConfig, error) {
	ttlMinutes, err := parseIntEnv("SESSION_TTL_MINUTES", 30)
	if err != nil {
		return SessionConfig{}, err
	}

	maxMessages, err := parseIntEnv("SESSION_MAX_MESSAGES", 20)
	if err != nil {
		return SessionConfig{}, err
	}

	sweepMinutes, err := parseIntEnv("SESSION_SWEEP_INTERVAL_MINUTES", 5)
	if err != nil {
		return SessionConfig{}, err
	}

	backend := strings.ToLower(getEnvOrDefault("SESSION_BACKEND", BackendMemory))
	if backend != BackendMemory && backend != BackendRedis {
		return SessionConfig{}, fmt.Errorf("invalid SESSION_BACKEND value: %q", backend)
	}

	redisDB, err := parseIntEnv("REDIS_DB", 0)
	if err != nil {
		return SessionConfig{}, err
	}

	return SessionConfig{
		TTL:           time.Duration(ttlMinutes) * time.Minute,
		MaxMessages:   maxMessages,
		SweepInterval: time.Duration(sweepMinutes) * time.Minute,
		Backend:       backend,
		RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: strings.TrimSpace(os.Getenv("REDIS_PASSWORD")),
		RedisDB:       redisDB,
	}, nil
}

func loadEngineConfig() (EngineConfig, error) {
	timeoutSeconds, err := parseIntEnv("ENGINE_TIMEOUT_SECONDS", 60)
	if err != nil {
		return EngineConfig{}, err
	}

	historyLimit, err := parseIntEnv("ENGINE_HISTORY_LIMIT", 10)
	if err != nil {
		return EngineConfig{}, err
	}

	return EngineConfig{
		Python:       getEnvOrDefault("ENGINE_PYTHON", "python3"),
		Script:       getEnvOrDefault("ENGINE_SCRIPT", "langgraph/runner.py"),
		Timeout:      time.Duration(timeoutSeconds) * time.Second,
		HistoryLimit: historyLimit,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}
