package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHost     = "127.0.0.1"
	defaultPort     = "8080"
	defaultBuffer   = 16
	defaultShutdown = 10 * time.Second
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Feed      FeedConfig
	Telemetry TelemetryConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	feed, err := loadFeedConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: server,
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
		Feed: feed,
		Telemetry: TelemetryConfig{
			ServiceName: getEnvOrDefault("OTEL_SERVICE_NAME", "item-service"),
			Endpoint:    strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		},
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// LogConfig selects the zap logger level and encoding.
type LogConfig struct {
	Level  string
	Format string
}

// FeedConfig sizes the per-subscriber event queue.
type FeedConfig struct {
	Buffer int
}

// TelemetryConfig controls OpenTelemetry export. An empty Endpoint keeps
// the no-op providers.
type TelemetryConfig struct {
	ServiceName string
	Endpoint    string
}

// loadServerConfig 解析服务器监听地址。ADDR wins over PORT; a bare port
// binds on the loopback interface.
func loadServerConfig() (ServerConfig, error) {
	timeout := defaultShutdown
	seconds, err := parseOptionalIntEnv("SHUTDOWN_TIMEOUT_SECONDS")
	if err != nil {
		return ServerConfig{}, err
	}
	if seconds != nil {
		if *seconds < 0 {
			return ServerConfig{}, fmt.Errorf("invalid SHUTDOWN_TIMEOUT_SECONDS value %d: must not be negative", *seconds)
		}
		timeout = time.Duration(*seconds) * time.Second
	}

	if addr := strings.TrimSpace(os.Getenv("ADDR")); addr != "" {
		if strings.Contains(addr, " ") {
			return ServerConfig{}, fmt.Errorf("invalid ADDR value: %q", addr)
		}
		return ServerConfig{Addr: addr, ShutdownTimeout: timeout}, nil
	}

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = defaultPort
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port, ShutdownTimeout: timeout}, nil
	}

	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid PORT value %q: %w", port, err)
	}

	return ServerConfig{Addr: defaultHost + ":" + port, ShutdownTimeout: timeout}, nil
}

func loadFeedConfig() (FeedConfig, error) {
	buffer, err := parseOptionalIntEnv("FEED_BUFFER")
	if err != nil {
		return FeedConfig{}, err
	}
	if buffer == nil {
		return FeedConfig{Buffer: defaultBuffer}, nil
	}
	if *buffer < 1 {
		return FeedConfig{}, fmt.Errorf("invalid FEED_BUFFER value %d: must be at least 1", *buffer)
	}
	return FeedConfig{Buffer: *buffer}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
