package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ADDR", "PORT", "SHUTDOWN_TIMEOUT_SECONDS",
		"LOG_LEVEL", "LOG_FORMAT", "FEED_BUFFER",
		"OTEL_SERVICE_NAME", "OTEL_EXPORTER_OTLP_ENDPOINT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, LogConfig{Level: "info", Format: "json"}, cfg.Log)
	assert.Equal(t, 16, cfg.Feed.Buffer)
	assert.Equal(t, "item-service", cfg.Telemetry.ServiceName)
	assert.Empty(t, cfg.Telemetry.Endpoint)
}

func TestLoadServerAddr(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		port    string
		want    string
		wantErr bool
	}{
		{name: "bare port binds loopback", port: "9090", want: "127.0.0.1:9090"},
		{name: "colon port", port: ":9090", want: ":9090"},
		{name: "host and port", port: "0.0.0.0:9090", want: "0.0.0.0:9090"},
		{name: "addr wins over port", addr: "localhost:7000", port: "9090", want: "localhost:7000"},
		{name: "port with space", port: "80 80", wantErr: true},
		{name: "non numeric port", port: "http", wantErr: true},
		{name: "port out of range", port: "70000", wantErr: true},
		{name: "addr with space", addr: "local host:1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("ADDR", tt.addr)
			t.Setenv("PORT", tt.port)

			cfg, err := Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Server.Addr)
		})
	}
}

func TestLoadShutdownTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)

	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "-1")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "soon")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadFeedBuffer(t *testing.T) {
	clearEnv(t)
	t.Setenv("FEED_BUFFER", "64")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Feed.Buffer)

	t.Setenv("FEED_BUFFER", "0")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadLogAndTelemetry(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("OTEL_SERVICE_NAME", "items")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", " http://localhost:4318 ")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, LogConfig{Level: "debug", Format: "console"}, cfg.Log)
	assert.Equal(t, TelemetryConfig{ServiceName: "items", Endpoint: "http://localhost:4318"}, cfg.Telemetry)
}
