package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// setupTestLogger creates a buffer-backed StandardLogger so assertions can
// read what was written.
func setupTestLogger(level, env string) (*StandardLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	var handler slog.Handler
	if env == "development" {
		handler = slog.NewTextHandler(&buf, &slog.HandlerOptions{
			Level: getSlogLevel(level),
		})
	} else {
		handler = slog.NewJSONHandler(&buf, &slog.HandlerOptions{
			Level: getSlogLevel(level),
		})
	}

	std := NewStandardLogger(level, env)
	std.SetLogger(&fallbackLogger{logger: slog.New(handler)})
	return std, &buf
}

func TestNewStandardLogger(t *testing.T) {
	logger := NewStandardLogger("info", "development")
	require.NotNil(t, logger)
	require.NotNil(t, logger.Logger())
}

func TestStandardLogger_LogStartup(t *testing.T) {
	logger, buf := setupTestLogger("info", "development")

	logger.LogStartup("spurio", "1.0.0", 8080)

	out := buf.String()
	assert.Contains(t, out, "Service starting")
	assert.Contains(t, out, "event=startup")
	assert.Contains(t, out, "service=spurio")
	assert.Contains(t, out, "port=8080")
}

func TestStandardLogger_LogShutdown(t *testing.T) {
	logger, buf := setupTestLogger("info", "development")

	logger.LogShutdown("spurio", "signal received")

	out := buf.String()
	assert.Contains(t, out, "Service shutting down")
	assert.Contains(t, out, "event=shutdown")
	assert.Contains(t, out, `reason="signal received"`)
}

func TestStandardLogger_LogAPIRequest(t *testing.T) {
	logger, buf := setupTestLogger("info", "production")

	logger.LogAPIRequest("GET", "/api/correlation/random", 200, 125, "192.0.2.10")

	out := buf.String()
	assert.Contains(t, out, `"event":"api_request"`)
	assert.Contains(t, out, `"method":"GET"`)
	assert.Contains(t, out, `"path":"/api/correlation/random"`)
	assert.Contains(t, out, `"status_code":200`)
	assert.Contains(t, out, `"client_ip":"192.0.2.10"`)
}

func TestStandardLogger_LogDiscovery(t *testing.T) {
	logger, buf := setupTestLogger("info", "production")

	logger.LogDiscovery("3f6f48b0-1f2d-4c17-9a61-1f9f4cf0a001", 0.842, "pearson")

	out := buf.String()
	assert.Contains(t, out, `"event":"discovery"`)
	assert.Contains(t, out, `"correlation_id":"3f6f48b0-1f2d-4c17-9a61-1f9f4cf0a001"`)
	assert.Contains(t, out, `"coefficient":0.842`)
}

func TestStandardLogger_LogResourceStats(t *testing.T) {
	logger, buf := setupTestLogger("info", "production")

	logger.LogResourceStats("spurio", map[string]interface{}{"cpu_percent": 12.5})

	out := buf.String()
	assert.Contains(t, out, `"event":"resource_stats"`)
	assert.Contains(t, out, "cpu_percent")
}

func TestStandardLogger_LogCacheOperation_RespectsLevel(t *testing.T) {
	// Cache operations log at debug and stay silent on an info logger.
	logger, buf := setupTestLogger("info", "production")
	logger.LogCacheOperation("get", "correlation:abc", true, 3)
	assert.Empty(t, buf.String())

	logger, buf = setupTestLogger("debug", "production")
	logger.LogCacheOperation("get", "correlation:abc", true, 3)

	out := buf.String()
	assert.Contains(t, out, `"event":"cache_operation"`)
	assert.Contains(t, out, `"hit":true`)
}

func TestStandardLogger_WithContext(t *testing.T) {
	logger, buf := setupTestLogger("info", "production")

	logger.WithComponent("engine").Info("message one")
	logger.WithOperation("generate").Info("message two")
	logger.WithRequestID("req-9").Info("message three")
	logger.WithCorrelationID("corr-1").Info("message four")
	logger.WithDataset("Fog Machine Rentals").Info("message five")
	logger.WithError(assert.AnError).Info("message six")
	logger.WithMetrics(map[string]interface{}{"pool_size": 24}).Info("message seven")

	out := buf.String()
	assert.Contains(t, out, `"component":"engine"`)
	assert.Contains(t, out, `"operation":"generate"`)
	assert.Contains(t, out, `"request_id":"req-9"`)
	assert.Contains(t, out, `"correlation_id":"corr-1"`)
	assert.Contains(t, out, `"dataset":"Fog Machine Rentals"`)
	assert.Contains(t, out, assert.AnError.Error())
	assert.Contains(t, out, "pool_size")
}

func TestGetSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, getSlogLevel("debug"))
	assert.Equal(t, slog.LevelInfo, getSlogLevel("info"))
	assert.Equal(t, slog.LevelWarn, getSlogLevel("warn"))
	assert.Equal(t, slog.LevelWarn, getSlogLevel("WARNING"))
	assert.Equal(t, slog.LevelError, getSlogLevel("error"))
	assert.Equal(t, slog.LevelInfo, getSlogLevel("unknown"))
}

func TestParseLogrusLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLogrusLevel("debug"))
	assert.Equal(t, logrus.InfoLevel, ParseLogrusLevel("info"))
	assert.Equal(t, logrus.WarnLevel, ParseLogrusLevel("warning"))
	assert.Equal(t, logrus.ErrorLevel, ParseLogrusLevel("ERROR"))
	assert.Equal(t, logrus.InfoLevel, ParseLogrusLevel(""))
}

func TestNewOTLPLogger_Disabled(t *testing.T) {
	logger, err := NewOTLPLogger(OTLPConfig{Enabled: false, LogLevel: "info"})
	require.NoError(t, err)
	require.NotNil(t, logger)
	require.NotNil(t, logger.Logger())
	assert.NoError(t, logger.Shutdown(context.Background()))
}

func TestNewOTLPLogger_ConstructsWithoutCollector(t *testing.T) {
	// The OTLP HTTP exporter does not dial at construction.
	logger, err := NewOTLPLogger(OTLPConfig{
		Enabled:        true,
		Endpoint:       "localhost:4318",
		Insecure:       true,
		ServiceName:    "spurio",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		LogLevel:       "info",
	})
	require.NoError(t, err)
	require.NotNil(t, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = logger.Shutdown(ctx)
}

func TestLogEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		config   OTLPConfig
		hostport string
		insecure bool
		wantErr  bool
	}{
		{"empty defaults to localhost", OTLPConfig{Insecure: true}, "localhost:4318", true, false},
		{"bare hostport keeps flag", OTLPConfig{Endpoint: "collector:4318", Insecure: false}, "collector:4318", false, false},
		{"http url is insecure", OTLPConfig{Endpoint: "http://collector:4318"}, "collector:4318", true, false},
		{"https url is secure", OTLPConfig{Endpoint: "https://collector:4318/", Insecure: true}, "collector:4318", false, false},
		{"garbage url errors", OTLPConfig{Endpoint: "://bad"}, "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hostport, insecure, err := logEndpoint(tt.config)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.hostport, hostport)
			assert.Equal(t, tt.insecure, insecure)
		})
	}
}

func TestOTLPHandler_Enabled(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	handler := NewOTLPHandler(provider.Logger("test"), slog.LevelWarn)

	ctx := context.Background()
	assert.False(t, handler.Enabled(ctx, slog.LevelDebug))
	assert.False(t, handler.Enabled(ctx, slog.LevelInfo))
	assert.True(t, handler.Enabled(ctx, slog.LevelWarn))
	assert.True(t, handler.Enabled(ctx, slog.LevelError))
}

func TestOTLPHandler_WithAttrsAndGroup(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	handler := NewOTLPHandler(provider.Logger("test"), slog.LevelDebug)

	withAttrs, ok := handler.WithAttrs([]slog.Attr{slog.String("component", "api")}).(*OTLPHandler)
	require.True(t, ok)
	assert.Len(t, withAttrs.attrs, 1)
	// Base handler stays untouched.
	assert.Empty(t, handler.attrs)

	grouped, ok := withAttrs.WithGroup("request").(*OTLPHandler)
	require.True(t, ok)
	assert.Equal(t, "request.id", grouped.qualify("id"))

	// Emitting through a provider without processors must not panic.
	logger := slog.New(grouped)
	logger.Info("handled", "id", "req-1")
}
