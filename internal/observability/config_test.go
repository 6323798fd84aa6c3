package observability

import (
	"testing"

	"github.com/himap/directory/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	cfg := LoadConfig(config.Config{
		Environment:  "production",
		AppVersion:   "1.2.0",
		OTLPEndpoint: " collector:4317 ",
		Observability: config.ObservabilityConfig{
			LogLevel:          "info",
			OtelEnabled:       true,
			OtelSamplingRatio: 3,
		},
	})

	assert.Equal(t, defaultServiceName, cfg.ServiceName)
	assert.Equal(t, "collector:4317", cfg.OtelExporterEndpoint)
	assert.Equal(t, "grpc", cfg.OtelExporterProtocol)
	assert.Equal(t, 0.1, cfg.OtelSamplingRatio)
	assert.False(t, cfg.Debug())
}

func TestDebug(t *testing.T) {
	assert.True(t, Config{LogLevel: "DEBUG", Environment: "production"}.Debug())
	assert.True(t, Config{Environment: "Development"}.Debug())
	assert.False(t, Config{Environment: "staging"}.Debug())
}
