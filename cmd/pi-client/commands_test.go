package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

type noopTelemetry struct{}

func (noopTelemetry) TracerProvider() trace.TracerProvider { return tracenoop.NewTracerProvider() }
func (noopTelemetry) MeterProvider() metric.MeterProvider { return metricnoop.NewMeterProvider() }

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand(zap.NewNop(), noopTelemetry{})
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand_Help(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	for _, sub := range []string{"session", "download", "email", "--config"} {
		assert.Contains(t, out, sub)
	}
}

func TestOnceCommands_RequireFile(t *testing.T) {
	for _, sub := range []string{"download", "email"} {
		t.Run(sub, func(t *testing.T) {
			_, err := execute(t, sub)
			require.Error(t, err)
			assert.Contains(t, err.Error(), `"file"`)
		})
	}
}

func TestRootCommand_MissingConfigFile(t *testing.T) {
	_, err := execute(t, "--config", "/nonexistent/pi.yaml", "download", "-f", "order.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file")
}

func TestRootCommand_RejectsArgs(t *testing.T) {
	_, err := execute(t, "extra")
	require.Error(t, err)
}
