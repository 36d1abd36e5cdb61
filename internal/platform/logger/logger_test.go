package logger_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/phrazzld/taskman-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
)

func TestFromContextOrDefault(t *testing.T) {
	defaultLogger := slog.Default()
	stored := slog.Default().With("component", "test")

	tests := []struct {
		name string
		ctx  context.Context
		want *slog.Logger
	}{
		{
			name: "logger present in context",
			ctx:  logger.WithLogger(context.Background(), stored),
			want: stored,
		},
		{
			name: "no logger in context",
			ctx:  context.Background(),
			want: defaultLogger,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := logger.FromContextOrDefault(tt.ctx, defaultLogger)
			assert.Same(t, tt.want, result)
		})
	}
}

func TestFromContext(t *testing.T) {
	stored := slog.Default().With("component", "test")
	ctx := logger.WithLogger(context.Background(), stored)
	assert.Same(t, stored, logger.FromContext(ctx))

	// Falls back to the process default when nothing is stored.
	assert.NotNil(t, logger.FromContext(context.Background()))
}

func TestSetup(t *testing.T) {
	tests := []struct {
		name  string
		level string
	}{
		{"debug level", "debug"},
		{"info level", "info"},
		{"warn level", "warn"},
		{"error level", "error"},
		{"invalid level falls back to info", "verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := logger.Setup(tt.level)
			assert.NotNil(t, log)
			assert.Same(t, log, slog.Default())
		})
	}
}
