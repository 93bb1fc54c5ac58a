package main

import (
	"testing"

	"fjacquet/fintrack/cmd/root"
	"fjacquet/fintrack/internal/logging"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvLogLevel(t *testing.T) {
	tests := []struct {
		value string
		want  logrus.Level
	}{
		{"", logrus.InfoLevel},
		{"debug", logrus.DebugLevel},
		{"WARN", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"verbose", logrus.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("FINTRACK_LOG_LEVEL", tt.value)
			assert.Equal(t, tt.want, envLogLevel())
		})
	}
}

func TestEnvLogLevel_SeedsRootLogger(t *testing.T) {
	t.Setenv("FINTRACK_LOG_LEVEL", "debug")
	logger := logging.NewLogrusAdapter(envLogLevel().String(), "text")

	adapter, ok := logger.(*logging.LogrusAdapter)
	require.True(t, ok)
	assert.Equal(t, logrus.DebugLevel, adapter.Level())

	_, ok = root.Log.(*logging.LogrusAdapter)
	assert.True(t, ok)
}

func TestSubcommandsRegistered(t *testing.T) {
	names := make([]string, 0)
	for _, c := range root.Cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"import", "categorize", "learn", "transaction", "recurring", "rules", "seed", "migrate"} {
		assert.Contains(t, names, want)
	}
}
