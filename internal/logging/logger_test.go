package logging

import (
	"os"
	"path/filepath"
	"testing"

	"copilot-runtime-function/internal/config"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected log.Level
	}{
		{"debug lowercase", "debug", log.DebugLevel},
		{"debug uppercase", "DEBUG", log.DebugLevel},
		{"verbose", "verbose", log.DebugLevel},
		{"info", "info", log.InfoLevel},
		{"info padded", "  info ", log.InfoLevel},
		{"warn", "warn", log.WarnLevel},
		{"warning mixed case", "Warning", log.WarnLevel},
		{"error", "ERROR", log.ErrorLevel},
		{"quiet", "quiet", log.FatalLevel},
		{"silent", "SILENT", log.FatalLevel},
		{"unknown string", "unknown", log.InfoLevel},
		{"empty string", "", log.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log.SetLevel(log.PanicLevel)

			SetLogLevel(tt.input)

			assert.Equal(t, tt.expected, log.GetLevel(), "SetLogLevel(%q)", tt.input)
		})
	}
}

func TestSetupFormatter(t *testing.T) {
	defer log.SetFormatter(&log.TextFormatter{})

	closer := Setup(config.LoggingConfig{Level: "info", Format: "json"})
	defer closer.Close()

	assert.IsType(t, &log.JSONFormatter{}, log.StandardLogger().Formatter)

	Setup(config.LoggingConfig{Level: "info", Format: "text"})
	assert.IsType(t, &log.TextFormatter{}, log.StandardLogger().Formatter)
}

func TestSetupFileOutput(t *testing.T) {
	defer log.SetOutput(os.Stdout)

	path := filepath.Join(t.TempDir(), "function.log")
	closer := Setup(config.LoggingConfig{Level: "info", Format: "text", File: path})

	log.WithField("component", "test").Info("written to file")

	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}
