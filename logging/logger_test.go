package logging

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_WithFile(t *testing.T) {
	t.Cleanup(func() { Logger = nil })
	file := filepath.Join(t.TempDir(), "logs", "quest.log")

	err := Init(Config{Level: "info", File: file, Quiet: true})
	require.NoError(t, err)
	require.NotNil(t, Logger)

	Info("ledger created", "child", "kid-1")

	_, statErr := os.Stat(file)
	assert.NoError(t, statErr, "log file written")
	data, _ := os.ReadFile(file)
	assert.Contains(t, string(data), "ledger created")
}

func TestInit_DebugLevel(t *testing.T) {
	t.Cleanup(func() { Logger = nil })

	require.NoError(t, Init(Config{Level: "debug"}))

	assert.Equal(t, log.DebugLevel, Logger.GetLevel())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, log.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, log.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, log.ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, log.InfoLevel, ParseLevel(""))
	assert.Equal(t, log.InfoLevel, ParseLevel("verbose"))
}

func TestHelpers_WithoutInit(t *testing.T) {
	Logger = nil

	assert.NotPanics(t, func() {
		Debug("debug")
		Info("info")
		Warn("warn")
		Error("error")
	})
	assert.Equal(t, os.Stderr, StdWriter())
}

func TestStdLogger(t *testing.T) {
	Logger = nil
	assert.Equal(t, io.Discard, StdLogger().Writer())

	var buf bytes.Buffer
	Logger = log.NewWithOptions(&buf, log.Options{Level: log.InfoLevel})
	defer func() { Logger = nil }()

	StdLogger().Print("GET /api/children 200")
	assert.Contains(t, buf.String(), "GET /api/children 200")
}
