package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fepfitra/mykisah/internal/config"
)

func TestLogOptions(t *testing.T) {
	cfg := config.Config{LogLevel: "warn", LogFormat: "json"}
	assert.Equal(t, "warn", logOptions(cfg, false, false).Level)
	assert.False(t, logOptions(cfg, false, false).Console)

	verbose := logOptions(cfg, true, false)
	assert.Equal(t, "debug", verbose.Level)
	assert.True(t, verbose.Console)

	cfg.LogFormat = "console"
	assert.True(t, logOptions(cfg, false, false).Console)
}

func TestLogOptions_ConsoleModeQuiet(t *testing.T) {
	cfg := config.Config{LogLevel: "info", LogFormat: "json"}
	opts := logOptions(cfg, false, true)
	assert.Equal(t, "warn", opts.Level)
	assert.True(t, opts.Console)

	cfg.LogLevel = "error"
	assert.Equal(t, "error", logOptions(cfg, false, true).Level)

	assert.Equal(t, "debug", logOptions(cfg, true, true).Level)
}

func TestRootCmd_FlagsAndArgs(t *testing.T) {
	cmd := newRootCmd()
	require.NotNil(t, cmd.Flags().Lookup("tui"))
	require.NotNil(t, cmd.Flags().Lookup("verbose"))
	assert.NoError(t, cmd.Args(cmd, []string{"kisah"}))
	assert.Error(t, cmd.Args(cmd, []string{"a", "b"}))

	events, _, err := cmd.Find([]string{"events"})
	require.NoError(t, err)
	for _, name := range []string{"db", "id", "L", "json", "no-payload"} {
		assert.NotNil(t, events.Flags().Lookup(name), name)
	}
}

func TestNewShell_UsesConfig(t *testing.T) {
	cfg := config.Config{
		ShellEnabled:        true,
		ShellPrefix:         "!",
		ShellDenylist:       "reboot",
		ShellTimeoutSeconds: 5,
		ShellMaxOutputBytes: 100,
		ShellMaxOutputLines: 10,
	}
	runner, policy := newShell(cfg, "/tmp/kisah")
	assert.Equal(t, "/tmp/kisah", runner.Dir)
	assert.Equal(t, 10, runner.Limits.MaxLines)
	assert.Equal(t, 100, runner.Limits.MaxBytes)
	assert.True(t, policy.IsDenied("sudo reboot"))
}

func TestOpenAudit_EmptyPathDisables(t *testing.T) {
	recorder, closeFn := openAudit("", nil)
	defer closeFn()
	assert.Nil(t, recorder)
	assert.Nil(t, recorder.Record(nil, "x", nil))
}
