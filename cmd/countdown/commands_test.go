package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/countdown/internal/config"
)

func executeCommand(cmd *cobra.Command, args ...string) (string, error) {
	cmd.SetArgs(args)
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	err := cmd.Execute()
	return buf.String(), err
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestThemesCommandListsRegisteredThemes(t *testing.T) {
	out, err := executeCommand(newRootCmd(), "themes")
	require.NoError(t, err)
	require.Contains(t, out, "grid (default)")
	require.Contains(t, out, "minimal")
}

func TestThemesCommandJSON(t *testing.T) {
	out, err := executeCommand(newRootCmd(), "themes", "--json")
	require.NoError(t, err)

	var payload themesJSONPayload
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	require.Equal(t, len(payload.Themes), payload.Count)

	ids := make(map[string]bool)
	for _, theme := range payload.Themes {
		ids[theme.ID] = theme.Default
	}
	require.Contains(t, ids, "grid")
	require.Contains(t, ids, "minimal")
	require.True(t, ids["grid"])
	require.False(t, ids["minimal"])
}

func TestCheckCommand(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		path := writeConfig(t, "countdown.yaml", `mode: wall-clock
target: "2030-01-01T00:00:00"
timezone: America/New_York
theme: minimal
`)
		out, err := executeCommand(newRootCmd(), "check", "--config", path)
		require.NoError(t, err)
		require.Contains(t, out, "Configuration is valid")
		require.Contains(t, out, "America/New_York")
		require.Contains(t, out, "theme:    minimal")
	})

	t.Run("unknown theme falls back", func(t *testing.T) {
		path := writeConfig(t, "countdown.toml", `mode = "timer"
duration = "10m"
timezone = "UTC"
theme = "aurora"
`)
		out, err := executeCommand(newRootCmd(), "check", "-c", path)
		require.NoError(t, err)
		require.Contains(t, out, "falls back to grid")
	})

	t.Run("invalid timezone", func(t *testing.T) {
		path := writeConfig(t, "countdown.yaml", "mode: timer\nduration: 1m\ntimezone: Mars/Olympus\n")
		_, err := executeCommand(newRootCmd(), "check", "--config", path)
		require.Error(t, err)
		require.Contains(t, err.Error(), "timezone")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := executeCommand(newRootCmd(), "check", "--config", "/path/does/not/exist.yaml")
		require.Error(t, err)
		require.Contains(t, err.Error(), "does not exist")
	})

	t.Run("directory", func(t *testing.T) {
		_, err := executeCommand(newRootCmd(), "check", "--config", t.TempDir())
		require.Error(t, err)
		require.Contains(t, err.Error(), "is a directory")
	})
}

func TestInitCommandWritesLoadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "countdown.yaml")

	out, err := executeCommand(newRootCmd(), "init", path)
	require.NoError(t, err)
	require.Contains(t, out, "Wrote")

	cfg, err := config.ParseConfig(path)
	require.NoError(t, err)
	require.Equal(t, config.DefaultConfig(), cfg)

	_, err = executeCommand(newRootCmd(), "init", path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "already exists")

	_, err = executeCommand(newRootCmd(), "init", "--force", path)
	require.NoError(t, err)
}

func TestRootWithoutSubcommandRunsCountdown(t *testing.T) {
	original := runCmdRunner
	t.Cleanup(func() { runCmdRunner = original })

	var gotConfig string
	runCmdRunner = func(cmd *cobra.Command, flags *rootFlags, opts *runOptions) error {
		gotConfig = flags.configPath
		return nil
	}

	_, err := executeCommand(newRootCmd(), "--config", "countdown.yaml")
	require.NoError(t, err)
	require.Equal(t, "countdown.yaml", gotConfig)
}

func TestRunPlainPastTargetPrintsMessage(t *testing.T) {
	out, err := executeCommand(newRootCmd(), "run", "--plain",
		"--mode", "absolute",
		"--target", "2000-01-01T00:00:00Z",
		"--message", "Long gone",
	)
	require.NoError(t, err)
	require.Contains(t, out, "Long gone")
}

func TestRunPlainTimerCountsDownAndCompletes(t *testing.T) {
	start := time.Now()
	out, err := executeCommand(newRootCmd(), "run", "--plain",
		"--mode", "timer",
		"--duration", "1s",
		"--theme", "minimal",
		"--message", "Done!",
	)
	require.NoError(t, err)
	require.Contains(t, out, "00:00:00:01")
	require.Contains(t, out, "Done!")
	require.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)
}

func TestRunRejectsInvalidOverrides(t *testing.T) {
	_, err := executeCommand(newRootCmd(), "run", "--plain", "--timezone", "Mars/Olympus")
	require.Error(t, err)
	require.Contains(t, err.Error(), "timezone")

	_, err = executeCommand(newRootCmd(), "run", "--plain", "--mode", "timer", "--duration", "0s")
	require.Error(t, err)
	require.Contains(t, err.Error(), "duration")
}

func TestValidateConfigPath(t *testing.T) {
	t.Parallel()

	require.NoError(t, validateConfigPath(""))
	require.NoError(t, validateConfigPath(writeConfig(t, "countdown.yml", "mode: timer\n")))

	err := validateConfigPath(writeConfig(t, "countdown.json", "{}"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "must be .yaml, .yml or .toml")
}
