package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--env-file", ""))
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigCommand(t *testing.T) {
	out, err := execute(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "max_episode_steps: 5000")
	assert.Contains(t, out, "heli: aw109")
}

func TestScenarioCommand(t *testing.T) {
	out, err := execute(t, "scenario", "-n", "50", "--seed", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "start altitude [ft]")
	assert.Contains(t, out, "sorted start altitudes")
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "exp.yaml")
	require.NoError(t, os.WriteFile(config, []byte(`
episodes: 2
policy: zero
env:
  task: Base
  max_time: 0.1
`), 0o644))

	out, err := execute(t, "run", "--config", config, "--out", dir,
		"--log-level", "warn")
	require.NoError(t, err)
	assert.Contains(t, out, "TimeUp")

	runs, err := filepath.Glob(filepath.Join(dir, "Base-*", "config.yaml"))
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	for _, name := range []string{"return.bin", "length.bin", "outcome.bin"} {
		assert.FileExists(t, filepath.Join(filepath.Dir(runs[0]), name))
	}
}

func TestRunCommandRejectsLogLevel(t *testing.T) {
	_, err := execute(t, "run", "--log-level", "loud")
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), "missing")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("HELIGYM_TEST_KEY=7\n"),
		0o644))
	t.Setenv("HELIGYM_TEST_KEY", "")
	os.Unsetenv("HELIGYM_TEST_KEY")
	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "7", os.Getenv("HELIGYM_TEST_KEY"))
}
