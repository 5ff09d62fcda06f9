package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brilflow/internal/dom"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())

	mode, err := cfg.UnreachableMode()
	require.NoError(t, err)
	assert.Equal(t, dom.RejectUnreachable, mode)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
verbosity = 2
workers = 4
output = "json"
color = false

[dominance]
unreachable = "exclude"

[pipeline]
passes = ["lvn", "tdce", "ldce"]
max_rounds = 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Verbosity)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, OutputJSON, cfg.Output)
	assert.False(t, cfg.Color)
	assert.Equal(t, path, cfg.Path)
	assert.Empty(t, cfg.Unknown)

	mode, err := cfg.UnreachableMode()
	require.NoError(t, err)
	assert.Equal(t, dom.ExcludeUnreachable, mode)

	p, err := cfg.NewPipeline()
	require.NoError(t, err)
	assert.Equal(t, 4, p.Workers)
	assert.Equal(t, 3, p.MaxRounds)
	require.Len(t, p.Passes(), 3)
	assert.Equal(t, "tdce", p.Passes()[1].Name())
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	cfg, err := Load(writeConfig(t, "verbosity = 1\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"lvn", "dce"}, cfg.Pipeline.Passes)
	assert.Equal(t, 16, cfg.Pipeline.MaxRounds)
	assert.True(t, cfg.Color)
}

func TestLoadUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
colour = true
[pipeline]
passes = ["dce"]
rounds = 2
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"colour", "pipeline.rounds"}, cfg.Unknown)
	assert.Len(t, cfg.Warnings(), 2)
	assert.Contains(t, cfg.Warnings(), `unknown configuration key "colour"`)
	assert.Contains(t, cfg.Warnings(), `unknown configuration key "pipeline.rounds"`)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"syntax", "verbosity = ", ""},
		{"output", `output = "yaml"`, "output"},
		{"unreachable", "[dominance]\nunreachable = \"ignore\"", "dominance.unreachable"},
		{"pass", "[pipeline]\npasses = [\"gvn\"]", "pipeline.passes"},
		{"rounds", "[pipeline]\nmax_rounds = 0", "pipeline.max_rounds"},
		{"workers", "workers = -1", "workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvVar, "")
	assert.Equal(t, "", Find(dir))

	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte("workers = 1\n"), 0o644))
	assert.Equal(t, path, Find(dir))

	t.Setenv(EnvVar, "/elsewhere/brilflow.toml")
	assert.Equal(t, "/elsewhere/brilflow.toml", Find(dir))
}

func TestString(t *testing.T) {
	s := Default().String()
	assert.Contains(t, s, "max_rounds = 16")
	assert.Contains(t, s, `unreachable = "reject"`)
}
