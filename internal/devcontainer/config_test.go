package devcontainer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/pyfmt/internal/model"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const imageConfig = `{
  // Python dev container
  "name": "octodns-bunny",
  "image": "mcr.microsoft.com/devcontainers/python:3.12",
  "containerEnv": {
    "PYTHONDONTWRITEBYTECODE": "1",
    "BLACK_CACHE_DIR": "/tmp/black",
  },
  "forwardPorts": [8000],
}`

func TestLoadConfig_Image(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".devcontainer", "devcontainer.json")
	writeFile(t, path, imageConfig)

	raw, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "octodns-bunny", raw.Name)
	assert.False(t, raw.BuildsImage())
	assert.Equal(t, "mcr.microsoft.com/devcontainers/python:3.12", raw.UsableImage())
	assert.Equal(t, []string{"BLACK_CACHE_DIR=/tmp/black", "PYTHONDONTWRITEBYTECODE=1"}, raw.Env())
}

func TestLoadConfig_BuildsImage(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "dockerfile",
			content: `{"name": "x", "image": "ignored", "build": {"dockerfile": "Dockerfile"}}`,
		},
		{
			name:    "compose single file",
			content: `{"name": "x", "dockerComposeFile": "docker-compose.yml", "service": "app"}`,
		},
		{
			name:    "compose file list",
			content: `{"name": "x", "dockerComposeFile": ["a.yml", "b.yml"], "service": "app"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "devcontainer.json")
			writeFile(t, path, tt.content)

			raw, err := LoadConfig(path)
			require.NoError(t, err)
			assert.True(t, raw.BuildsImage())
			assert.Empty(t, raw.UsableImage())
		})
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitConfigError, cliErr.Code)

	bad := filepath.Join(dir, "bad.json")
	writeFile(t, bad, `{"image": `)
	_, err = LoadConfig(bad)
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitConfigError, cliErr.Code)
}

func TestFind(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		assert.Empty(t, Find(t.TempDir()))
	})

	t.Run("root file", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, ".devcontainer.json"), imageConfig)
		assert.Equal(t, filepath.Join(dir, ".devcontainer.json"), Find(dir))
	})

	t.Run("directory wins", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, ".devcontainer.json"), imageConfig)
		writeFile(t, filepath.Join(dir, ".devcontainer", "devcontainer.json"), imageConfig)
		assert.Equal(t, filepath.Join(dir, ".devcontainer", "devcontainer.json"), Find(dir))
	})
}

func TestLookup(t *testing.T) {
	raw, err := Lookup(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, raw)
	assert.Empty(t, raw.UsableImage(), "nil config is usable")
	assert.Nil(t, raw.Env())
}
