package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openarchive/unisearch/internal/config"
)

func TestInitCmd_CreatesConfigAndArchive(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "init", "--root", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "Created")
	assert.FileExists(t, filepath.Join(dir, config.ConfigFileName))
	assert.FileExists(t, filepath.Join(dir, config.DataDirName, "archive.db"))

	cfg, err := config.LoadFromRoot(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Version)
}

func TestInitCmd_RefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "init", "--root", dir)
	require.NoError(t, err)

	_, err = execute(t, "init", "--root", dir)
	require.Error(t, err)

	_, err = execute(t, "init", "--root", dir, "--force")
	require.NoError(t, err)
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version", "--short")

	require.NoError(t, err)
	assert.Contains(t, out, "dev")
}
