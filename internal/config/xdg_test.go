package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXDGConfigPaths(t *testing.T) {
	dirs := NewXDGDirsWithFilesystem(afero.NewMemMapFs())

	paths := dirs.GetConfigPaths("config.json")
	require.Len(t, paths, 1+len(xdg.ConfigDirs))
	assert.Equal(t, filepath.Join(xdg.ConfigHome, "waveseek", "config.json"), paths[0])
	for _, p := range paths {
		assert.True(t, strings.HasSuffix(p, filepath.Join("waveseek", "config.json")), p)
	}

	bare := dirs.GetConfigPaths("")
	assert.Equal(t, filepath.Join(xdg.ConfigHome, "waveseek"), bare[0])
}

func TestXDGCachePath(t *testing.T) {
	dirs := NewXDGDirsWithFilesystem(afero.NewMemMapFs())
	assert.Equal(t, filepath.Join(xdg.CacheHome, "waveseek", "logs"), dirs.GetCachePath("logs"))
	assert.Equal(t, filepath.Join(xdg.CacheHome, "waveseek"), dirs.GetCachePath(""))
}

func TestXDGCreateCacheDir(t *testing.T) {
	memFS := afero.NewMemMapFs()
	dirs := NewXDGDirsWithFilesystem(memFS)

	require.NoError(t, dirs.CreateCacheDir("logs"))

	exists, err := afero.DirExists(memFS, dirs.GetCachePath("logs"))
	require.NoError(t, err)
	assert.True(t, exists)
}
