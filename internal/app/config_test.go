package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigDir_UsesHomeDirectory(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir, err := ConfigDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".config", "claude-compact"), dir)
}

func TestEnsureConfigDir_CreatesDefaultConfigOnlyWhenMissing(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	err := EnsureConfigDir()
	require.NoError(t, err)

	configFile, err := SettingsPath()
	require.NoError(t, err)

	b, err := os.ReadFile(configFile)
	require.NoError(t, err)
	require.Equal(t, defaultConfig, string(b))

	custom := []byte("claude_dir: /tmp/custom\n")
	require.NoError(t, os.WriteFile(configFile, custom, 0o600))

	err = EnsureConfigDir()
	require.NoError(t, err)

	b, err = os.ReadFile(configFile)
	require.NoError(t, err)
	require.Equal(t, string(custom), string(b))
}

func TestDefaultConfig_ParsesAsEmptySettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(defaultConfig), 0o600))

	s, err := LoadSettings(path)
	require.NoError(t, err)
	require.Equal(t, Settings{}, s)
}

func TestNewPaths(t *testing.T) {
	p := NewPaths("/home/u/.claude")
	require.Equal(t, "/home/u/.claude/hooks", p.HooksDir)
	require.Equal(t, "/home/u/.claude/settings.json", p.SettingsFile)
	require.Equal(t, "/home/u/.claude/hooks/claude-compact-config.json", p.ConfigFile)
	require.Equal(t, "/home/u/.claude/hooks/continuation_prompt.txt", p.ContinuationFile)
	require.Equal(t, "/home/u/.claude/hooks/claude-compact.log", p.LogFile)
	require.Equal(t, "/home/u/.claude/hooks/exports", p.ExportsDir)
}
