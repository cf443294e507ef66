package app

import (
	"os"
	"path/filepath"
)

// ConfigDir returns ~/.config/claude-compact/ on all platforms.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "claude-compact"), nil
}

// SettingsPath returns the location of the YAML settings file.
func SettingsPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// EnsureConfigDir creates the config directory and default config.yaml if missing.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	configFile := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return os.WriteFile(configFile, []byte(defaultConfig), 0600)
	}
	return nil
}

const defaultConfig = `# claude-compact settings
# Run: claude-compact --help
#
# Hook behavior (export format, cleanup, prompt template) lives in
# <claude_dir>/hooks/claude-compact-config.json; see 'claude-compact config show'.

# Optional: Claude Code home directory.
# Can also be set via CLAUDE_COMPACT_CLAUDE_DIR or --claude-dir.
# claude_dir: ~/.claude

# Optional: extraction tool invoked by the PreCompact hook.
# extractor: claude-extract
# extract_timeout_seconds: 120

# Optional: export history database.
# history_enabled: true
# history_db: ~/.config/claude-compact/history.db
`
