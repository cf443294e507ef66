package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ClaudeDirEnv overrides the Claude Code home directory.
const ClaudeDirEnv = "CLAUDE_COMPACT_CLAUDE_DIR"

const (
	defaultExtractor          = "claude-extract"
	defaultExtractTimeoutSecs = 120
	maxExtractTimeoutSecs     = 3600
)

// Settings represents configuration loaded from config.yaml.
// Field names match snake_case YAML keys.
type Settings struct {
	ClaudeDir             string `yaml:"claude_dir"`
	Extractor             string `yaml:"extractor"`
	ExtractTimeoutSeconds int    `yaml:"extract_timeout_seconds"`
	HistoryEnabled        *bool  `yaml:"history_enabled"`
	HistoryDB             string `yaml:"history_db"`
}

// LoadSettings reads a settings file. A missing file yields zero Settings;
// invalid YAML is an error.
func LoadSettings(path string) (Settings, error) {
	b, err := os.ReadFile(path) //nolint:gosec // G304: path is the fixed settings location
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Settings{}, nil
		}
		return Settings{}, fmt.Errorf("read %s: %w", path, err)
	}

	var s Settings
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Settings{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return s, nil
}

// ExtractorCommand returns the extraction tool name or path.
func (s Settings) ExtractorCommand() string {
	if v := strings.TrimSpace(s.Extractor); v != "" {
		return v
	}
	return defaultExtractor
}

// ExtractTimeout returns the per-attempt subprocess timeout.
// Out-of-range values fall back to the default.
func (s Settings) ExtractTimeout() time.Duration {
	secs := s.ExtractTimeoutSeconds
	if secs <= 0 || secs > maxExtractTimeoutSecs {
		secs = defaultExtractTimeoutSecs
	}
	return time.Duration(secs) * time.Second
}

// HistoryOn reports whether the export history database is used.
func (s Settings) HistoryOn() bool {
	if s.HistoryEnabled == nil {
		return true
	}
	return *s.HistoryEnabled
}

// HistoryDBPath resolves the history database path.
func (s Settings) HistoryDBPath() (string, error) {
	if v := strings.TrimSpace(s.HistoryDB); v != "" {
		return ExpandHome(v), nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// ResolveClaudeDir picks the Claude Code home directory.
// Order of precedence:
// 1) CLI flag (--claude-dir)
// 2) Environment variable: CLAUDE_COMPACT_CLAUDE_DIR
// 3) config.yaml: claude_dir
// 4) Default: ~/.claude
func ResolveClaudeDir(flag string, s Settings) (string, error) {
	for _, candidate := range []string{flag, os.Getenv(ClaudeDirEnv), s.ClaudeDir} {
		if v := strings.TrimSpace(candidate); v != "" {
			return ExpandHome(v), nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".claude"), nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}
