// Package config holds the typed hook configuration persisted as JSON under
// the Claude Code hooks directory. Every key has a default and a malformed
// persisted value never stops the hooks from running.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dotcommander/claude-compact/internal/app"
	"github.com/dotcommander/claude-compact/internal/fsutil"
)

// Config keys as they appear in claude-compact-config.json.
const (
	KeyExportDir         = "export_dir"
	KeyExportFormat      = "export_format"
	KeyDetailed          = "detailed"
	KeyTrigger           = "trigger"
	KeyCleanupEnabled    = "cleanup_enabled"
	KeyCleanupMode       = "cleanup_mode"
	KeyCleanupMaxAgeDays = "cleanup_max_age_days"
	KeyCleanupMaxCount   = "cleanup_max_count"
	KeyPromptTemplate    = "prompt_template"
)

// Cleanup modes.
const (
	CleanupModeAge   = "age"
	CleanupModeCount = "count"
)

// Trigger values. TriggerBoth registers both auto and manual compaction.
const (
	TriggerAuto   = "auto"
	TriggerManual = "manual"
	TriggerBoth   = "both"
	TriggerAny    = "*"
)

// FormatMarkdown is the default export format.
const FormatMarkdown = "markdown"

// DefaultPromptTemplate is injected after compaction unless overridden.
const DefaultPromptTemplate = `IMPORTANT: This conversation was compacted. The FULL conversation before compaction is saved at:
{export_path}

If you need details from earlier in the conversation (file paths, error messages, code changes, tool calls, decisions made, etc.), use the Read tool to read that file.`

// Config is the hook configuration.
type Config struct {
	ExportDir         string `json:"export_dir" yaml:"export_dir"`
	ExportFormat      string `json:"export_format" yaml:"export_format"`
	Detailed          bool   `json:"detailed" yaml:"detailed"`
	Trigger           string `json:"trigger" yaml:"trigger"`
	CleanupEnabled    bool   `json:"cleanup_enabled" yaml:"cleanup_enabled"`
	CleanupMode       string `json:"cleanup_mode" yaml:"cleanup_mode"`
	CleanupMaxAgeDays int    `json:"cleanup_max_age_days" yaml:"cleanup_max_age_days"`
	CleanupMaxCount   int    `json:"cleanup_max_count" yaml:"cleanup_max_count"`
	PromptTemplate    string `json:"prompt_template" yaml:"prompt_template"`
}

// Defaults returns the hard-coded configuration for the given exports directory.
func Defaults(exportsDir string) Config {
	return Config{
		ExportDir:         exportsDir,
		ExportFormat:      FormatMarkdown,
		Detailed:          true,
		Trigger:           TriggerAny,
		CleanupEnabled:    true,
		CleanupMode:       CleanupModeAge,
		CleanupMaxAgeDays: 30,
		CleanupMaxCount:   50,
		PromptTemplate:    DefaultPromptTemplate,
	}
}

// ExportDirPath returns the export directory with a leading "~" expanded.
func (c Config) ExportDirPath() string {
	return app.ExpandHome(c.ExportDir)
}

// keyOrder is the canonical key order for display and validation messages.
//
//nolint:gochecknoglobals // read-only lookup table
var keyOrder = []string{
	KeyExportDir,
	KeyExportFormat,
	KeyDetailed,
	KeyTrigger,
	KeyCleanupEnabled,
	KeyCleanupMode,
	KeyCleanupMaxAgeDays,
	KeyCleanupMaxCount,
	KeyPromptTemplate,
}

//nolint:gochecknoglobals // read-only lookup table
var descriptions = map[string]string{
	KeyExportDir:         "Directory for exports",
	KeyExportFormat:      "Export format (markdown/json/html)",
	KeyDetailed:          "Include tool calls in export",
	KeyTrigger:           "Hook trigger (auto/manual/both/*)",
	KeyCleanupEnabled:    "Enable auto-cleanup",
	KeyCleanupMode:       "Cleanup mode (age/count)",
	KeyCleanupMaxAgeDays: "Max age in days (if mode=age)",
	KeyCleanupMaxCount:   "Max exports to keep (if mode=count)",
	KeyPromptTemplate:    "Continuation prompt template",
}

// Keys returns all configuration keys in canonical order.
func Keys() []string {
	out := make([]string, len(keyOrder))
	copy(out, keyOrder)
	return out
}

// Describe returns the one-line description of a key.
func Describe(key string) string {
	return descriptions[key]
}

// Value returns the display string of a key's current value.
func (c Config) Value(key string) (string, bool) {
	switch key {
	case KeyExportDir:
		return c.ExportDir, true
	case KeyExportFormat:
		return c.ExportFormat, true
	case KeyDetailed:
		return strconv.FormatBool(c.Detailed), true
	case KeyTrigger:
		return c.Trigger, true
	case KeyCleanupEnabled:
		return strconv.FormatBool(c.CleanupEnabled), true
	case KeyCleanupMode:
		return c.CleanupMode, true
	case KeyCleanupMaxAgeDays:
		return strconv.Itoa(c.CleanupMaxAgeDays), true
	case KeyCleanupMaxCount:
		return strconv.Itoa(c.CleanupMaxCount), true
	case KeyPromptTemplate:
		return c.PromptTemplate, true
	}
	return "", false
}

// Load reads the config file and merges each persisted value over defaults.
// Missing or unreadable files, invalid JSON, and per-key type or range
// errors all fall back to the default for the affected key.
func Load(path string, defaults Config) Config {
	data, err := os.ReadFile(path) //nolint:gosec // G304: fixed config location
	if err != nil {
		return defaults
	}
	return Merge(data, defaults)
}

// Merge applies the persisted JSON document over defaults.
func Merge(data []byte, defaults Config) Config {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return defaults
	}

	cfg := defaults
	if v, ok := decodeString(raw, KeyExportDir); ok && strings.TrimSpace(v) != "" {
		cfg.ExportDir = v
	}
	if v, ok := decodeString(raw, KeyExportFormat); ok && validFormat(v) {
		cfg.ExportFormat = v
	}
	if v, ok := decodeBool(raw, KeyDetailed); ok {
		cfg.Detailed = v
	}
	if v, ok := decodeString(raw, KeyTrigger); ok && validTrigger(v) {
		cfg.Trigger = v
	}
	if v, ok := decodeBool(raw, KeyCleanupEnabled); ok {
		cfg.CleanupEnabled = v
	}
	if v, ok := decodeString(raw, KeyCleanupMode); ok && validCleanupMode(v) {
		cfg.CleanupMode = v
	}
	if v, ok := decodeInt(raw, KeyCleanupMaxAgeDays); ok && v >= 0 {
		cfg.CleanupMaxAgeDays = v
	}
	if v, ok := decodeInt(raw, KeyCleanupMaxCount); ok && v >= 0 {
		cfg.CleanupMaxCount = v
	}
	if v, ok := decodeString(raw, KeyPromptTemplate); ok && strings.TrimSpace(v) != "" {
		cfg.PromptTemplate = v
	}
	return cfg
}

// lookup treats an explicit JSON null like an absent key.
func lookup(raw map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	msg, ok := raw[key]
	if !ok || strings.TrimSpace(string(msg)) == "null" {
		return nil, false
	}
	return msg, true
}

func decodeString(raw map[string]json.RawMessage, key string) (string, bool) {
	msg, ok := lookup(raw, key)
	if !ok {
		return "", false
	}
	var v string
	if err := json.Unmarshal(msg, &v); err != nil {
		return "", false
	}
	return v, true
}

func decodeBool(raw map[string]json.RawMessage, key string) (bool, bool) {
	msg, ok := lookup(raw, key)
	if !ok {
		return false, false
	}
	var v bool
	if err := json.Unmarshal(msg, &v); err != nil {
		return false, false
	}
	return v, true
}

func decodeInt(raw map[string]json.RawMessage, key string) (int, bool) {
	msg, ok := lookup(raw, key)
	if !ok {
		return 0, false
	}
	var v int
	if err := json.Unmarshal(msg, &v); err != nil {
		return 0, false
	}
	return v, true
}

func validFormat(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.ContainsAny(v, `/\*?[`)
}

func validTrigger(v string) bool {
	switch v {
	case TriggerAuto, TriggerManual, TriggerBoth, TriggerAny:
		return true
	}
	return false
}

func validCleanupMode(v string) bool {
	return v == CleanupModeAge || v == CleanupModeCount
}

// Save writes the configuration as indented JSON.
func Save(path string, cfg Config) error {
	if err := fsutil.WriteJSON(path, cfg, 0o600); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// ErrUnknownKey is returned by Set for keys outside Keys().
var ErrUnknownKey = errors.New("invalid key")

// Set assigns a raw string value to a key, converting by the key's type.
func Set(cfg Config, key, raw string) (Config, error) {
	switch key {
	case KeyExportDir:
		if strings.TrimSpace(raw) == "" {
			return cfg, fmt.Errorf("%s cannot be empty", key)
		}
		cfg.ExportDir = raw
	case KeyExportFormat:
		if !validFormat(raw) {
			return cfg, fmt.Errorf("invalid %s %q", key, raw)
		}
		cfg.ExportFormat = strings.TrimSpace(raw)
	case KeyDetailed:
		cfg.Detailed = parseBool(raw)
	case KeyTrigger:
		if !validTrigger(raw) {
			return cfg, fmt.Errorf("invalid %s %q (valid: auto, manual, both, *)", key, raw)
		}
		cfg.Trigger = raw
	case KeyCleanupEnabled:
		cfg.CleanupEnabled = parseBool(raw)
	case KeyCleanupMode:
		if !validCleanupMode(raw) {
			return cfg, fmt.Errorf("invalid %s %q (valid: age, count)", key, raw)
		}
		cfg.CleanupMode = raw
	case KeyCleanupMaxAgeDays, KeyCleanupMaxCount:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return cfg, fmt.Errorf("%s must be an integer: %w", key, err)
		}
		if n < 0 {
			return cfg, fmt.Errorf("%s must not be negative", key)
		}
		if key == KeyCleanupMaxAgeDays {
			cfg.CleanupMaxAgeDays = n
		} else {
			cfg.CleanupMaxCount = n
		}
	case KeyPromptTemplate:
		if strings.TrimSpace(raw) == "" {
			return cfg, errors.New("template cannot be empty")
		}
		cfg.PromptTemplate = raw
	default:
		return cfg, fmt.Errorf("%w: %s (valid keys: %s)", ErrUnknownKey, key, strings.Join(keyOrder, ", "))
	}
	return cfg, nil
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}
