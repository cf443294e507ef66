package installer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/dotcommander/claude-compact/internal/fsutil"
)

// Hook subcommands the binary serves.
const (
	SubPreCompact   = "precompact"
	SubSessionStart = "sessionstart"
)

// Claude Code hook event names.
const (
	EventPreCompact   = "PreCompact"
	EventSessionStart = "SessionStart"
)

const binaryName = "claude-compact"

// legacyScript matches the hook scripts earlier releases copied into the
// hooks directory.
var legacyScript = regexp.MustCompile(`claude-compact-[A-Za-z0-9_-]+\.py`)

// LegacyScripts are removed from the hooks directory on install and uninstall.
var LegacyScripts = []string{
	"claude-compact-precompact.py",
	"claude-compact-sessionstart.py",
}

type hookHandler struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Timeout int    `json:"timeout,omitempty"`
}

type hookEntry struct {
	Matcher string        `json:"matcher"`
	Hooks   []hookHandler `json:"hooks"`
}

func readSettings(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return map[string]any{}, nil
	}

	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if settings == nil {
		settings = map[string]any{}
	}
	return settings, nil
}

func writeSettings(path string, settings map[string]any) error {
	return fsutil.WriteJSON(path, settings, 0o600)
}

// IsHookCommand reports whether command runs one of our hooks, either through
// the binary ("<exe>" hook precompact|sessionstart) or a legacy script.
func IsHookCommand(command string) bool {
	cmd := strings.TrimSpace(command)
	if cmd == "" {
		return false
	}
	if legacyScript.MatchString(cmd) {
		return true
	}

	execToken, rest, ok := splitExecutable(cmd)
	if !ok || filepath.Base(execToken) != binaryName {
		return false
	}
	parts := strings.Fields(rest)
	if len(parts) < 2 || parts[0] != "hook" {
		return false
	}
	switch parts[1] {
	case SubPreCompact, SubSessionStart:
		return true
	default:
		return false
	}
}

// splitExecutable separates the first token of a shell command. A quoted
// executable may contain spaces.
func splitExecutable(cmd string) (string, string, bool) {
	if strings.HasPrefix(cmd, `"`) {
		quoted, err := strconv.QuotedPrefix(cmd)
		if err != nil {
			return "", "", false
		}
		exe, err := strconv.Unquote(quoted)
		if err != nil {
			return "", "", false
		}
		return exe, cmd[len(quoted):], true
	}
	if strings.HasPrefix(cmd, "'") {
		end := strings.Index(cmd[1:], "'")
		if end < 0 {
			return "", "", false
		}
		return cmd[1 : end+1], cmd[end+2:], true
	}
	exe, rest, _ := strings.Cut(cmd, " ")
	return exe, rest, true
}

// isOurEntry reports whether a settings hook entry runs one of our commands.
func isOurEntry(entry any) bool {
	entryMap, ok := entry.(map[string]any)
	if !ok {
		return false
	}
	hooks, ok := entryMap["hooks"].([]any)
	if !ok {
		return false
	}
	for _, h := range hooks {
		hMap, ok := h.(map[string]any)
		if !ok {
			continue
		}
		cmd, _ := hMap["command"].(string)
		if IsHookCommand(cmd) {
			return true
		}
	}
	return false
}

// HasHook checks if an event's entry list already contains one of our hooks.
func HasHook(entries []any) bool {
	for _, entry := range entries {
		if isOurEntry(entry) {
			return true
		}
	}
	return false
}

// stripOurs drops our entries and returns what remains plus what was removed.
func stripOurs(entries []any) (kept, removed []any) {
	for _, entry := range entries {
		if isOurEntry(entry) {
			removed = append(removed, entry)
			continue
		}
		kept = append(kept, entry)
	}
	return kept, removed
}

type installOutcome int

const (
	hookInstalled installOutcome = iota
	hookUpdated
	hookSkipped
)

// upsertEntries replaces our entries in existing with newEntries, keeping
// every foreign entry in place.
func upsertEntries(existing []any, newEntries []any) ([]any, installOutcome) {
	kept, removed := stripOurs(existing)
	entries := append(kept, newEntries...)

	switch {
	case len(removed) == 0:
		return entries, hookInstalled
	case entriesEqual(removed, newEntries):
		return entries, hookSkipped
	default:
		return entries, hookUpdated
	}
}

func entriesEqual(a, b []any) bool {
	aj, _ := json.Marshal(a)
	bj, _ := json.Marshal(b)
	return string(aj) == string(bj)
}

// toSettingsValue round-trips entries through JSON so they compare equal to
// entries decoded from settings.json.
func toSettingsValue(entries []hookEntry) []any {
	data, _ := json.Marshal(entries)
	var out []any
	_ = json.Unmarshal(data, &out)
	return out
}
