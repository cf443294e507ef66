// Package installer registers the compaction hooks in Claude Code's
// settings.json and removes them again.
package installer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dotcommander/claude-compact/internal/app"
	"github.com/dotcommander/claude-compact/internal/config"
	"github.com/dotcommander/claude-compact/internal/fsutil"
)

// Hook timeouts in seconds. PreCompact covers an extraction plus one retry.
const (
	preCompactTimeout   = 300
	sessionStartTimeout = 10
)

// sessionStartMatcher limits SessionStart to sessions resumed after compaction.
const sessionStartMatcher = "compact"

// Executable returns the path hook commands should invoke.
func Executable() string {
	exe, err := os.Executable()
	if err != nil || strings.TrimSpace(exe) == "" {
		return binaryName
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return exe
}

// HookCommand builds the settings.json command for a hook subcommand.
func HookCommand(exe, sub string) string {
	if exe == "" || exe == binaryName {
		return fmt.Sprintf("%s hook %s", binaryName, sub)
	}
	return fmt.Sprintf("%q hook %s", exe, sub)
}

// PreCompactMatchers maps a trigger to PreCompact matchers. "both" registers
// the auto and manual triggers separately.
func PreCompactMatchers(trigger string) []string {
	switch trigger {
	case config.TriggerBoth:
		return []string{config.TriggerAuto, config.TriggerManual}
	case "":
		return []string{config.TriggerAny}
	default:
		return []string{trigger}
	}
}

// Installer manages hook registration for one Claude directory.
type Installer struct {
	paths app.Paths
	exe   string
}

// New returns an Installer writing commands that run exe.
func New(paths app.Paths, exe string) *Installer {
	return &Installer{paths: paths, exe: exe}
}

func (i *Installer) entries(trigger string) map[string][]any {
	pre := make([]hookEntry, 0, 2)
	for _, m := range PreCompactMatchers(trigger) {
		pre = append(pre, hookEntry{
			Matcher: m,
			Hooks: []hookHandler{{
				Type:    "command",
				Command: HookCommand(i.exe, SubPreCompact),
				Timeout: preCompactTimeout,
			}},
		})
	}
	start := []hookEntry{{
		Matcher: sessionStartMatcher,
		Hooks: []hookHandler{{
			Type:    "command",
			Command: HookCommand(i.exe, SubSessionStart),
			Timeout: sessionStartTimeout,
		}},
	}}
	return map[string][]any{
		EventPreCompact:   toSettingsValue(pre),
		EventSessionStart: toSettingsValue(start),
	}
}

// InstallResult reports what Install changed.
type InstallResult struct {
	SettingsFile  string   `json:"settings_file" yaml:"settings_file"`
	Installed     []string `json:"installed" yaml:"installed"`
	Updated       []string `json:"updated,omitempty" yaml:"updated,omitempty"`
	Skipped       []string `json:"skipped" yaml:"skipped"`
	ConfigCreated bool     `json:"config_created" yaml:"config_created"`
	LegacyRemoved []string `json:"legacy_removed,omitempty" yaml:"legacy_removed,omitempty"`
}

// Install registers both hooks, replacing earlier registrations, and writes
// cfg as the config file when none exists.
func (i *Installer) Install(cfg config.Config) (InstallResult, error) {
	res := InstallResult{SettingsFile: i.paths.SettingsFile}

	if err := os.MkdirAll(i.paths.HooksDir, 0o755); err != nil {
		return res, fmt.Errorf("create hooks directory: %w", err)
	}

	settings, err := readSettings(i.paths.SettingsFile)
	if err != nil {
		return res, err
	}
	hooksObj, _ := settings["hooks"].(map[string]any)
	if hooksObj == nil {
		hooksObj = map[string]any{}
	}

	for eventName, newEntries := range i.entries(cfg.Trigger) {
		existing, _ := hooksObj[eventName].([]any)
		entries, outcome := upsertEntries(existing, newEntries)
		hooksObj[eventName] = entries

		switch outcome {
		case hookInstalled:
			res.Installed = append(res.Installed, eventName)
		case hookUpdated:
			res.Updated = append(res.Updated, eventName)
		case hookSkipped:
			res.Skipped = append(res.Skipped, eventName)
		}
	}

	settings["hooks"] = hooksObj
	if err := writeSettings(i.paths.SettingsFile, settings); err != nil {
		return res, err
	}

	if _, err := os.Stat(i.paths.ConfigFile); os.IsNotExist(err) {
		if err := config.Save(i.paths.ConfigFile, cfg); err != nil {
			return res, err
		}
		res.ConfigCreated = true
	}

	res.LegacyRemoved = i.removeLegacyScripts()

	sort.Strings(res.Installed)
	sort.Strings(res.Updated)
	sort.Strings(res.Skipped)
	return res, nil
}

// UninstallResult reports what Uninstall removed.
type UninstallResult struct {
	SettingsFile        string   `json:"settings_file" yaml:"settings_file"`
	Removed             []string `json:"removed" yaml:"removed"`
	ConfigRemoved       bool     `json:"config_removed" yaml:"config_removed"`
	ExportsRemoved      bool     `json:"exports_removed" yaml:"exports_removed"`
	ContinuationRemoved bool     `json:"continuation_removed" yaml:"continuation_removed"`
	LegacyRemoved       []string `json:"legacy_removed,omitempty" yaml:"legacy_removed,omitempty"`
}

// Uninstall strips our hook entries and deletes the config file, exportDir
// and any pending handoff record.
func (i *Installer) Uninstall(exportDir string) (UninstallResult, error) {
	res := UninstallResult{SettingsFile: i.paths.SettingsFile, Removed: []string{}}

	settings, err := readSettings(i.paths.SettingsFile)
	if err != nil {
		return res, err
	}

	if hooksObj, ok := settings["hooks"].(map[string]any); ok {
		for _, eventName := range []string{EventPreCompact, EventSessionStart} {
			entries, ok := hooksObj[eventName].([]any)
			if !ok {
				continue
			}
			kept, removed := stripOurs(entries)
			if len(removed) > 0 {
				res.Removed = append(res.Removed, eventName)
			}
			if len(kept) == 0 {
				delete(hooksObj, eventName)
			} else {
				hooksObj[eventName] = kept
			}
		}
		if len(hooksObj) == 0 {
			delete(settings, "hooks")
		} else {
			settings["hooks"] = hooksObj
		}
		if err := writeSettings(i.paths.SettingsFile, settings); err != nil {
			return res, err
		}
	}

	if res.ConfigRemoved, err = removeFile(i.paths.ConfigFile); err != nil {
		return res, err
	}
	if exportDir != "" {
		if _, statErr := os.Stat(exportDir); statErr == nil {
			if err := os.RemoveAll(exportDir); err != nil {
				return res, fmt.Errorf("remove exports: %w", err)
			}
			res.ExportsRemoved = true
		}
	}
	if res.ContinuationRemoved, err = removeFile(i.paths.ContinuationFile); err != nil {
		return res, err
	}
	res.LegacyRemoved = i.removeLegacyScripts()
	return res, nil
}

// Status describes the current registration.
type Status struct {
	Installed    bool      `json:"installed" yaml:"installed"`
	PreCompact   bool      `json:"precompact" yaml:"precompact"`
	SessionStart bool      `json:"sessionstart" yaml:"sessionstart"`
	Legacy       bool      `json:"legacy_scripts" yaml:"legacy_scripts"`
	Paths        app.Paths `json:"paths" yaml:"paths"`
}

// Status reads settings.json and reports which hooks are registered.
func (i *Installer) Status() (Status, error) {
	st := Status{Paths: i.paths}

	settings, err := readSettings(i.paths.SettingsFile)
	if err != nil {
		return st, err
	}
	if hooksObj, ok := settings["hooks"].(map[string]any); ok {
		pre, _ := hooksObj[EventPreCompact].([]any)
		start, _ := hooksObj[EventSessionStart].([]any)
		st.PreCompact = HasHook(pre)
		st.SessionStart = HasHook(start)
	}
	st.Installed = st.PreCompact && st.SessionStart

	for _, name := range LegacyScripts {
		if _, err := os.Stat(filepath.Join(i.paths.HooksDir, name)); err == nil {
			st.Legacy = true
			break
		}
	}
	return st, nil
}

func (i *Installer) removeLegacyScripts() []string {
	var removed []string
	for _, name := range LegacyScripts {
		path := filepath.Join(i.paths.HooksDir, name)
		if ok, err := removeFile(path); err == nil && ok {
			removed = append(removed, path)
		}
	}
	return removed
}

// removeFile deletes path and reports whether it existed.
func removeFile(path string) (bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	}
	if err := fsutil.RemoveIfExists(path); err != nil {
		return false, fmt.Errorf("remove %s: %w", path, err)
	}
	return true, nil
}
