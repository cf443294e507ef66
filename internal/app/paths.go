package app

import "path/filepath"

const (
	configFileName       = "claude-compact-config.json"
	continuationFileName = "continuation_prompt.txt"
	logFileName          = "claude-compact.log"
)

// Paths holds every fixed location the hooks and commands touch.
// Built once per process and passed down explicitly.
type Paths struct {
	ClaudeDir        string `json:"claude_dir" yaml:"claude_dir"`
	HooksDir         string `json:"hooks_dir" yaml:"hooks_dir"`
	SettingsFile     string `json:"settings_file" yaml:"settings_file"`
	ConfigFile       string `json:"config_file" yaml:"config_file"`
	ContinuationFile string `json:"continuation_file" yaml:"continuation_file"`
	LogFile          string `json:"log_file" yaml:"log_file"`
	ExportsDir       string `json:"exports_dir" yaml:"exports_dir"`
}

// NewPaths derives all locations from the Claude Code home directory.
func NewPaths(claudeDir string) Paths {
	hooks := filepath.Join(claudeDir, "hooks")
	return Paths{
		ClaudeDir:        claudeDir,
		HooksDir:         hooks,
		SettingsFile:     filepath.Join(claudeDir, "settings.json"),
		ConfigFile:       filepath.Join(hooks, configFileName),
		ContinuationFile: filepath.Join(hooks, continuationFileName),
		LogFile:          filepath.Join(hooks, logFileName),
		ExportsDir:       filepath.Join(hooks, "exports"),
	}
}
