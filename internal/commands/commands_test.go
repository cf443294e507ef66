package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/claude-compact/internal/app"
	"github.com/dotcommander/claude-compact/internal/config"
)

var fixedNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type cli struct {
	home      string
	claudeDir string
	paths     app.Paths
	opts      *rootOptions
	prompts   []string
	answer    bool
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(app.ClaudeDirEnv, "")
	t.Setenv("CLAUDE_COMPACT_PRETTY_JSON", "")

	c := &cli{home: home, claudeDir: filepath.Join(home, ".claude")}
	c.paths = app.NewPaths(c.claudeDir)
	c.opts = newRootOptions()
	c.opts.interactive = func(any) bool { return false }
	c.opts.executable = func() string { return "/opt/bin/claude-compact" }
	c.opts.now = func() time.Time { return fixedNow }
	c.opts.confirm = func(title, _ string) (bool, error) {
		c.prompts = append(c.prompts, title)
		return c.answer, nil
	}
	return c
}

// settings writes config.yaml before the first command creates the default.
func (c *cli) settings(t *testing.T, yaml string) {
	t.Helper()
	dir := filepath.Join(c.home, ".config", "claude-compact")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
}

func (c *cli) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd("test", c.opts)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--claude-dir", c.claudeDir}, args...))
	err := root.Execute()
	// Flags bind to shared options; reset between invocations.
	c.opts.format = ""
	return out.String(), errOut.String(), err
}

func decodeEnvelope(t *testing.T, out string) map[string]any {
	t.Helper()
	var env map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &env), out)
	assert.Equal(t, "v1", env["schema_version"])
	return env
}

func dataOf(t *testing.T, out string) map[string]any {
	t.Helper()
	env := decodeEnvelope(t, out)
	require.Equal(t, true, env["success"], out)
	data, ok := env["data"].(map[string]any)
	require.True(t, ok, out)
	return data
}

func writeExport(t *testing.T, dir, name string, mtime time.Time) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("# "+name+"\n"), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return path
}

func TestVersion(t *testing.T) {
	c := newCLI(t)
	out, _, err := c.run(t, "", "--version")
	require.NoError(t, err)
	assert.Equal(t, "claude-compact test\n", out)
}

func TestInvalidOutputFormat(t *testing.T) {
	c := newCLI(t)
	_, _, err := c.run(t, "", "-o", "xml", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be one of table, json, yaml")
}

func TestInstallStatusUninstall(t *testing.T) {
	c := newCLI(t)

	out, _, err := c.run(t, "", "-o", "json", "install")
	require.NoError(t, err)
	data := dataOf(t, out)
	assert.ElementsMatch(t, []any{"PreCompact", "SessionStart"}, data["installed"])
	assert.Equal(t, true, data["config_created"])
	assert.FileExists(t, c.paths.ConfigFile)

	raw, err := os.ReadFile(c.paths.SettingsFile)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `\"/opt/bin/claude-compact\" hook precompact`)
	assert.Contains(t, string(raw), `\"/opt/bin/claude-compact\" hook sessionstart`)

	out, _, err = c.run(t, "", "-o", "json", "install")
	require.NoError(t, err)
	data = dataOf(t, out)
	assert.Empty(t, data["installed"])
	assert.ElementsMatch(t, []any{"PreCompact", "SessionStart"}, data["skipped"])

	out, _, err = c.run(t, "", "-o", "json", "status")
	require.NoError(t, err)
	data = dataOf(t, out)
	assert.Equal(t, true, data["installed"])
	assert.Equal(t, false, data["pending_handoff"])
	assert.Equal(t, c.paths.ExportsDir, data["export_dir"])

	_, _, err = c.run(t, "", "uninstall")
	require.NoError(t, err)
	assert.NoFileExists(t, c.paths.ConfigFile)

	out, _, err = c.run(t, "", "-o", "json", "status")
	require.NoError(t, err)
	assert.Equal(t, false, dataOf(t, out)["installed"])
}

func TestInstall_TableOutput(t *testing.T) {
	c := newCLI(t)
	c.settings(t, "extractor: /nonexistent/claude-extract\n")

	out, _, err := c.run(t, "", "install")
	require.NoError(t, err)
	assert.Contains(t, out, "Hooks installed successfully")
	assert.Contains(t, out, "/nonexistent/claude-extract not found on PATH")

	out, _, err = c.run(t, "", "install")
	require.NoError(t, err)
	assert.Contains(t, out, "Hooks already installed")
}

func TestStatus_YAML(t *testing.T) {
	c := newCLI(t)
	out, _, err := c.run(t, "", "-o", "yaml", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "schema_version: v1")
	assert.Contains(t, out, "installed: false")
	assert.Contains(t, out, "settings_file: "+c.paths.SettingsFile)
}

func TestConfigSetShow(t *testing.T) {
	c := newCLI(t)

	out, _, err := c.run(t, "", "config", "set", config.KeyCleanupMode, "count")
	require.NoError(t, err)
	assert.Contains(t, out, "Set cleanup_mode = count")

	out, _, err = c.run(t, "", "config", "set", config.KeyTrigger, "both")
	require.NoError(t, err)
	assert.Contains(t, out, "claude-compact install")

	out, _, err = c.run(t, "", "-o", "json", "config", "show")
	require.NoError(t, err)
	data := dataOf(t, out)
	assert.Equal(t, c.paths.ConfigFile, data["path"])
	cfg := data["config"].(map[string]any)
	assert.Equal(t, "count", cfg["cleanup_mode"])
	assert.Equal(t, "both", cfg["trigger"])

	out, _, err = c.run(t, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "cleanup_mode")
	assert.Contains(t, out, "IMPORTANT: This conversation was compacted. The FU...")
}

func TestConfigSet_InvalidKey(t *testing.T) {
	c := newCLI(t)
	_, errOut, err := c.run(t, "", "config", "set", "bogus", "1")
	require.Error(t, err)
	var pe printedError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, errOut, "bogus")
	assert.NoFileExists(t, c.paths.ConfigFile)
}

func TestConfigSet_InvalidKeyJSON(t *testing.T) {
	c := newCLI(t)
	out, _, err := c.run(t, "", "-o", "json", "config", "set", "bogus", "1")
	require.Error(t, err)
	env := decodeEnvelope(t, out)
	assert.Equal(t, false, env["success"])
	assert.Contains(t, env["error"], "bogus")
}

func TestConfigReset(t *testing.T) {
	t.Run("refuses without a terminal", func(t *testing.T) {
		c := newCLI(t)
		_, _, err := c.run(t, "", "config", "set", config.KeyCleanupMaxCount, "5")
		require.NoError(t, err)

		_, _, err = c.run(t, "", "config", "reset")
		require.ErrorIs(t, err, errConfirmRequired)
		assert.Empty(t, c.prompts)
		assert.Equal(t, 5, config.Load(c.paths.ConfigFile, config.Defaults(c.paths.ExportsDir)).CleanupMaxCount)
	})

	t.Run("yes skips the prompt", func(t *testing.T) {
		c := newCLI(t)
		_, _, err := c.run(t, "", "config", "set", config.KeyCleanupMaxCount, "5")
		require.NoError(t, err)

		out, _, err := c.run(t, "", "config", "reset", "--yes")
		require.NoError(t, err)
		assert.Contains(t, out, "Configuration reset to defaults")
		assert.Equal(t, 50, config.Load(c.paths.ConfigFile, config.Defaults(c.paths.ExportsDir)).CleanupMaxCount)
	})

	t.Run("declined prompt cancels", func(t *testing.T) {
		c := newCLI(t)
		c.opts.interactive = func(any) bool { return true }
		_, _, err := c.run(t, "", "config", "set", config.KeyCleanupMaxCount, "5")
		require.NoError(t, err)

		out, _, err := c.run(t, "", "config", "reset")
		require.NoError(t, err)
		assert.Contains(t, out, "Cancelled")
		assert.Len(t, c.prompts, 1)
		assert.Equal(t, 5, config.Load(c.paths.ConfigFile, config.Defaults(c.paths.ExportsDir)).CleanupMaxCount)
	})

	t.Run("accepted prompt resets", func(t *testing.T) {
		c := newCLI(t)
		c.opts.interactive = func(any) bool { return true }
		c.answer = true
		_, _, err := c.run(t, "", "config", "set", config.KeyCleanupMaxCount, "5")
		require.NoError(t, err)

		_, _, err = c.run(t, "", "config", "reset")
		require.NoError(t, err)
		assert.Equal(t, 50, config.Load(c.paths.ConfigFile, config.Defaults(c.paths.ExportsDir)).CleanupMaxCount)
	})
}

func TestExportsListCleanDelete(t *testing.T) {
	c := newCLI(t)
	dir := c.paths.ExportsDir
	writeExport(t, dir, "a.md", fixedNow.Add(-3*time.Hour))
	writeExport(t, dir, "b.md", fixedNow.Add(-2*time.Hour))
	writeExport(t, dir, "c.md", fixedNow.Add(-1*time.Hour))
	writeExport(t, dir, "ignored.json", fixedNow)

	out, _, err := c.run(t, "", "-o", "json", "exports", "list")
	require.NoError(t, err)
	data := dataOf(t, out)
	assert.EqualValues(t, 3, data["count"])
	list := data["exports"].([]any)
	require.Len(t, list, 3)
	assert.Equal(t, "c.md", list[0].(map[string]any)["name"])

	out, _, err = c.run(t, "", "exports", "list", "-n", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Exports (3 files")
	assert.Contains(t, out, "c.md")
	assert.Contains(t, out, "... and 2 more")

	out, _, err = c.run(t, "", "exports", "clean", "--keep", "1", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Would delete: b.md")
	assert.Contains(t, out, "Would delete: a.md")
	assert.FileExists(t, filepath.Join(dir, "a.md"))

	_, _, err = c.run(t, "", "exports", "clean", "--keep", "-1")
	require.Error(t, err)

	out, _, err = c.run(t, "", "-o", "json", "exports", "delete", "2")
	require.NoError(t, err)
	assert.Equal(t, "b.md", dataOf(t, out)["name"])
	assert.NoFileExists(t, filepath.Join(dir, "b.md"))

	_, _, err = c.run(t, "", "exports", "delete", "9")
	require.Error(t, err)

	_, errOut, err := c.run(t, "", "exports", "delete", "x")
	require.Error(t, err)
	assert.Contains(t, errOut, "must be a number")

	out, _, err = c.run(t, "", "exports", "clean", "--keep", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 2 file(s)")
	assert.FileExists(t, filepath.Join(dir, "ignored.json"))
}

func TestExportsList_Empty(t *testing.T) {
	c := newCLI(t)
	out, _, err := c.run(t, "", "exports", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No exports found")
}

func TestExportsHistory_Disabled(t *testing.T) {
	c := newCLI(t)
	c.settings(t, "history_enabled: false\n")
	_, errOut, err := c.run(t, "", "exports", "history")
	require.Error(t, err)
	assert.Contains(t, errOut, "history is disabled")
}

func TestPromptSetShowReset(t *testing.T) {
	c := newCLI(t)

	_, _, err := c.run(t, "  \n", "prompt", "set")
	require.ErrorIs(t, err, errEmptyTemplate)

	out, _, err := c.run(t, "See {export_path} from {session_id}\n", "prompt", "set")
	require.NoError(t, err)
	assert.Contains(t, out, "Prompt template updated")

	out, _, err = c.run(t, "", "-o", "json", "prompt", "show")
	require.NoError(t, err)
	data := dataOf(t, out)
	assert.Equal(t, "See {export_path} from {session_id}", data["template"])

	_, _, err = c.run(t, "", "prompt", "set", "Read {export_path}")
	require.NoError(t, err)
	out, _, err = c.run(t, "", "prompt", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Read {export_path}")
	assert.Contains(t, out, "Variables: {export_path}, {session_id}, {timestamp}")

	_, _, err = c.run(t, "", "prompt", "reset")
	require.NoError(t, err)
	cfg := config.Load(c.paths.ConfigFile, config.Defaults(c.paths.ExportsDir))
	assert.Equal(t, config.DefaultPromptTemplate, cfg.PromptTemplate)
}

const fakeExtractor = `#!/bin/sh
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "--output" ]; then out="$2"; fi
  shift
done
echo "# transcript" > "$out/claude-conversation-2024-01-01-abc.md"
`

func TestHookRoundTrip(t *testing.T) {
	c := newCLI(t)
	script := filepath.Join(t.TempDir(), "claude-extract")
	require.NoError(t, os.WriteFile(script, []byte(fakeExtractor), 0o755))
	db := filepath.Join(t.TempDir(), "history.db")
	c.settings(t, "extractor: "+script+"\nhistory_db: "+db+"\n")

	_, errOut, err := c.run(t, `{"session_id":"s-1","hook_event_name":"PreCompact"}`, "hook", "precompact")
	require.NoError(t, err)
	exportPath := filepath.Join(c.paths.ExportsDir, "claude-conversation-2024-01-01-abc.md")
	assert.Contains(t, errOut, "Exported to "+exportPath)
	assert.FileExists(t, c.paths.ContinuationFile)

	out, _, err := c.run(t, "", "-o", "json", "status")
	require.NoError(t, err)
	assert.Equal(t, true, dataOf(t, out)["pending_handoff"])

	out, _, err = c.run(t, `{"session_id":"s-2","source":"compact"}`, "hook", "sessionstart")
	require.NoError(t, err)
	assert.Contains(t, out, exportPath)
	assert.Contains(t, out, "IMPORTANT: This conversation was compacted.")
	assert.NoFileExists(t, c.paths.ContinuationFile)

	out, _, err = c.run(t, "", "hook", "sessionstart")
	require.NoError(t, err)
	assert.Empty(t, out)

	out, _, err = c.run(t, "", "-o", "json", "exports", "history")
	require.NoError(t, err)
	env := decodeEnvelope(t, out)
	runs := env["data"].([]any)
	require.Len(t, runs, 1)
	run := runs[0].(map[string]any)
	assert.Equal(t, "s-1", run["session_id"])
	assert.Equal(t, "exported", run["status"])
	assert.Equal(t, exportPath, run["export_path"])
	assert.NotNil(t, run["reinjected_at"])
}

func TestHookPreCompact_MissingExtractorNeverFails(t *testing.T) {
	c := newCLI(t)
	c.settings(t, "extractor: /nonexistent/claude-extract\nhistory_enabled: false\n")

	out, errOut, err := c.run(t, `{"session_id":"s-1"}`, "hook", "precompact")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "not found")
	assert.NoFileExists(t, c.paths.ContinuationFile)
}

func TestHookPreCompact_BadSettingsStillRuns(t *testing.T) {
	c := newCLI(t)
	c.settings(t, "extractor: [unterminated\n")

	_, _, err := c.run(t, `{"session_id":"s-1"}`, "hook", "precompact")
	require.NoError(t, err)

	_, _, err = c.run(t, "", "status")
	require.Error(t, err)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b c", preview("a\n b\tc", 10))
	assert.Equal(t, "abc...", preview("abcdef", 3))
}
