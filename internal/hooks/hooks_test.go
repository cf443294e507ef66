package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dotcommander/claude-compact/internal/app"
	"github.com/dotcommander/claude-compact/internal/extract"
	"github.com/dotcommander/claude-compact/internal/hooklog"
	"github.com/dotcommander/claude-compact/internal/store"
)

var fixedNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// fakeHistory records calls in memory.
type fakeHistory struct {
	mu         sync.Mutex
	runs       []store.Run
	reinjected []string
}

func (f *fakeHistory) RecordExport(_ context.Context, run store.Run) (store.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, run)
	return run, nil
}

func (f *fakeHistory) MarkReinjected(_ context.Context, exportPath string, _ time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reinjected = append(f.reinjected, exportPath)
	return true, nil
}

type harness struct {
	env     Env
	paths   app.Paths
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
	history *fakeHistory
}

func newHarness(t *testing.T, hook string) *harness {
	t.Helper()
	paths := app.NewPaths(t.TempDir())
	require.NoError(t, os.MkdirAll(paths.HooksDir, 0o755))
	h := &harness{
		paths:   paths,
		stdout:  &bytes.Buffer{},
		stderr:  &bytes.Buffer{},
		history: &fakeHistory{},
	}
	h.env = Env{
		Paths:   paths,
		Stdout:  h.stdout,
		Stderr:  h.stderr,
		Now:     func() time.Time { return fixedNow },
		Logger:  hooklog.NewLogger(paths.LogFile, hook),
		History: h.history,
	}
	return h
}

// useScript installs a shell script standing in for claude-extract.
// Arguments arrive as: --extract 1 --format FMT --output DIR [--detailed].
func (h *harness) useScript(t *testing.T, body string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "claude-extract")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	h.env.NewExtractor = func(logger *slog.Logger) (Extractor, error) {
		return extract.NewRunner(path,
			extract.WithLogger(logger),
			extract.WithTimeout(5*time.Second),
			extract.WithEnviron(func() []string {
				return []string{"PATH=" + os.Getenv("PATH"), "PYENV_VERSION=2.7.18"}
			}),
		)
	}
}

func (h *harness) logText(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(h.paths.LogFile)
	if os.IsNotExist(err) {
		return ""
	}
	require.NoError(t, err)
	return string(data)
}

func readRecord(t *testing.T, path string) map[string]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rec map[string]string
	require.NoError(t, json.Unmarshal(data, &rec))
	return rec
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func lines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}
