package exports

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func writeExport(t *testing.T, dir, name string, mtime time.Time, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o600))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return path
}

func names(list []Export) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, e.Name)
	}
	return out
}

func TestPattern(t *testing.T) {
	assert.Equal(t, "*.md", Pattern("markdown"))
	assert.Equal(t, "*.md", Pattern(""))
	assert.Equal(t, "*.json", Pattern("json"))
	assert.Equal(t, "*.html", Pattern("html"))
}

func TestList_FiltersAndSortsNewestFirst(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "a.md", testNow.Add(-3*time.Hour), 10)
	writeExport(t, dir, "b.md", testNow.Add(-1*time.Hour), 20)
	writeExport(t, dir, "c.md", testNow.Add(-2*time.Hour), 30)
	writeExport(t, dir, "other.json", testNow, 5)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "dir.md"), 0o755))

	list, err := List(dir, "markdown")
	require.NoError(t, err)
	assert.Equal(t, []string{"b.md", "c.md", "a.md"}, names(list))
	assert.EqualValues(t, 60, TotalSize(list))

	jsonList, err := List(dir, "json")
	require.NoError(t, err)
	assert.Equal(t, []string{"other.json"}, names(jsonList))
}

func TestList_TieBreaksByNameDescending(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "export-2024-01-01.md", testNow, 1)
	writeExport(t, dir, "export-2024-01-03.md", testNow, 1)
	writeExport(t, dir, "export-2024-01-02.md", testNow, 1)

	list, err := List(dir, "markdown")
	require.NoError(t, err)
	assert.Equal(t, []string{"export-2024-01-03.md", "export-2024-01-02.md", "export-2024-01-01.md"}, names(list))
}

func TestList_MissingDir(t *testing.T) {
	list, err := List(filepath.Join(t.TempDir(), "absent"), "markdown")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestNewest(t *testing.T) {
	dir := t.TempDir()
	_, err := Newest(dir, "markdown")
	require.ErrorIs(t, err, ErrNoExports)

	writeExport(t, dir, "old.md", testNow.Add(-time.Hour), 1)
	writeExport(t, dir, "export-2024-01-01.md", testNow, 1)

	e, err := Newest(dir, "markdown")
	require.NoError(t, err)
	assert.Equal(t, "export-2024-01-01.md", e.Name)
	assert.Equal(t, filepath.Join(dir, "export-2024-01-01.md"), e.Path)
}

func TestSelectAndDelete(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "a.md", testNow.Add(-time.Hour), 1)
	writeExport(t, dir, "b.md", testNow, 1)

	_, err := Delete(dir, "markdown", 3)
	require.Error(t, err)
	require.Contains(t, err.Error(), "1-2")

	_, err = Delete(dir, "markdown", 0)
	require.Error(t, err)

	e, err := Delete(dir, "markdown", 1)
	require.NoError(t, err)
	assert.Equal(t, "b.md", e.Name)
	_, statErr := os.Stat(e.Path)
	assert.True(t, os.IsNotExist(statErr))

	_, err = Select(nil, 1)
	require.ErrorIs(t, err, ErrNoExports)
}

func TestSizeHuman(t *testing.T) {
	assert.Equal(t, "0 B", Export{Size: 0}.SizeHuman())
	assert.Equal(t, "1.5 KiB", Export{Size: 1536}.SizeHuman())
}

func TestEditor_PrefersEnvironment(t *testing.T) {
	t.Setenv("EDITOR", "nano")
	t.Setenv("VISUAL", "code")
	assert.Equal(t, "nano", Editor())

	t.Setenv("EDITOR", "")
	assert.Equal(t, "code", Editor())

	t.Setenv("VISUAL", "")
	assert.NotEmpty(t, Editor())
}

func TestOpen_RunsEditorWithPath(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "a.md", testNow, 1)

	marker := filepath.Join(t.TempDir(), "opened")
	script := filepath.Join(t.TempDir(), "fake-editor")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho \"$1\" > "+marker+"\n"), 0o755))

	e, err := Open(dir, "markdown", 1, script)
	require.NoError(t, err)
	assert.Equal(t, "a.md", e.Name)

	b, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Equal(t, e.Path+"\n", string(b))
}

func TestOpen_MissingEditor(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "a.md", testNow, 1)

	_, err := Open(dir, "markdown", 1, "definitely-not-an-editor-xyz")
	require.Error(t, err)
	require.Contains(t, err.Error(), "editor not found")
}
