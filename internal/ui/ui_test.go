package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStyles_PlainWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	s := NewStyles(&buf)

	assert.False(t, IsTerminal(&buf))
	assert.Equal(t, IconPass, s.Check(true))
	assert.Equal(t, IconFail, s.Check(false))
	assert.Equal(t, "yes", s.YesNo(true))
	assert.NotContains(t, s.Success.Render("ok"), "\x1b[")
}

func TestTable_RendersHeadersAndRows(t *testing.T) {
	var buf bytes.Buffer
	s := NewStyles(&buf)

	out := s.Table([]string{"#", "NAME", "SIZE"}, [][]string{
		{"1", "export-2024-01-02.md", "2.0 KiB"},
		{"2", "export-2024-01-01.md", "10 B"},
	})

	lines := strings.Split(out, "\n")
	require.Greater(t, len(lines), 4)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "export-2024-01-02.md")
	assert.Less(t, strings.Index(out, "export-2024-01-02.md"), strings.Index(out, "export-2024-01-01.md"))
}

func TestKeyValues(t *testing.T) {
	var buf bytes.Buffer
	s := NewStyles(&buf)

	out := s.KeyValues("Setting", [][2]string{{"export_format", "markdown"}})
	assert.Contains(t, out, "Setting")
	assert.Contains(t, out, "export_format")
	assert.Contains(t, out, "markdown")
}

func TestPanel(t *testing.T) {
	var buf bytes.Buffer
	s := NewStyles(&buf)

	out := s.Panel("line one\nline two")
	assert.Contains(t, out, "line one")
	assert.Contains(t, out, "line two")
	assert.True(t, strings.HasPrefix(out, "╭"))
}
