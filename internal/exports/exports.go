// Package exports discovers, lists, and prunes the conversation export files
// written by the extraction tool.
package exports

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// ErrNoExports is returned when a directory holds no matching export.
var ErrNoExports = errors.New("no exports found")

// Export is one export file on disk.
type Export struct {
	Path    string    `json:"path" yaml:"path"`
	Name    string    `json:"name" yaml:"name"`
	Size    int64     `json:"size" yaml:"size"`
	ModTime time.Time `json:"mtime" yaml:"mtime"`
}

// SizeHuman returns the size as a human-readable string.
func (e Export) SizeHuman() string {
	return humanize.IBytes(uint64(max(e.Size, 0)))
}

// Pattern returns the glob matching exports of the given format.
func Pattern(format string) string {
	format = strings.TrimSpace(format)
	if format == "" || format == "markdown" {
		return "*.md"
	}
	return "*." + format
}

// List returns regular files in dir matching the format's pattern, newest
// first. Files sharing a modification time are ordered by name descending,
// which puts later timestamped names first. A missing dir yields nil.
func List(dir, format string) ([]Export, error) {
	matches, err := filepath.Glob(filepath.Join(dir, Pattern(format)))
	if err != nil {
		return nil, fmt.Errorf("glob exports: %w", err)
	}

	out := make([]Export, 0, len(matches))
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		out = append(out, Export{
			Path:    path,
			Name:    info.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(list []Export) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].ModTime.Equal(list[j].ModTime) {
			return list[i].ModTime.After(list[j].ModTime)
		}
		return list[i].Name > list[j].Name
	})
}

// Newest returns the most recently modified export in dir.
func Newest(dir, format string) (Export, error) {
	list, err := List(dir, format)
	if err != nil {
		return Export{}, err
	}
	if len(list) == 0 {
		return Export{}, ErrNoExports
	}
	return list[0], nil
}

// TotalSize sums the sizes of list.
func TotalSize(list []Export) int64 {
	var total int64
	for _, e := range list {
		total += e.Size
	}
	return total
}

// Select returns the export at a 1-based index.
func Select(list []Export, index int) (Export, error) {
	if len(list) == 0 {
		return Export{}, ErrNoExports
	}
	if index < 1 || index > len(list) {
		return Export{}, fmt.Errorf("invalid index. Valid range: 1-%d", len(list))
	}
	return list[index-1], nil
}

// Delete removes the export at a 1-based index.
func Delete(dir, format string, index int) (Export, error) {
	list, err := List(dir, format)
	if err != nil {
		return Export{}, err
	}
	e, err := Select(list, index)
	if err != nil {
		return Export{}, err
	}
	if err := os.Remove(e.Path); err != nil {
		return Export{}, fmt.Errorf("failed to delete: %w", err)
	}
	return e, nil
}
