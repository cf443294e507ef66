package handoff

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dotcommander/claude-compact/internal/fsutil"
)

// Write stores rec as JSON at path, replacing any previous record.
func Write(path string, rec Record) error {
	data, err := Encode(rec)
	if err != nil {
		return fmt.Errorf("encode handoff record: %w", err)
	}
	if err := fsutil.AtomicWriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write handoff record: %w", err)
	}
	return nil
}

// Read loads and decodes the record at path. A missing file yields
// StatusMissing; a read failure yields StatusMalformed.
func Read(path string, now time.Time) Result {
	data, err := os.ReadFile(path) //nolint:gosec // G304: fixed handoff location
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{Status: StatusMissing}
		}
		return Result{Status: StatusMalformed, Reason: fmt.Sprintf("read handoff record: %v", err)}
	}
	return Decode(data, now)
}

// Exists reports whether a handoff file is present.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Remove deletes the handoff file; a missing file is not an error.
func Remove(path string) error {
	if err := fsutil.RemoveIfExists(path); err != nil {
		return fmt.Errorf("remove handoff record: %w", err)
	}
	return nil
}
