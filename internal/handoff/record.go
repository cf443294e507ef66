// Package handoff carries the export pointer from the PreCompact hook to the
// SessionStart hook through a single file under the hooks directory.
//
// Two wire forms are accepted on read: a JSON object with export_path,
// session_id and timestamp, and the legacy form where the file holds only the
// bare export path. Only the JSON form is written.
package handoff

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Record is the handoff message.
type Record struct {
	ExportPath string `json:"export_path"`
	SessionID  string `json:"session_id"`
	Timestamp  string `json:"timestamp"`
}

// Status tags the outcome of reading a handoff record.
type Status int

const (
	// StatusOK means a JSON object record was decoded.
	StatusOK Status = iota
	// StatusLegacy means the content was taken as a bare export path.
	StatusLegacy
	// StatusMissing means no handoff file exists.
	StatusMissing
	// StatusMalformed means the content could not be used as a record.
	StatusMalformed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusLegacy:
		return "legacy"
	case StatusMissing:
		return "missing"
	case StatusMalformed:
		return "malformed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Result is the outcome of Decode or Read. Record is meaningful only when
// Usable reports true; Reason explains a malformed outcome.
type Result struct {
	Record Record
	Status Status
	Reason string
}

// Usable reports whether a record was recovered.
func (r Result) Usable() bool {
	return r.Status == StatusOK || r.Status == StatusLegacy
}

// Timestamp formats t the way records are stamped.
func Timestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// New builds a record stamped at now.
func New(exportPath, sessionID string, now time.Time) Record {
	return Record{ExportPath: exportPath, SessionID: sessionID, Timestamp: Timestamp(now)}
}

// Encode returns the JSON form of rec.
func Encode(rec Record) ([]byte, error) {
	return json.Marshal(rec)
}

// wireRecord distinguishes an absent timestamp from an empty one.
type wireRecord struct {
	ExportPath string  `json:"export_path"`
	SessionID  string  `json:"session_id"`
	Timestamp  *string `json:"timestamp"`
}

// Decode interprets handoff file content. It never fails: content that is not
// JSON is taken as a legacy bare path stamped at now, and JSON that does not
// describe a record yields StatusMalformed.
func Decode(data []byte, now time.Time) Result {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Result{Status: StatusMalformed, Reason: "empty handoff record"}
	}

	if !json.Valid(trimmed) {
		return legacy(string(trimmed), now)
	}

	switch trimmed[0] {
	case '{':
		var w wireRecord
		if err := json.Unmarshal(trimmed, &w); err != nil {
			return Result{Status: StatusMalformed, Reason: fmt.Sprintf("decode handoff record: %v", err)}
		}
		rec := Record{ExportPath: w.ExportPath, SessionID: w.SessionID, Timestamp: Timestamp(now)}
		if w.Timestamp != nil {
			rec.Timestamp = *w.Timestamp
		}
		return Result{Record: rec, Status: StatusOK}
	case '"':
		var path string
		if err := json.Unmarshal(trimmed, &path); err != nil {
			return Result{Status: StatusMalformed, Reason: fmt.Sprintf("decode handoff path: %v", err)}
		}
		return legacy(strings.TrimSpace(path), now)
	default:
		return Result{Status: StatusMalformed, Reason: "handoff record is not an object or path"}
	}
}

func legacy(path string, now time.Time) Result {
	return Result{
		Record: Record{ExportPath: path, Timestamp: Timestamp(now)},
		Status: StatusLegacy,
	}
}
