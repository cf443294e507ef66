package config

import "strings"

// Template placeholders.
const (
	PlaceholderExportPath = "{export_path}"
	PlaceholderSessionID  = "{session_id}"
	PlaceholderTimestamp  = "{timestamp}"
)

// Render substitutes the three placeholders into template.
// Any other brace text is left as written.
func Render(template, exportPath, sessionID, timestamp string) string {
	return strings.NewReplacer(
		PlaceholderExportPath, exportPath,
		PlaceholderSessionID, sessionID,
		PlaceholderTimestamp, timestamp,
	).Replace(template)
}
