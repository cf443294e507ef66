package exports

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Editor returns the command used to open exports: $EDITOR, then $VISUAL,
// then the platform opener.
func Editor() string {
	for _, env := range []string{"EDITOR", "VISUAL"} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v
		}
	}
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "windows":
		return "notepad"
	default:
		return "xdg-open"
	}
}

// Open launches editor on the export at a 1-based index, attached to the
// current terminal.
func Open(dir, format string, index int, editor string) (Export, error) {
	list, err := List(dir, format)
	if err != nil {
		return Export{}, err
	}
	e, err := Select(list, index)
	if err != nil {
		return Export{}, err
	}

	if err := RunEditor(editor, e.Path); err != nil {
		return Export{}, err
	}
	return e, nil
}

// RunEditor runs editor on path attached to the current terminal. editor may
// carry arguments, as in "code --wait".
func RunEditor(editor, path string) error {
	fields := strings.Fields(editor)
	if len(fields) == 0 {
		return fmt.Errorf("no editor configured")
	}
	bin, err := exec.LookPath(fields[0])
	if err != nil {
		return fmt.Errorf("editor not found: %s", fields[0])
	}

	args := append(fields[1:], path)
	cmd := exec.Command(bin, args...) //nolint:gosec // G204: editor comes from the user's own environment
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	return nil
}
