package commands

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
)

// isAccessibleMode enables screen-reader friendly prompts when ACCESSIBLE is set.
func isAccessibleMode() bool {
	return os.Getenv("ACCESSIBLE") != ""
}

func huhConfirm(title, description string) (bool, error) {
	confirmed := false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("Cancel").
				Value(&confirmed),
		),
	)
	if isAccessibleMode() {
		form = form.WithAccessible(true)
	}
	if err := form.Run(); err != nil {
		return false, fmt.Errorf("confirmation failed: %w", err)
	}
	return confirmed, nil
}
