package exports

import (
	"os"
	"time"
)

// Retention modes.
const (
	ModeAge   = "age"
	ModeCount = "count"
)

// Policy is a retention policy applied to a directory of exports.
type Policy struct {
	Enabled    bool
	Format     string
	Mode       string
	MaxAgeDays int
	MaxCount   int
}

// Sweep deletes exports that fall outside policy and returns the paths it
// removed. Per-file delete failures are skipped.
func Sweep(dir string, policy Policy, now time.Time) []string {
	if !policy.Enabled {
		return nil
	}
	list, err := List(dir, policy.Format)
	if err != nil || len(list) == 0 {
		return nil
	}

	var removed []string
	for _, e := range expired(list, policy.Mode, policy.MaxAgeDays, policy.MaxCount, now) {
		if err := os.Remove(e.Path); err != nil {
			continue
		}
		removed = append(removed, e.Path)
	}
	return removed
}

// expired selects entries from a newest-first list that the mode discards.
// Unknown modes select nothing.
func expired(list []Export, mode string, maxAgeDays, maxCount int, now time.Time) []Export {
	switch mode {
	case ModeAge:
		cutoff := now.AddDate(0, 0, -maxAgeDays)
		var out []Export
		for _, e := range list {
			if e.ModTime.Before(cutoff) {
				out = append(out, e)
			}
		}
		return out
	case ModeCount:
		if maxCount < 0 || len(list) <= maxCount {
			return nil
		}
		return list[maxCount:]
	}
	return nil
}

// CleanOptions drives an explicit clean. OlderThanDays takes precedence over
// KeepCount; when neither is set the configured Policy applies.
type CleanOptions struct {
	OlderThanDays *int
	KeepCount     *int
	DryRun        bool
	Policy        Policy
}

// Clean selects exports to delete and removes them unless DryRun is set.
// It returns the selected exports.
func Clean(dir, format string, opts CleanOptions, now time.Time) ([]Export, error) {
	list, err := List(dir, format)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	var selected []Export
	switch {
	case opts.OlderThanDays != nil:
		selected = expired(list, ModeAge, *opts.OlderThanDays, 0, now)
	case opts.KeepCount != nil:
		selected = expired(list, ModeCount, 0, *opts.KeepCount, now)
	case opts.Policy.Enabled:
		selected = expired(list, opts.Policy.Mode, opts.Policy.MaxAgeDays, opts.Policy.MaxCount, now)
	}

	if !opts.DryRun {
		for _, e := range selected {
			_ = os.Remove(e.Path)
		}
	}
	return selected, nil
}
