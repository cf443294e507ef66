package extract

import (
	"regexp"
	"strings"
)

const (
	// versionPinPrefix marks environment variables that pin the Python
	// runtime pyenv resolves shims against.
	versionPinPrefix = "PYENV_"

	// versionPinVar selects a pyenv version for a single invocation.
	versionPinVar = "PYENV_VERSION"

	// versionListHeader introduces pyenv's list of versions that provide a
	// command missing from the selected version.
	versionListHeader = "command exists in these Python versions:"
)

var versionLine = regexp.MustCompile(`^\s+(\d+\.\d+\.\d+)\s*$`)

// ParseAvailableVersions extracts the dotted versions listed under pyenv's
// "command exists in these Python versions:" header, e.g.
//
//	pyenv: claude-extract: command not found
//
//	The `claude-extract' command exists in these Python versions:
//	  3.11.10
//	  3.13.0
//
// Indented lines that are not versions are skipped; the first unindented
// non-empty line ends the list. Text without the header yields nil.
func ParseAvailableVersions(stderr string) []string {
	var versions []string
	inList := false
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.Contains(line, versionListHeader) {
			inList = true
			continue
		}
		if !inList {
			continue
		}
		if m := versionLine.FindStringSubmatch(line); m != nil {
			versions = append(versions, m[1])
			continue
		}
		if strings.TrimSpace(line) != "" && !strings.HasPrefix(line, " ") {
			break
		}
	}
	return versions
}

// FilterEnv drops runtime version pins from an environment list so stale
// pins from the host shell do not break tool resolution. PATH is kept.
func FilterEnv(environ []string) []string {
	out := make([]string, 0, len(environ))
	for _, kv := range environ {
		if strings.HasPrefix(kv, versionPinPrefix) {
			continue
		}
		out = append(out, kv)
	}
	return out
}
