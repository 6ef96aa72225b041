package errors

import (
	"strings"
	"unicode"
)

// ValidateGraphName validates a graph name before it is used to derive a
// buffer name. Buffer names end up as file names and Redis/Mongo keys, so
// the rules are conservative:
//   - No empty names
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateGraphName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "graph name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidName, "graph name too long (max 128 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "graph name contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidName, "graph name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateRemotePath validates a path sent to the remote shell for listing.
// The path is interpolated into an `ls` command line, so shell
// metacharacters are rejected outright.
func ValidateRemotePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "remote path cannot be empty")
	}

	const maxPathLength = 1024
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "remote path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "remote path contains invalid characters")
		}
	}

	if strings.ContainsAny(path, "`$;|&<>'\"\\") {
		return New(ErrCodeInvalidInput, "remote path contains shell metacharacters")
	}

	// Only a leading home prefix is expanded; "~user" and embedded tildes
	// would reach ls literally.
	if i := strings.Index(path, "~"); i >= 0 &&
		(i > 0 || strings.Contains(path[1:], "~") || (len(path) > 1 && path[1] != '/')) {
		return New(ErrCodeInvalidInput, "remote path may only use ~ as a leading home prefix")
	}

	return nil
}
