package errors

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// ValidateCell checks that (x, y) lies inside a width×height grid. role
// names the cell in the message ("goal", "start 2", ...).
func ValidateCell(role string, x, y, width, height int) error {
	if x < 0 || y < 0 || x >= width || y >= height {
		return New(ErrCodeInvalidRequest, "%s (%d,%d) is outside the %dx%d grid", role, x, y, width, height)
	}
	return nil
}

// ValidateName validates a map or store name for safety.
// It rejects names that could be used for path traversal or injection attacks.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path traversal sequences (.., //, etc.)
//   - Maximum length of 128 characters
func ValidateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidRequest, "name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidRequest, "name too long (max 128 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidRequest, "name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidRequest, "name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateSessionID checks that id is a canonical UUID.
func ValidateSessionID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidRequest, "session id cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return Wrap(ErrCodeInvalidRequest, err, "invalid session id %q", id)
	}
	return nil
}

// ValidateMapPath validates a map file path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - Extension must be .json or .toml
func ValidateMapPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidMap, "map path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidMap, "map path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidMap, "map path contains invalid characters")
		}
	}

	lower := strings.ToLower(path)
	if !strings.HasSuffix(lower, ".json") && !strings.HasSuffix(lower, ".toml") {
		return New(ErrCodeInvalidMap, "map file must be .json or .toml: %q", path)
	}

	return nil
}
