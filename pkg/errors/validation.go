package errors

import (
	"strings"
	"unicode"
)

// ValidateRepoName validates a repository identifier for safety.
// It rejects names that could be used for path traversal or injection when
// the identifier is later turned into cache keys, store indices, or paths.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters or null bytes
//   - No path traversal sequences (.., //, backslash)
//   - Maximum length of 256 characters
func ValidateRepoName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidRepo, "repo name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidRepo, "repo name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidRepo, "repo name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}
	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidRepo, "repo name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateRef validates a git ref name (branch, tag, or HEAD).
// It applies the subset of git's ref rules that matters for key safety.
func ValidateRef(ref string) error {
	if ref == "" {
		return New(ErrCodeInvalidInput, "ref cannot be empty")
	}
	if len(ref) > 256 {
		return New(ErrCodeInvalidInput, "ref too long (max 256 characters)")
	}
	if strings.ContainsAny(ref, " ~^:?*[\\") || strings.Contains(ref, "..") {
		return New(ErrCodeInvalidInput, "ref contains characters git forbids: %q", ref)
	}
	for _, r := range ref {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "ref contains control characters")
		}
	}
	return nil
}
