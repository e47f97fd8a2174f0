// Package validation checks document locators before they reach the
// filesystem, so a hostile linkbase href cannot read outside the taxonomy
// mirror.
package validation

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"unicode"
)

// MaxLocatorLength bounds the length of a locator.
const MaxLocatorLength = 4096

// Common validation errors.
var (
	ErrPathTraversal    = errors.New("path traversal detected")
	ErrLocatorTooLong   = errors.New("locator too long")
	ErrInvalidCharacter = errors.New("invalid character in locator")
	ErrEmptyLocator     = errors.New("locator cannot be empty")
	ErrInvalidHost      = errors.New("invalid host")
)

// ValidateLocator rejects empty or oversized locators and those holding
// null bytes or control characters.
func ValidateLocator(locator string) error {
	if locator == "" {
		return ErrEmptyLocator
	}
	if len(locator) > MaxLocatorLength {
		return ErrLocatorTooLong
	}
	for _, r := range locator {
		if r == 0 {
			return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
		}
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}

// SanitizePath cleans a slash-separated relative path and ensures it stays
// inside baseDir. It returns the cleaned path relative to baseDir.
func SanitizePath(baseDir, userPath string) (string, error) {
	if err := ValidateLocator(userPath); err != nil {
		return "", err
	}

	clean := path.Clean("/" + userPath)
	if clean != "/"+strings.TrimPrefix(path.Clean(userPath), "/") {
		return "", ErrPathTraversal
	}
	rel := filepath.FromSlash(strings.TrimPrefix(clean, "/"))
	if rel == "" {
		return "", fmt.Errorf("%w: path names the mirror root", ErrPathTraversal)
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}
	absPath, err := filepath.Abs(filepath.Join(baseDir, rel))
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	r, err := filepath.Rel(absBase, absPath)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}
	return rel, nil
}

// MirrorPath maps the host and path of a remote locator into mirror,
// laid out as <mirror>/<host>/<path>.
func MirrorPath(mirror, host, urlPath string) (string, error) {
	if host == "" || host == "." || host == ".." || strings.ContainsAny(host, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidHost, host)
	}
	rel, err := SanitizePath(filepath.Join(mirror, host), urlPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(mirror, host, rel), nil
}
