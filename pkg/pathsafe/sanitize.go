// Package pathsafe turns untrusted, slash-separated logical paths from a site
// manifest into relative paths that are safe to create under a destination root.
package pathsafe

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrInvalidPath is returned for logical paths that cannot be written safely.
var ErrInvalidPath = errors.New("invalid path")

// Separator delimits segments of a logical path.
const Separator = "/"

// illegalChars are replaced with an underscore in every segment.
const illegalChars = `<>:"\|?*`

func sanitizeSegment(seg string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(illegalChars, r) {
			return '_'
		}
		return r
	}, seg)
}

// Sanitize returns the slash-separated safe form of logical.
// Empty segments and "." or ".." segments are rejected rather than collapsed.
// Sanitize(Sanitize(p)) == Sanitize(p) for every accepted p.
func Sanitize(logical string) (string, error) {
	if logical == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	segments := strings.Split(logical, Separator)
	for i, seg := range segments {
		switch seg {
		case "":
			return "", fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, logical)
		case ".", "..":
			return "", fmt.Errorf("%w: relative segment %q in %q", ErrInvalidPath, seg, logical)
		}
		segments[i] = sanitizeSegment(seg)
	}
	return strings.Join(segments, Separator), nil
}

// Join sanitizes logical and joins it under root using OS separators.
// The returned path is guaranteed to stay inside root.
func Join(root, logical string) (string, error) {
	safe, err := Sanitize(logical)
	if err != nil {
		return "", err
	}
	cleanRoot := filepath.Clean(root)
	dest := filepath.Join(cleanRoot, filepath.FromSlash(safe))

	rel, err := filepath.Rel(cleanRoot, dest)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %q escapes destination root", ErrInvalidPath, logical)
	}
	return dest, nil
}
