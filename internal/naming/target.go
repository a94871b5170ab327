package naming

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// TargetPath builds the destination for a rename: the original file's
// directory joined with the clean name plus the original extension, preserved
// verbatim including case.
func TargetPath(originalPath, cleanName string) string {
	ext := filepath.Ext(originalPath)
	return filepath.Join(filepath.Dir(originalPath), cleanName+ext)
}

// EnsureUnique resolves target collisions by appending " (2)", " (3)", ...
// before the extension until the path does not exist. The stat-then-rename
// window is accepted at single-operator scale.
func EnsureUnique(path string) string {
	if !exists(path) {
		return path
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)

	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		if !exists(candidate) {
			return candidate
		}
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

// Processed reports whether a filename already follows the output convention:
// four leading digits then a dash, as in "2025-01-01 - Sender - Subject.pdf".
// Such files are excluded from the startup sweep.
func Processed(name string) bool {
	if len(name) <= 10 || name[4] != '-' {
		return false
	}
	for i := 0; i < 4; i++ {
		if name[i] < '0' || name[i] > '9' {
			return false
		}
	}
	return true
}
