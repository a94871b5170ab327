// Package naming cleans model-proposed filenames and decides where the
// renamed file lands on disk.
package naming

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Characters refused by Windows filesystems and SMB shares. The watch
// directory is commonly a network share exported from such a system, so the
// strictest rules apply regardless of the local platform.
const reservedChars = `:/"?*<>|\`

const minNameLength = 5

// Result is the outcome of sanitizing a proposed filename. Rejection is an
// expected outcome rather than an error: vision models sometimes answer with
// refusals or fragments too short to make a useful name.
type Result struct {
	Name     string
	Rejected bool
	Reason   string
}

// Sanitize removes every filesystem-reserved character, trims surrounding
// whitespace plus leading/trailing dots, and rejects anything shorter than
// five characters. Internal dots and spacing are left untouched.
func Sanitize(raw string) Result {
	clean := raw
	for _, ch := range reservedChars {
		clean = strings.ReplaceAll(clean, string(ch), "")
	}
	clean = strings.TrimSpace(clean)
	clean = strings.Trim(clean, ". ")

	if utf8.RuneCountInString(clean) < minNameLength {
		return Result{
			Rejected: true,
			Reason:   fmt.Sprintf("cleaned name %q is shorter than %d characters", clean, minNameLength),
		}
	}

	return Result{Name: clean}
}
