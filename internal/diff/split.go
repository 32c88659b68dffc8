package diff

import (
	"fmt"
	"strings"
)

// FilePatch is the per-file slice of a multi-file unified diff.
type FilePatch struct {
	Path  string
	Patch string
}

// SplitFiles splits a multi-file unified diff into per-file patches. The
// path is taken from the "+++ b/" header, falling back to the "diff --git"
// line for deleted files.
func SplitFiles(patch string) []FilePatch {
	if patch == "" {
		return nil
	}

	var result []FilePatch
	var current []string
	flush := func() {
		if len(current) == 0 {
			return
		}
		section := strings.Join(current, "\n")
		result = append(result, FilePatch{
			Path:  sectionPath(current),
			Patch: section,
		})
		current = nil
	}

	for _, line := range strings.Split(patch, "\n") {
		if strings.HasPrefix(line, "diff --git ") {
			flush()
		}
		current = append(current, line)
	}
	flush()

	return result
}

func sectionPath(lines []string) string {
	for _, line := range lines {
		if name, ok := strings.CutPrefix(line, "+++ "); ok && name != "/dev/null" {
			return strings.TrimPrefix(name, "b/")
		}
	}
	for _, line := range lines {
		if name, ok := strings.CutPrefix(line, "--- "); ok && name != "/dev/null" {
			return strings.TrimPrefix(name, "a/")
		}
	}
	return ""
}

// WithHeader prepends a git patch header, defaulting the old name to the new
// one when the file was not renamed. The GitHub files API returns bare hunks
// without this header.
func WithHeader(previousName, name, patch string) string {
	if previousName == "" {
		previousName = name
	}
	return fmt.Sprintf("diff --git a/%s b/%s\n%s", previousName, name, patch)
}

// Truncate trims trailing lines from a patch until estimate reports it fits
// within budget tokens. Returns the patch unchanged when it already fits and
// an empty string when not even the first line fits.
func Truncate(patch string, budget int, estimate func(string) int) string {
	if estimate(patch) < budget {
		return patch
	}

	lines := strings.Split(patch, "\n")
	for i := len(lines) - 1; i > 0; i-- {
		candidate := strings.Join(lines[:i], "\n")
		if estimate(candidate) < budget {
			return candidate
		}
	}
	return ""
}
