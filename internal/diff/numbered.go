package diff

import (
	"strconv"
	"strings"
)

// OmittedMarker replaces the hunk body of files elided for brevity.
const OmittedMarker = "**FILE OMITTED FOR BREVITY**"

// skippedFileSuffixes are generated files whose contents add noise without
// review value. Their hunks are replaced with OmittedMarker.
var skippedFileSuffixes = []string{".lock", "-lock.json"}

// NumberLines annotates a unified diff with new-side line numbers.
//
// Added and context lines are prefixed with "<line>\t" where <line> is the
// line number in the new file; deleted lines are prefixed with a bare tab so
// the model never anchors a comment to a line that no longer exists. File
// headers and hunk headers pass through unchanged. Patches without hunks are
// returned as-is.
func NumberLines(patch string) string {
	if !strings.Contains(patch, "@@") {
		return patch
	}

	lines := strings.Split(patch, "\n")
	out := make([]string, 0, len(lines))

	lineNo := 0
	inHunk := false
	skipFile := false
	markerEmitted := false
	currentFile := ""

	for i, line := range lines {
		// A trailing empty line is the artifact of the final newline, not
		// hunk content.
		if i == len(lines)-1 && line == "" {
			out = append(out, "")
			break
		}

		switch {
		case isFileHeader(line):
			inHunk = false
			if name, ok := strings.CutPrefix(line, "+++ "); ok {
				currentFile = strings.TrimPrefix(name, "b/")
				skipFile = false
				markerEmitted = false
			}
			out = append(out, line)

		case strings.HasPrefix(line, "@@"):
			start, ok := parseHunkHeader(line)
			if !ok {
				inHunk = false
				out = append(out, line)
				continue
			}
			inHunk = true
			lineNo = start - 1
			skipFile = isSkippedFile(currentFile)
			out = append(out, line)
			if skipFile && !markerEmitted {
				out = append(out, OmittedMarker)
				markerEmitted = true
			}

		case inHunk && skipFile:
			// Suppressed until the next file header.

		case inHunk && strings.HasPrefix(line, `\ `):
			// "\ No newline at end of file" does not consume a line number.
			out = append(out, line)

		case inHunk && strings.HasPrefix(line, "-"):
			out = append(out, "\t"+line)

		case inHunk:
			lineNo++
			out = append(out, strconv.Itoa(lineNo)+"\t"+line)

		default:
			out = append(out, line)
		}
	}

	return strings.Join(out, "\n")
}

// isFileHeader reports whether the line is part of a per-file diff header
// rather than hunk content. Checked before deletion handling so that a
// "--- a/path" header inside a multi-file patch is not mistaken for a
// deleted line.
func isFileHeader(line string) bool {
	for _, prefix := range []string{
		"diff --git ",
		"index ",
		"--- ",
		"+++ ",
		"new file mode",
		"deleted file mode",
		"old mode",
		"new mode",
		"similarity index",
		"dissimilarity index",
		"rename from",
		"rename to",
		"copy from",
		"copy to",
		"Binary files",
	} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// parseHunkHeader extracts the new-side start line from a header like
// "@@ -10,7 +10,8 @@ optional context".
func parseHunkHeader(line string) (start int, ok bool) {
	parts := strings.Split(line, "@@")
	if len(parts) < 2 {
		return 0, false
	}
	for _, field := range strings.Fields(strings.TrimSpace(parts[1])) {
		rangeSpec, found := strings.CutPrefix(field, "+")
		if !found {
			continue
		}
		if idx := strings.Index(rangeSpec, ","); idx >= 0 {
			rangeSpec = rangeSpec[:idx]
		}
		n, err := strconv.Atoi(rangeSpec)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func isSkippedFile(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range skippedFileSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
