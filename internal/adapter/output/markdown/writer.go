// Package markdown renders local-mode reviews into Markdown report files.
package markdown

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bkyoung/pr-reviewer/internal/usecase/review"
)

type clock func() string

// Writer renders reviews into Markdown files.
type Writer struct {
	now clock
}

// NewWriter constructs a Markdown writer with a timestamp supplier.
func NewWriter(now clock) *Writer {
	return &Writer{now: now}
}

var _ review.MarkdownWriter = (*Writer)(nil)

// Write persists a Markdown artifact to disk and returns its path.
func (w *Writer) Write(artifact review.MarkdownArtifact) (string, error) {
	if err := os.MkdirAll(artifact.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	filename := fmt.Sprintf("%s_%s_%s.md",
		sanitise(artifact.Repository),
		sanitise(artifact.Result.Model),
		w.now(),
	)
	path := filepath.Join(artifact.OutputDir, filename)

	content := buildContent(artifact)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write markdown: %w", err)
	}

	return path, nil
}

func buildContent(artifact review.MarkdownArtifact) string {
	var builder strings.Builder
	caser := cases.Title(language.English)

	builder.WriteString("# Code Review Report\n\n")
	builder.WriteString(fmt.Sprintf("- Repository: %s\n", artifact.Repository))
	builder.WriteString(fmt.Sprintf("- Model: %s\n", artifact.Result.Model))
	builder.WriteString(fmt.Sprintf("- Base: %s\n", artifact.BaseRef))
	builder.WriteString(fmt.Sprintf("- Head: %s\n", artifact.HeadSHA))
	builder.WriteString(fmt.Sprintf("- Cost: $%.4f\n\n", artifact.Result.Cost))
	builder.WriteString("## Summary\n\n")
	builder.WriteString(artifact.Result.Review.PRComment)
	builder.WriteString("\n\n")

	comments := artifact.Result.Review.FileComments
	if len(comments) == 0 {
		builder.WriteString("No file comments.\n")
		return builder.String()
	}

	builder.WriteString("## File Comments\n\n")
	for _, comment := range comments {
		title := caser.String(filepath.Base(comment.File))
		if comment.MultiLine() {
			builder.WriteString(fmt.Sprintf("### %s (lines %d-%d)\n", title, comment.StartLine, comment.Line))
		} else {
			builder.WriteString(fmt.Sprintf("### %s (line %d)\n", title, comment.Line))
		}
		builder.WriteString(fmt.Sprintf("- File: %s\n", comment.File))
		builder.WriteString(fmt.Sprintf("- Comment: %s\n", comment.Comment))
		builder.WriteString("\n")
	}

	return builder.String()
}

func sanitise(value string) string {
	if value == "" {
		return "unknown"
	}
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, string(filepath.Separator), "-")
	value = strings.ReplaceAll(value, " ", "-")
	return value
}
