// Package diff prepares unified diffs for LLM review: it annotates hunk
// lines with new-side line numbers so the model can anchor comments, elides
// generated lock files, splits multi-file patches, and truncates patches to
// a token budget.
package diff
