package review

import "fmt"

// SystemPrompt frames the model as a reviewer and keeps it focused on
// substantive findings rather than restating the diff.
const SystemPrompt = `You are an expert developer reviewing pull requests.
Be compact in your reviews and highlight only important things
(i.e. potential bugs, security issues and critical parts in code).

Please only submit a comment if the section actually requires the
attention of a senior developer, or if you spot a bug or unused variable.

You should not comment on things just because they have changed; comment
about logical errors in the codebase or things which could easily be
missed by another senior developer.`

// PRPrompt asks for a whole-PR review as pure JSON. The diff has been
// annotated with new-side line numbers so the model can fill start_line and
// line accurately.
func PRPrompt(changes string) string {
	return fmt.Sprintf(`Here are the changes for this pull request:
`+"```"+`
%s
`+"```"+`
Each added or unchanged line is prefixed with its line number in the new
file. Please comment on the above git diff.

Produce pure JSON output, without any extra symbols (like `+"```json"+`).

EXAMPLE:
{
  "pr_comment": "A short comment on the entire PR (should be compact)",
  "file_comments": [
    {
      "file": "path/somefile.go",
      "start_line": 198,
      "line": 200,
      "comment": "somecomment"
    }
  ]
}

start_line must be <= line, line should be the exact line you wish to
comment on, and each comment should be compact and helpful. Respond with
"pr_comment": "LGTM" and no file comments when there is nothing worth
raising.`, changes)
}

// FilePrompt asks for a review of a single file's changes, using the same
// JSON contract as PRPrompt.
func FilePrompt(filename, changes string) string {
	return fmt.Sprintf(`Here are the changes for file %q within this pull request:
`+"```"+`
%s
`+"```"+`
Each added or unchanged line is prefixed with its line number in the new
file. Review only this file. Produce pure JSON output with the same shape:
{"pr_comment": "...", "file_comments": [{"file": %q, "start_line": N, "line": N, "comment": "..."}]}
Respond with "pr_comment": "LGTM" and no file comments when there is
nothing worth raising.`, filename, changes, filename)
}
