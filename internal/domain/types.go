package domain

// EventType classifies a GitHub workflow event payload.
type EventType string

const (
	EventTypePush        EventType = "push"
	EventTypePullRequest EventType = "pull_request"
	EventTypeComment     EventType = "comment"
	EventTypeOther       EventType = "other"
)

// Review is the structured output the LLM is asked to produce for a pull
// request. PRComment is the summary posted as an issue comment;
// FileComments become inline review comments.
type Review struct {
	PRComment    string        `json:"pr_comment"`
	FileComments []FileComment `json:"file_comments"`
}

// FileComment is a single inline comment anchored to new-side line numbers.
// StartLine must be <= Line; when they are equal the comment covers one line.
type FileComment struct {
	File      string `json:"file"`
	StartLine int    `json:"start_line"`
	Line      int    `json:"line"`
	Comment   string `json:"comment"`
}

// MultiLine reports whether the comment spans more than one line.
func (c FileComment) MultiLine() bool {
	return c.StartLine != 0 && c.StartLine != c.Line
}

// ReviewResult bundles a parsed review with provider metadata and cost.
type ReviewResult struct {
	Review Review
	Model  string
	Cost   float64 // USD
}

// ChangedFile is a file touched by a pull request.
type ChangedFile struct {
	Filename         string
	PreviousFilename string
	Status           string
}

// PullRequest carries the subset of PR metadata the reviewer needs.
type PullRequest struct {
	Number  int
	Title   string
	HeadSHA string
}
