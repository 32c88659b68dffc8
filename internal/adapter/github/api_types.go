package github

// GitHub REST API types.
// See: https://docs.github.com/en/rest/pulls and /rest/issues/comments

// User represents a GitHub user in API responses.
type User struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
	Type  string `json:"type"` // "User" or "Bot"
}

// PullRequestResponse is the response from GET /repos/{owner}/{repo}/pulls/{pull_number}.
type PullRequestResponse struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	State  string `json:"state"`
	Head   RefRef `json:"head"`
	Base   RefRef `json:"base"`
}

// RefRef is a branch reference within a pull request response.
type RefRef struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

// IssueComment is a conversation comment on an issue or pull request.
type IssueComment struct {
	ID   int64  `json:"id"`
	Body string `json:"body"`
	User User   `json:"user"`
}

// PullComment is an inline review comment on a pull request diff.
type PullComment struct {
	ID   int64  `json:"id"`
	Body string `json:"body"`
	Path string `json:"path"`
	User User   `json:"user"`
}

// ChangedFileResponse is one entry from GET /repos/{owner}/{repo}/pulls/{pull_number}/files.
type ChangedFileResponse struct {
	Filename         string `json:"filename"`
	PreviousFilename string `json:"previous_filename,omitempty"`
	Status           string `json:"status"` // added, removed, modified, renamed, ...
	Patch            string `json:"patch,omitempty"`
}

// createIssueCommentRequest is the body for POST /repos/{owner}/{repo}/issues/{issue_number}/comments.
type createIssueCommentRequest struct {
	Body string `json:"body"`
}

// createReviewCommentRequest is the body for POST /repos/{owner}/{repo}/pulls/{pull_number}/comments.
// Uses the line/side comment format rather than legacy diff positions.
type createReviewCommentRequest struct {
	Body      string `json:"body"`
	CommitID  string `json:"commit_id"`
	Path      string `json:"path"`
	Line      int    `json:"line"`
	Side      string `json:"side"`
	StartLine int    `json:"start_line,omitempty"`
	StartSide string `json:"start_side,omitempty"`
}

// ReviewCommentRequest contains all data needed to post one inline comment.
type ReviewCommentRequest struct {
	Owner     string
	Repo      string
	Number    int
	CommitSHA string
	Path      string
	Body      string

	// Line is the new-side line the comment attaches to. StartLine, when
	// lower than Line, makes the comment span a range.
	Line      int
	StartLine int
}

// GitHubErrorResponse represents an error response from the GitHub API.
type GitHubErrorResponse struct {
	Message          string `json:"message"`
	DocumentationURL string `json:"documentation_url"`
	Errors           []struct {
		Resource string `json:"resource"`
		Field    string `json:"field"`
		Code     string `json:"code"`
		Message  string `json:"message"`
	} `json:"errors,omitempty"`
}
