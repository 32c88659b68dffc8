// Package event loads and classifies GitHub Actions event payloads.
package event

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/bkyoung/pr-reviewer/internal/domain"
)

// Payload is the decoded GITHUB_EVENT_PATH document. Only the fields the
// reviewer dispatches on are modelled; the raw document is kept for
// diagnostics.
type Payload struct {
	Number      int              `json:"number"`
	HeadCommit  *json.RawMessage `json:"head_commit"`
	PullRequest *PullRequest     `json:"pull_request"`
	Comment     *json.RawMessage `json:"comment"`
}

// PullRequest is the pull_request object embedded in the payload.
type PullRequest struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Head   Ref    `json:"head"`
	Base   Ref    `json:"base"`
	State  string `json:"state"`
}

// Ref identifies one side of a pull request.
type Ref struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

// Load reads and decodes the event payload at path.
func Load(path string) (Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Payload{}, fmt.Errorf("read event payload: %w", err)
	}
	return Parse(data)
}

// Parse decodes an event payload document.
func Parse(data []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, fmt.Errorf("decode event payload: %w", err)
	}
	return p, nil
}

// Type classifies the payload. Push events carry head_commit, pull request
// events carry pull_request, comment events carry comment; anything else is
// reported as other and skipped by the caller.
func (p Payload) Type() domain.EventType {
	switch {
	case p.HeadCommit != nil:
		return domain.EventTypePush
	case p.PullRequest != nil:
		return domain.EventTypePullRequest
	case p.Comment != nil:
		return domain.EventTypeComment
	default:
		return domain.EventTypeOther
	}
}

// PullRequestNumber returns the PR number for pull_request payloads,
// preferring the top-level number field the Actions runtime sets.
func (p Payload) PullRequestNumber() int {
	if p.Number != 0 {
		return p.Number
	}
	if p.PullRequest != nil {
		return p.PullRequest.Number
	}
	return 0
}
