package event_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/pr-reviewer/internal/domain"
	"github.com/bkyoung/pr-reviewer/internal/event"
)

func TestParse_ClassifiesEvents(t *testing.T) {
	testCases := []struct {
		name     string
		payload  string
		expected domain.EventType
	}{
		{"push", `{"head_commit": {"id": "abc"}}`, domain.EventTypePush},
		{"pull request", `{"number": 7, "pull_request": {"number": 7}}`, domain.EventTypePullRequest},
		{"comment", `{"comment": {"body": "hi"}}`, domain.EventTypeComment},
		{"other", `{"action": "created"}`, domain.EventTypeOther},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := event.Parse([]byte(tc.payload))
			require.NoError(t, err)
			assert.Equal(t, tc.expected, p.Type())
		})
	}
}

func TestParse_PullRequestFields(t *testing.T) {
	payload := `{
		"number": 42,
		"pull_request": {
			"number": 42,
			"title": "Add retry logic",
			"state": "open",
			"head": {"ref": "feature/retries", "sha": "deadbeef"},
			"base": {"ref": "main", "sha": "cafef00d"}
		}
	}`

	p, err := event.Parse([]byte(payload))
	require.NoError(t, err)

	assert.Equal(t, 42, p.PullRequestNumber())
	require.NotNil(t, p.PullRequest)
	assert.Equal(t, "Add retry logic", p.PullRequest.Title)
	assert.Equal(t, "deadbeef", p.PullRequest.Head.SHA)
	assert.Equal(t, "main", p.PullRequest.Base.Ref)
}

func TestParse_PullRequestNumberFallsBackToNested(t *testing.T) {
	p, err := event.Parse([]byte(`{"pull_request": {"number": 9}}`))
	require.NoError(t, err)
	assert.Equal(t, 9, p.PullRequestNumber())
}

func TestParse_InvalidJSON(t *testing.T) {
	_, err := event.Parse([]byte("{not json"))
	require.Error(t, err)
}

func TestLoad_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"number": 3, "pull_request": {"number": 3}}`), 0o600))

	p, err := event.Load(path)
	require.NoError(t, err)
	assert.Equal(t, domain.EventTypePullRequest, p.Type())
	assert.Equal(t, 3, p.PullRequestNumber())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := event.Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}
