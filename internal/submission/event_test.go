package submission

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registry/internal/types"
)

const openedEvent = `{
  "action": "opened",
  "issue": {
    "number": 17,
    "title": "[Update] Alice moved",
    "body": "### Name\nAlice\n### State\nNV\n### Record ID\n3",
    "user": {"login": "alice"},
    "labels": [{"name": "registry", "color": "ededed"}, "update"]
  },
  "repository": {"full_name": "acme/people"}
}`

func TestDecode(t *testing.T) {
	ev, err := Decode([]byte(openedEvent))
	require.NoError(t, err)

	assert.Equal(t, "opened", ev.Action)
	assert.Equal(t, "acme/people", ev.Repository)
	assert.Equal(t, 17, ev.Submission.Number)
	assert.Equal(t, "[Update] Alice moved", ev.Submission.Title)
	assert.Equal(t, "alice", ev.Submission.Author)
	require.NotNil(t, ev.Submission.Body)
	assert.Contains(t, *ev.Submission.Body, "### Record ID")
	assert.Equal(t, types.Labels("registry", "update"), ev.Submission.Labels)
	assert.True(t, ev.Submission.HasLabel("UPDATE"))
}

func TestDecodeBodyAbsent(t *testing.T) {
	for _, payload := range []string{
		`{"issue": {"number": 1, "title": "t", "user": {"login": "a"}}}`,
		`{"issue": {"number": 1, "title": "t", "body": null, "user": {"login": "a"}}}`,
		`{"issue": {"number": 1, "title": "t", "body": 42, "user": {"login": "a"}}}`,
	} {
		ev, err := Decode([]byte(payload))
		require.NoError(t, err)
		assert.Nil(t, ev.Submission.Body, payload)
	}
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte(`{not json`))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = Decode([]byte(`{"action": "opened"}`))
	assert.ErrorIs(t, err, ErrNoIssue)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event.json")
	require.NoError(t, os.WriteFile(path, []byte(openedEvent), 0o644))

	ev, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 17, ev.Submission.Number)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
