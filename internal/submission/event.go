// Package submission reads the inbound issue from a GitHub webhook/Actions
// event payload.
package submission

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"

	"registry/internal/types"
)

var (
	// ErrInvalidPayload indicates the payload is not JSON.
	ErrInvalidPayload = errors.New("submission: invalid event payload")
	// ErrNoIssue indicates the payload carries no issue object.
	ErrNoIssue = errors.New("submission: event has no issue")
)

// Event is the subset of an issues event the registry acts on.
type Event struct {
	Action     string
	Repository string // owner/name, empty when absent
	Submission types.Submission
}

// LoadFile reads and decodes an event payload from path.
func LoadFile(path string) (Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Event{}, fmt.Errorf("submission: read event %s: %w", path, err)
	}
	return Decode(data)
}

// Decode extracts the issue from an event payload. A body that is missing,
// null or not a string is left nil; intake rejects it as empty input.
func Decode(data []byte) (Event, error) {
	if !gjson.ValidBytes(data) {
		return Event{}, ErrInvalidPayload
	}
	root := gjson.ParseBytes(data)
	issue := root.Get("issue")
	if !issue.IsObject() {
		return Event{}, ErrNoIssue
	}

	sub := types.Submission{
		Number: int(issue.Get("number").Int()),
		Title:  issue.Get("title").String(),
		Author: issue.Get("user.login").String(),
		Labels: decodeLabels(issue.Get("labels")),
	}
	if body := issue.Get("body"); body.Type == gjson.String {
		text := body.String()
		sub.Body = &text
	}

	return Event{
		Action:     root.Get("action").String(),
		Repository: root.Get("repository.full_name").String(),
		Submission: sub,
	}, nil
}

// decodeLabels accepts both ["name", ...] and [{"name": ...}, ...].
func decodeLabels(v gjson.Result) []types.Label {
	if !v.IsArray() {
		return nil
	}
	var labels []types.Label
	v.ForEach(func(_, item gjson.Result) bool {
		var name string
		switch {
		case item.Type == gjson.String:
			name = item.String()
		case item.IsObject():
			name = item.Get("name").String()
		}
		if name = strings.TrimSpace(name); name != "" {
			labels = append(labels, types.Label{Name: name})
		}
		return true
	})
	return labels
}
