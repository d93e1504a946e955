package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Label is one issue label. On the wire it is either a bare string or an
// object with a "name" member.
type Label struct {
	Name string `json:"name"`
}

// UnmarshalJSON accepts both label encodings.
func (l *Label) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		l.Name = name
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("label must be a string or an object with a name: %w", err)
	}
	l.Name = obj.Name
	return nil
}

// Labels builds a label set from plain names.
func Labels(names ...string) []Label {
	out := make([]Label, 0, len(names))
	for _, n := range names {
		out = append(out, Label{Name: n})
	}
	return out
}

// Submission is one inbound issue as delivered by the hosting trigger. Body
// is nil when the payload carried no string body.
type Submission struct {
	Number int     `json:"number"`
	Title  string  `json:"title"`
	Body   *string `json:"body"`
	Author string  `json:"author"`
	Labels []Label `json:"labels"`
}

// HasLabel reports whether any label matches name, ignoring case.
func (s Submission) HasLabel(name string) bool {
	for _, l := range s.Labels {
		if strings.EqualFold(strings.TrimSpace(l.Name), name) {
			return true
		}
	}
	return false
}
