// Package classify infers the operation kind a submission asks for from its
// title and labels alone. The body is never consulted; the validator
// cross-checks the two inferences.
package classify

import (
	"strings"

	"golang.org/x/text/cases"

	"registry/internal/types"
)

// Default label sets.
var (
	DefaultUpdateLabels = []string{"update", "update-record"}
	DefaultCreateLabels = []string{"create", "create-record"}
)

// Classifier holds the label names that select each kind.
type Classifier struct {
	UpdateLabels []string
	CreateLabels []string
}

// New returns a classifier, falling back to the default label sets for any
// empty argument.
func New(updateLabels, createLabels []string) Classifier {
	if len(updateLabels) == 0 {
		updateLabels = DefaultUpdateLabels
	}
	if len(createLabels) == 0 {
		createLabels = DefaultCreateLabels
	}
	return Classifier{UpdateLabels: updateLabels, CreateLabels: createLabels}
}

// Classify uses the default label sets.
func Classify(title string, labels []types.Label) types.OperationKind {
	return New(nil, nil).Classify(title, labels)
}

// Classify applies, first match wins: update label, create label, update
// title marker, create title marker, then create.
func (c Classifier) Classify(title string, labels []types.Label) types.OperationKind {
	names := foldLabels(labels)
	if containsAny(names, c.UpdateLabels) {
		return types.OperationUpdate
	}
	if containsAny(names, c.CreateLabels) {
		return types.OperationCreate
	}

	t := fold(strings.TrimSpace(title))
	if strings.Contains(t, "[update]") || strings.HasPrefix(t, "update:") {
		return types.OperationUpdate
	}
	if strings.Contains(t, "[create]") || strings.HasPrefix(t, "create:") {
		return types.OperationCreate
	}
	return types.OperationCreate
}

func foldLabels(labels []types.Label) map[string]struct{} {
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if name := strings.TrimSpace(l.Name); name != "" {
			set[fold(name)] = struct{}{}
		}
	}
	return set
}

func containsAny(set map[string]struct{}, wanted []string) bool {
	for _, w := range wanted {
		if _, ok := set[fold(strings.TrimSpace(w))]; ok {
			return true
		}
	}
	return false
}

func fold(s string) string {
	return cases.Fold().String(s)
}
