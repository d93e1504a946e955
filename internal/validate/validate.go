// Package validate checks a normalized record against the submission rules.
// All rules run on every call so the submitter sees every problem at once.
package validate

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"registry/internal/types"
)

// Validate checks rec against the operation kind inferred from the
// submission's title and labels.
func Validate(rec types.NormalizedRecord, expected types.OperationKind) types.ValidationResult {
	result := types.ValidationResult{Valid: true}

	if rec.Kind != expected {
		result.Add(types.CodeTypeMismatch, mismatchMessage(rec.Kind, expected))
	}
	if strings.TrimSpace(rec.Name) == "" {
		result.Add(types.CodeMissingName, "Name is required.")
	}
	if strings.TrimSpace(rec.State) == "" {
		result.Add(types.CodeMissingState, "State is required.")
	}
	if expected == types.OperationUpdate {
		if _, ok := rec.ID(); !ok {
			result.Add(types.CodeMissingRecordID, "Record ID is required for updates.")
		}
	}
	return result
}

func mismatchMessage(got, expected types.OperationKind) string {
	if expected == types.OperationUpdate {
		return fmt.Sprintf("This issue is marked as an %s, but the body has no record ID.", expected)
	}
	if got == types.OperationUpdate {
		return fmt.Sprintf("This issue is marked as a %s, but the body contains a record ID.", expected)
	}
	return fmt.Sprintf("Operation mismatch: issue is marked %s but the body describes %s.", expected, got)
}

// OptionsFormat describes how the free-form options value parses.
type OptionsFormat string

const (
	OptionsEmpty OptionsFormat = "empty"
	OptionsJSON  OptionsFormat = "json"
	OptionsText  OptionsFormat = "text"
)

// DetectOptions reports whether options holds JSON. Plain text is accepted
// as-is; this never produces a validation error.
func DetectOptions(options string) OptionsFormat {
	trimmed := strings.TrimSpace(options)
	if trimmed == "" {
		return OptionsEmpty
	}
	if gjson.Valid(trimmed) {
		return OptionsJSON
	}
	return OptionsText
}
