// Package report renders the markdown comments posted back on a submission.
// It only builds text; posting is the caller's job.
package report

import (
	"errors"
	"fmt"
	"strings"

	"registry/internal/intake"
	"registry/internal/store"
	"registry/internal/types"
	"registry/internal/validate"
)

// Success describes an applied create or update.
func Success(kind types.OperationKind, rec types.StoredRecord) string {
	var b strings.Builder
	switch kind {
	case types.OperationUpdate:
		fmt.Fprintf(&b, "✅ Record **#%d** has been updated.\n\n", rec.ID)
	default:
		fmt.Fprintf(&b, "✅ Record **#%d** has been created.\n\n", rec.ID)
	}
	b.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Record ID | %d |\n", rec.ID)
	fmt.Fprintf(&b, "| Name | %s |\n", cell(rec.Name))
	fmt.Fprintf(&b, "| State | %s |\n", cell(rec.State))
	fmt.Fprintf(&b, "| Owner | @%s |\n", cell(rec.Owner))
	writeOptions(&b, rec.OptionsValue())
	if kind == types.OperationCreate {
		fmt.Fprintf(&b, "\nTo change this record later, open an update issue with Record ID `%d`.\n", rec.ID)
	}
	return b.String()
}

// Rejection explains why a submission was not applied. Validation failures
// list every problem.
func Rejection(err error) string {
	var b strings.Builder
	b.WriteString("❌ This submission could not be processed.\n\n")

	if invalid, ok := types.AsInvalidRecord(err); ok {
		b.WriteString("Please fix the following and edit the issue:\n\n")
		for _, msg := range invalid.Result.Messages() {
			fmt.Fprintf(&b, "- %s\n", msg)
		}
		return b.String()
	}

	switch {
	case errors.Is(err, intake.ErrEmptyInput):
		b.WriteString("The issue body is empty. Please fill in the form fields.\n")
	case errors.Is(err, intake.ErrMalformedFrontmatter):
		b.WriteString("The `---` block at the top of the issue is not closed or not formatted as `key: value` lines.\n")
	case errors.Is(err, intake.ErrInvalidRecordID):
		b.WriteString("The Record ID must be a whole number.\n")
	case errors.Is(err, store.ErrRecordNotFound):
		b.WriteString("No record exists with that Record ID.\n")
	case errors.Is(err, store.ErrUnauthorized):
		b.WriteString("Only the user who created a record can update it.\n")
	default:
		b.WriteString("An unexpected error occurred while saving the record. A maintainer has been notified in the workflow logs.\n")
	}
	return b.String()
}

func writeOptions(b *strings.Builder, options string) {
	switch validate.DetectOptions(options) {
	case validate.OptionsEmpty:
		return
	case validate.OptionsJSON:
		fmt.Fprintf(b, "\n**Options**\n\n```json\n%s\n```\n", strings.TrimSpace(options))
	default:
		fmt.Fprintf(b, "| Options | %s |\n", cell(options))
	}
}

// cell escapes a value for a markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// Planned describes what a dry run would have applied.
func Planned(rec types.NormalizedRecord) string {
	var b strings.Builder
	if id, ok := rec.ID(); ok {
		fmt.Fprintf(&b, "📝 Dry run: record **#%d** would be updated.\n\n", id)
	} else {
		b.WriteString("📝 Dry run: a new record would be created.\n\n")
	}
	b.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Name | %s |\n", cell(rec.Name))
	fmt.Fprintf(&b, "| State | %s |\n", cell(rec.State))
	writeOptions(&b, rec.Options)
	return b.String()
}
