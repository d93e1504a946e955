package report

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"registry/internal/intake"
	"registry/internal/store"
	"registry/internal/types"
	"registry/internal/validate"
)

func strp(s string) *string { return &s }

func TestSuccessCreate(t *testing.T) {
	msg := Success(types.OperationCreate, types.StoredRecord{
		ID: 7, Name: "Alice", State: "CA", Options: strp("opt1"), Owner: "alice",
	})
	assert.Contains(t, msg, "Record **#7** has been created")
	assert.Contains(t, msg, "| Name | Alice |")
	assert.Contains(t, msg, "| Owner | @alice |")
	assert.Contains(t, msg, "| Options | opt1 |")
	assert.Contains(t, msg, "Record ID `7`")
}

func TestSuccessUpdateWithJSONOptions(t *testing.T) {
	msg := Success(types.OperationUpdate, types.StoredRecord{
		ID: 3, Name: "A|B", State: "NV", Options: strp(`{"tier":"gold"}`), Owner: "alice",
	})
	assert.Contains(t, msg, "has been updated")
	assert.Contains(t, msg, `| Name | A\|B |`)
	assert.Contains(t, msg, "```json\n{\"tier\":\"gold\"}\n```")
	assert.NotContains(t, msg, "open an update issue")
}

func TestSuccessOmitsEmptyOptions(t *testing.T) {
	msg := Success(types.OperationCreate, types.StoredRecord{ID: 1, Name: "A", State: "B", Owner: "o"})
	assert.NotContains(t, msg, "Options")
}

func TestRejectionListsEveryValidationError(t *testing.T) {
	res := validate.Validate(types.NormalizedRecord{Kind: types.OperationCreate}, types.OperationCreate)
	msg := Rejection(res.Err())
	assert.Contains(t, msg, "- Name is required.")
	assert.Contains(t, msg, "- State is required.")
}

func TestRejectionKnownErrors(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{intake.ErrEmptyInput, "body is empty"},
		{fmt.Errorf("%w: missing closing fence", intake.ErrMalformedFrontmatter), "not closed"},
		{fmt.Errorf("%w: \"abc\"", intake.ErrInvalidRecordID), "whole number"},
		{fmt.Errorf("%w: id 9", store.ErrRecordNotFound), "No record exists"},
		{fmt.Errorf("%w: record 1", store.ErrUnauthorized), "Only the user who created"},
		{fmt.Errorf("disk on fire"), "unexpected error"},
	}
	for _, tt := range tests {
		msg := Rejection(tt.err)
		assert.Contains(t, msg, "could not be processed", tt.err.Error())
		assert.Contains(t, msg, tt.want, tt.err.Error())
	}
}

func TestPlanned(t *testing.T) {
	id := int64(4)
	msg := Planned(types.NormalizedRecord{Kind: types.OperationUpdate, Name: "Bob", State: "TX", RecordID: &id})
	assert.Contains(t, msg, "record **#4** would be updated")
	assert.Contains(t, msg, "| State | TX |")

	msg = Planned(types.NormalizedRecord{Kind: types.OperationCreate, Name: "Bob", State: "TX", Options: "x"})
	assert.Contains(t, msg, "new record would be created")
	assert.Contains(t, msg, "| Options | x |")
}
