package intake

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registry/internal/types"
)

func int64p(v int64) *int64 { return &v }

func TestExtractEmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "\r\n\n\t"} {
		_, err := Extract(in)
		assert.ErrorIs(t, err, ErrEmptyInput, "%q", in)
	}
}

func TestParseSubmissionAbsentBody(t *testing.T) {
	_, err := ParseSubmission(types.Submission{Title: "x"})
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestParseFrontmatter(t *testing.T) {
	tests := []struct {
		name string
		body string
		want types.NormalizedRecord
	}{
		{
			name: "create",
			body: "---\nname: Alice\nstate: CA\noptions: opt1\n---\nthanks",
			want: types.NormalizedRecord{Kind: types.OperationCreate, Name: "Alice", State: "CA", Options: "opt1"},
		},
		{
			name: "quoted values are unwrapped",
			body: "---\nname: \"Alice Smith\"\nstate: 'NY'\n---\n",
			want: types.NormalizedRecord{Kind: types.OperationCreate, Name: "Alice Smith", State: "NY"},
		},
		{
			name: "mismatched quotes are kept",
			body: "---\nname: \"Alice'\nstate: NY\n---",
			want: types.NormalizedRecord{Kind: types.OperationCreate, Name: "\"Alice'", State: "NY"},
		},
		{
			name: "camel case identifier makes an update",
			body: "---\nrecordId: 7\nname: Bob\nstate: TX\n---",
			want: types.NormalizedRecord{Kind: types.OperationUpdate, Name: "Bob", State: "TX", RecordID: int64p(7)},
		},
		{
			name: "recordId wins over record_id and id",
			body: "---\nid: 3\nrecord_id: 2\nrecordId: 1\nname: Bob\nstate: TX\n---",
			want: types.NormalizedRecord{Kind: types.OperationUpdate, Name: "Bob", State: "TX", RecordID: int64p(1)},
		},
		{
			name: "record_id wins over id",
			body: "---\nid: 3\nrecord_id: 2\nname: Bob\nstate: TX\n---",
			want: types.NormalizedRecord{Kind: types.OperationUpdate, Name: "Bob", State: "TX", RecordID: int64p(2)},
		},
		{
			name: "blank identifier falls through",
			body: "---\nrecordId:\nid: 9\nname: Bob\nstate: TX\n---",
			want: types.NormalizedRecord{Kind: types.OperationUpdate, Name: "Bob", State: "TX", RecordID: int64p(9)},
		},
		{
			name: "duplicate keys keep the last value",
			body: "---\nname: First\nname: Second\nstate: TX\n---",
			want: types.NormalizedRecord{Kind: types.OperationCreate, Name: "Second", State: "TX"},
		},
		{
			name: "unrecognised lines are ignored",
			body: "---\n# a comment\njust text\n- item\nname: Bob\nstate: TX\ncolour: red\n---",
			want: types.NormalizedRecord{Kind: types.OperationCreate, Name: "Bob", State: "TX"},
		},
		{
			name: "options may hold json",
			body: "---\nname: Bob\nstate: TX\noptions: {\"a\": 1}\n---",
			want: types.NormalizedRecord{Kind: types.OperationCreate, Name: "Bob", State: "TX", Options: `{"a": 1}`},
		},
		{
			name: "crlf and leading whitespace",
			body: "\r\n  ---\r\nname: Bob\r\nstate: TX\r\n---\r\n",
			want: types.NormalizedRecord{Kind: types.OperationCreate, Name: "Bob", State: "TX"},
		},
		{
			name: "missing fields default to empty",
			body: "---\n---",
			want: types.NormalizedRecord{Kind: types.OperationCreate},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.body)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFrontmatterMalformed(t *testing.T) {
	for _, body := range []string{
		"---\nname: Bob\nstate: TX",
		"---name: Bob\n---",
		"---",
	} {
		_, err := Parse(body)
		assert.ErrorIs(t, err, ErrMalformedFrontmatter, "%q", body)
	}
}

func TestParseSections(t *testing.T) {
	tests := []struct {
		name string
		body string
		want types.NormalizedRecord
	}{
		{
			name: "record id makes an update",
			body: "### Name\nBob\n### State\nTX\n### Record ID\n42",
			want: types.NormalizedRecord{Kind: types.OperationUpdate, Name: "Bob", State: "TX", RecordID: int64p(42)},
		},
		{
			name: "issue form layout with blank lines",
			body: "### Name\n\nAlice\n\n### State\n\nCA\n\n### Options\n\n{\"tier\":\"gold\"}\n",
			want: types.NormalizedRecord{Kind: types.OperationCreate, Name: "Alice", State: "CA", Options: `{"tier":"gold"}`},
		},
		{
			name: "headings are case insensitive",
			body: "## NAME\nAlice\n#### state\nCA\n### iD\n5",
			want: types.NormalizedRecord{Kind: types.OperationUpdate, Name: "Alice", State: "CA", RecordID: int64p(5)},
		},
		{
			name: "record id wins over id",
			body: "### ID\n5\n### Record ID\n6\n### Name\nA\n### State\nB",
			want: types.NormalizedRecord{Kind: types.OperationUpdate, Name: "A", State: "B", RecordID: int64p(6)},
		},
		{
			name: "only the first line is taken",
			body: "### Name\nAlice\nSmith\n### State\nCA",
			want: types.NormalizedRecord{Kind: types.OperationCreate, Name: "Alice", State: "CA"},
		},
		{
			name: "no response placeholder is absent",
			body: "### Name\nAlice\n### State\nCA\n### Options\n\n_No response_\n\n### Record ID\n\n_No response_",
			want: types.NormalizedRecord{Kind: types.OperationCreate, Name: "Alice", State: "CA"},
		},
		{
			name: "empty section is absent",
			body: "### Name\n### State\nCA",
			want: types.NormalizedRecord{Kind: types.OperationCreate, State: "CA"},
		},
		{
			name: "unknown sections are ignored",
			body: "### Reason\nmoving\n### Name\nAlice\n### State\nCA",
			want: types.NormalizedRecord{Kind: types.OperationCreate, Name: "Alice", State: "CA"},
		},
		{
			name: "plain prose yields an empty create",
			body: "please add me",
			want: types.NormalizedRecord{Kind: types.OperationCreate},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.body)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInvalidRecordID(t *testing.T) {
	for _, body := range []string{
		"### Record ID\nabc",
		"### Name\nBob\n### ID\n12abc",
		"---\nrecordId: 1.5\n---",
	} {
		_, err := Parse(body)
		require.Error(t, err, body)
		assert.True(t, errors.Is(err, ErrInvalidRecordID), "%q: %v", body, err)
	}
}

func TestParseIsDeterministic(t *testing.T) {
	body := "---\nname: Alice\nstate: CA\nrecord_id: 11\n---\n"
	first, err := Parse(body)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Parse(body)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestExtractKeepsIdentifierSpellingsApart(t *testing.T) {
	fields, err := Extract("---\nRecordId: 1\nrecord_id: 2\nID: 3\n---")
	require.NoError(t, err)
	assert.Equal(t, "1", fields.RecordID.Value)
	assert.Equal(t, "2", fields.RecordIDSnake.Value)
	assert.Equal(t, "3", fields.ID.Value)
	assert.False(t, fields.Name.Present)
}
