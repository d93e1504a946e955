// Package types holds the record shapes shared by intake, validation,
// classification and the record store. It has no dependencies on the rest of
// the module so every layer can import it without cycles.
package types

import (
	"strings"
	"time"
)

// =============================================================================
// OPERATION KIND
// =============================================================================

// OperationKind is the intended effect of a submission on the store.
type OperationKind string

const (
	OperationCreate OperationKind = "create"
	OperationUpdate OperationKind = "update"
)

// String implements fmt.Stringer.
func (k OperationKind) String() string {
	return string(k)
}

// ParseOperationKind maps "create"/"update" (any case) to an OperationKind.
func ParseOperationKind(s string) (OperationKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "create":
		return OperationCreate, true
	case "update":
		return OperationUpdate, true
	}
	return "", false
}

// =============================================================================
// RAW FIELDS
// =============================================================================

// Field is one raw extracted value. Present distinguishes "key seen with an
// empty value" from "key never seen".
type Field struct {
	Value   string
	Present bool
}

// Set records a value for the field.
func (f *Field) Set(value string) {
	f.Value = value
	f.Present = true
}

// Filled reports whether the field was seen with a non-blank value.
func (f Field) Filled() bool {
	return f.Present && strings.TrimSpace(f.Value) != ""
}

// Fields is the closed set of raw values produced by the extractor. The three
// identifier spellings are kept apart and reconciled by the normalizer.
type Fields struct {
	Name    Field
	State   Field
	Options Field

	RecordID      Field // "recordId"
	RecordIDSnake Field // "record_id" / "### Record ID"
	ID            Field // "id" / "### ID"
}

// Lookup returns a pointer to the field addressed by a lowercase raw key, or
// nil when the key is not one the extractor recognises.
func (f *Fields) Lookup(key string) *Field {
	switch key {
	case "name":
		return &f.Name
	case "state":
		return &f.State
	case "options":
		return &f.Options
	case "recordid":
		return &f.RecordID
	case "record_id":
		return &f.RecordIDSnake
	case "id":
		return &f.ID
	}
	return nil
}

// =============================================================================
// NORMALIZED RECORD
// =============================================================================

// NormalizedRecord is the canonical shape of one submission. Kind is
// OperationUpdate exactly when RecordID is non-nil.
type NormalizedRecord struct {
	Kind     OperationKind `json:"operation"`
	Name     string        `json:"name"`
	State    string        `json:"state"`
	Options  string        `json:"options"`
	RecordID *int64        `json:"record_id,omitempty"`
}

// ID returns the referenced record id for updates.
func (r NormalizedRecord) ID() (int64, bool) {
	if r.RecordID == nil {
		return 0, false
	}
	return *r.RecordID, true
}

// =============================================================================
// STORED RECORD
// =============================================================================

// StoredRecord is one row of the users table. ID and Owner never change after
// creation.
type StoredRecord struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	State     string    `json:"state"`
	Options   *string   `json:"options,omitempty"`
	Owner     string    `json:"github_username"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OptionsValue returns the options string, or "" when the column is NULL.
func (r StoredRecord) OptionsValue() string {
	if r.Options == nil {
		return ""
	}
	return *r.Options
}
