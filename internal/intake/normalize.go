package intake

import (
	"fmt"
	"strconv"
	"strings"

	"registry/internal/types"
)

// Normalize maps raw fields to a NormalizedRecord. The identifier is taken
// from the first filled of recordId, record_id, id; its presence alone makes
// the record an update. Missing name/state are left for the validator.
func Normalize(fields types.Fields) (types.NormalizedRecord, error) {
	rec := types.NormalizedRecord{
		Kind:    types.OperationCreate,
		Name:    strings.TrimSpace(fields.Name.Value),
		State:   strings.TrimSpace(fields.State.Value),
		Options: strings.TrimSpace(fields.Options.Value),
	}

	raw, ok := identifier(fields)
	if !ok {
		return rec, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return types.NormalizedRecord{}, fmt.Errorf("%w: %q", ErrInvalidRecordID, raw)
	}
	rec.Kind = types.OperationUpdate
	rec.RecordID = &id
	return rec, nil
}

func identifier(fields types.Fields) (string, bool) {
	for _, f := range []types.Field{fields.RecordID, fields.RecordIDSnake, fields.ID} {
		if f.Filled() {
			return strings.TrimSpace(f.Value), true
		}
	}
	return "", false
}
