// Package intake turns the free-text body of a submission into a typed
// record. Extraction accepts two layouts: a "---" fenced key/value block, or
// markdown "### Heading" sections as rendered by issue forms. Normalization
// then reconciles the identifier spellings and infers create vs update.
package intake

import (
	"errors"
	"strings"

	"registry/internal/types"
)

var (
	// ErrEmptyInput indicates the submission carried no body text.
	ErrEmptyInput = errors.New("intake: empty input")
	// ErrMalformedFrontmatter indicates an opening "---" fence without a valid block.
	ErrMalformedFrontmatter = errors.New("intake: malformed frontmatter")
	// ErrInvalidRecordID indicates the identifier field is not a base-10 integer.
	ErrInvalidRecordID = errors.New("intake: invalid record id")
)

const fence = "---"

// Parse runs Extract then Normalize.
func Parse(text string) (types.NormalizedRecord, error) {
	fields, err := Extract(text)
	if err != nil {
		return types.NormalizedRecord{}, err
	}
	return Normalize(fields)
}

// ParseSubmission parses the body of s. An absent body is ErrEmptyInput.
func ParseSubmission(s types.Submission) (types.NormalizedRecord, error) {
	if s.Body == nil {
		return types.NormalizedRecord{}, ErrEmptyInput
	}
	return Parse(*s.Body)
}

// Extract picks a strategy by probing for a leading fence and returns the
// recognised raw fields.
func Extract(text string) (types.Fields, error) {
	normalized := normalizeNewlines(text)
	trimmed := strings.TrimSpace(normalized)
	if trimmed == "" {
		return types.Fields{}, ErrEmptyInput
	}
	if strings.HasPrefix(trimmed, fence) {
		return extractFrontmatter(trimmed)
	}
	return extractSections(trimmed), nil
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
