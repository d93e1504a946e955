package intake

import (
	"fmt"
	"regexp"
	"strings"

	"registry/internal/types"
)

// keyValueLine matches one flat "key: value" entry. Anything else inside the
// block is skipped.
var keyValueLine = regexp.MustCompile(`^([A-Za-z0-9_-]+)\s*:\s*(.*)$`)

// extractFrontmatter parses `---\n<block>\n---[\n<remainder>]`. The caller has
// already trimmed the text and confirmed the leading fence.
func extractFrontmatter(text string) (types.Fields, error) {
	lines := strings.Split(text, "\n")
	if strings.TrimSpace(lines[0]) != fence {
		return types.Fields{}, fmt.Errorf("%w: opening fence must be on its own line", ErrMalformedFrontmatter)
	}

	closing := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == fence {
			closing = i
			break
		}
	}
	if closing < 0 {
		return types.Fields{}, fmt.Errorf("%w: missing closing fence", ErrMalformedFrontmatter)
	}

	var fields types.Fields
	for _, line := range lines[1:closing] {
		key, value, ok := splitKeyValue(line)
		if !ok {
			continue
		}
		// Later duplicates overwrite earlier ones.
		if f := fields.Lookup(key); f != nil {
			f.Set(value)
		}
	}
	return fields, nil
}

func splitKeyValue(line string) (string, string, bool) {
	m := keyValueLine.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", "", false
	}
	return strings.ToLower(m[1]), unquote(strings.TrimSpace(m[2])), true
}

// unquote strips one pair of matching surrounding single or double quotes.
func unquote(v string) string {
	if len(v) >= 2 {
		first, last := v[0], v[len(v)-1]
		if (first == '"' || first == '\'') && first == last {
			return v[1 : len(v)-1]
		}
	}
	return v
}
