package intake

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"registry/internal/types"
)

// heading matches a markdown ATX heading and captures its title.
var heading = regexp.MustCompile(`^#{1,6}\s+(.+?)\s*#*\s*$`)

// noResponse is what issue forms render for an optional field left blank.
const noResponse = "_no response_"

// sectionKeys maps folded heading titles to raw field keys.
var sectionKeys = map[string]string{
	"name":      "name",
	"state":     "state",
	"options":   "options",
	"record id": "record_id",
	"id":        "id",
}

// extractSections walks the text top to bottom. For each recognised heading
// the first non-blank line before the next heading becomes the value. The
// first occurrence of a heading wins; unknown headings are ignored.
func extractSections(text string) types.Fields {
	var fields types.Fields
	lines := strings.Split(text, "\n")

	for i := 0; i < len(lines); i++ {
		m := heading.FindStringSubmatch(strings.TrimSpace(lines[i]))
		if m == nil {
			continue
		}
		key, ok := sectionKeys[foldTitle(m[1])]
		if !ok {
			continue
		}
		f := fields.Lookup(key)
		if f.Present {
			continue
		}
		if value, found := firstBodyLine(lines[i+1:]); found {
			f.Set(value)
		}
	}
	return fields
}

func firstBodyLine(lines []string) (string, bool) {
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if heading.MatchString(trimmed) {
			return "", false
		}
		if foldCase(trimmed) == noResponse {
			return "", false
		}
		return trimmed, true
	}
	return "", false
}

func foldTitle(title string) string {
	return strings.Join(strings.Fields(foldCase(title)), " ")
}

// foldCase builds a fresh Caser per call; Casers carry state.
func foldCase(s string) string {
	return cases.Fold().String(s)
}
