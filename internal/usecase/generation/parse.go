package generation

import (
	"encoding/json"
	"errors"
	"strings"
)

var errNoQuestionArray = errors.New("no JSON array of questions in model output")

// rawQuestion is the model's wire shape before validation and normalization.
type rawQuestion struct {
	Question   string   `json:"question"`
	Options    []string `json:"options"`
	Answer     string   `json:"answer"`
	Difficulty string   `json:"difficulty"`
}

// parseQuestions decodes model output, strictly first and then by extracting
// the first balanced JSON array. Elements that fail to decode are dropped.
func parseQuestions(content string) ([]rawQuestion, error) {
	elems, ok := strictElements(strings.TrimSpace(content))
	if !ok {
		elems, ok = extractElements(content)
	}
	if !ok {
		return nil, errNoQuestionArray
	}

	out := make([]rawQuestion, 0, len(elems))
	for _, raw := range elems {
		var q rawQuestion
		if err := json.Unmarshal(raw, &q); err != nil {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

// strictElements accepts a bare array or an object wrapping a "questions" array.
func strictElements(s string) ([]json.RawMessage, bool) {
	var arr []json.RawMessage
	if err := json.Unmarshal([]byte(s), &arr); err == nil {
		return arr, true
	}

	var wrapped struct {
		Questions []json.RawMessage `json:"questions"`
	}
	if err := json.Unmarshal([]byte(s), &wrapped); err == nil && wrapped.Questions != nil {
		return wrapped.Questions, true
	}
	return nil, false
}

// extractElements scans for the first balanced [...] substring that decodes as an array.
func extractElements(s string) ([]json.RawMessage, bool) {
	for from := 0; from < len(s); {
		i := strings.IndexByte(s[from:], '[')
		if i < 0 {
			return nil, false
		}
		start := from + i

		if end, ok := matchBracket(s, start); ok {
			var arr []json.RawMessage
			if err := json.Unmarshal([]byte(s[start:end]), &arr); err == nil {
				return arr, true
			}
		}
		from = start + 1
	}
	return nil, false
}

// matchBracket returns the index just past the ']' closing s[start].
// Brackets inside JSON strings are ignored.
func matchBracket(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}
