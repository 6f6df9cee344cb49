package question

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/quizgen/internal/domain"
)

// Difficulty is the three-valued classification attached to a question.
type Difficulty string

// Difficulty constants.
const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Mixed is the filter label for requests that do not pin a level.
const Mixed = "mixed"

// IsValid checks if the difficulty is one of the three levels.
func (d Difficulty) IsValid() bool {
	return d == Easy || d == Medium || d == Hard
}

// Definition returns the prompt guidance for a level.
func (d Difficulty) Definition() string {
	switch d {
	case Easy:
		return "- Focus on basic facts, definitions, and simple recall\n" +
			"- Use straightforward language and concepts\n" +
			"- Test fundamental knowledge and comprehension"
	case Medium:
		return "- Focus on application and understanding\n" +
			"- Require some analysis or comparison\n" +
			"- Test ability to apply concepts in new situations"
	case Hard:
		return "- Focus on analysis, synthesis, and evaluation\n" +
			"- Require complex reasoning and critical thinking\n" +
			"- Test ability to draw conclusions and make judgments"
	default:
		return "- Mix of different difficulty levels"
	}
}

// ParseDifficulty normalizes s (trim + lowercase) and returns the matching level.
func ParseDifficulty(s string) (Difficulty, bool) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if !d.IsValid() {
		return "", false
	}
	return d, true
}

// ParseFilter parses a request-level difficulty filter.
// "" and "mixed" yield the zero Difficulty (no pinned level).
func ParseFilter(s string) (Difficulty, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	if norm == "" || norm == Mixed {
		return "", nil
	}
	d, ok := ParseDifficulty(norm)
	if !ok {
		return "", fmt.Errorf("%w: %q, must be easy, medium, hard or mixed", domain.ErrInvalidDifficulty, s)
	}
	return d, nil
}

// FilterLabel returns the level name, or "mixed" for the zero Difficulty.
func FilterLabel(filter Difficulty) string {
	if filter == "" {
		return Mixed
	}
	return string(filter)
}

// Normalize resolves the difficulty of a generated question.
// A pinned filter always wins; otherwise a valid model value is kept, else Medium.
func Normalize(raw string, filter Difficulty) Difficulty {
	if filter.IsValid() {
		return filter
	}
	if d, ok := ParseDifficulty(raw); ok {
		return d
	}
	return Medium
}
