package question

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/quizgen/internal/domain"
)

// OptionCount is the required number of answer options.
const OptionCount = 4

// Question is a single multiple-choice question.
type Question struct {
	Text       string     `json:"question"`
	Options    []string   `json:"options"`
	Answer     string     `json:"answer"`
	Difficulty Difficulty `json:"difficulty"`
}

// Validate checks the structural invariants: non-empty text, exactly four distinct
// non-empty options, and an answer equal to one of them.
func (q *Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: empty question text", domain.ErrInvalidQuestion)
	}
	if len(q.Options) != OptionCount {
		return fmt.Errorf("%w: expected %d options, got %d", domain.ErrInvalidQuestion, OptionCount, len(q.Options))
	}

	seen := make(map[string]struct{}, len(q.Options))
	for i, opt := range q.Options {
		key := strings.TrimSpace(opt)
		if key == "" {
			return fmt.Errorf("%w: option %d is empty", domain.ErrInvalidQuestion, i)
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: duplicate option %q", domain.ErrInvalidQuestion, opt)
		}
		seen[key] = struct{}{}
	}

	if strings.TrimSpace(q.Answer) == "" {
		return fmt.Errorf("%w: empty answer", domain.ErrInvalidQuestion)
	}
	for _, opt := range q.Options {
		if opt == q.Answer {
			return nil
		}
	}
	return fmt.Errorf("%w: answer %q is not one of the options", domain.ErrInvalidQuestion, q.Answer)
}
