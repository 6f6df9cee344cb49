package generation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/kailas-cloud/quizgen/internal/domain"
	"github.com/kailas-cloud/quizgen/internal/domain/question"
)

// --- Mocks ---

type completerFunc func(ctx context.Context, prompt string, temperature float32) (string, error)

func (f completerFunc) Complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	return f(ctx, prompt, temperature)
}

// countingCompleter returns n distinct valid questions per call, tagged with the call number.
type countingCompleter struct {
	n          int
	difficulty string
	calls      atomic.Int32
}

func (c *countingCompleter) Complete(_ context.Context, _ string, _ float32) (string, error) {
	call := c.calls.Add(1)
	items := make([]string, 0, c.n)
	for i := range c.n {
		items = append(items, questionJSON(fmt.Sprintf("Question %d.%d?", call, i), c.difficulty))
	}
	return "[" + strings.Join(items, ",") + "]", nil
}

func questionJSON(text, difficulty string) string {
	return fmt.Sprintf(`{"question":%q,"options":["A","B","C","D"],"answer":"B","difficulty":%q}`, text, difficulty)
}

type mockRetriever struct {
	mu           sync.Mutex
	related      []domain.ContextCandidate
	similar      []domain.ContextCandidate
	similarErr   error
	relatedCalls int
	similarCalls int
	lastTopK     int
}

func (m *mockRetriever) FindRelated(_ context.Context, _, _ string, topK int) []domain.ContextCandidate {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relatedCalls++
	m.lastTopK = topK
	return m.related
}

func (m *mockRetriever) FindSimilarTo(_ context.Context, _, _ string, topK int) ([]domain.ContextCandidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.similarCalls++
	m.lastTopK = topK
	return m.similar, m.similarErr
}

// producerFunc adapts a function to SegmentProducer.
type producerFunc func(ctx context.Context, text string, filter question.Difficulty) ([]question.Question, error)

func (f producerFunc) Generate(ctx context.Context, text string, filter question.Difficulty) ([]question.Question, error) {
	return f(ctx, text, filter)
}

func validQuestion(text string) question.Question {
	return question.Question{
		Text:       text,
		Options:    []string{"A", "B", "C", "D"},
		Answer:     "A",
		Difficulty: question.Medium,
	}
}
