package generation

import (
	"context"

	"github.com/kailas-cloud/quizgen/internal/domain"
	"github.com/kailas-cloud/quizgen/internal/domain/question"
)

// Completer sends a single prompt to a generative model and returns the raw reply.
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float32) (string, error)
}

// Retriever supplies semantically related context. Implemented by retrieval.Service.
type Retriever interface {
	FindRelated(ctx context.Context, text, ownerID string, topK int) []domain.ContextCandidate
	FindSimilarTo(ctx context.Context, documentID, ownerID string, topK int) ([]domain.ContextCandidate, error)
}

// SegmentProducer turns one segment of text into candidate questions.
type SegmentProducer interface {
	Generate(ctx context.Context, text string, filter question.Difficulty) ([]question.Question, error)
}

// Pool runs tasks on a bounded set of workers. Satisfied by *ants.Pool.
type Pool interface {
	Submit(task func()) error
}
