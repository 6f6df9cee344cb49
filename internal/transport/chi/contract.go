package chi

import (
	"context"

	"github.com/kailas-cloud/quizgen/internal/domain"
	"github.com/kailas-cloud/quizgen/internal/usecase/generation"
	healthuc "github.com/kailas-cloud/quizgen/internal/usecase/health"
)

// Generator runs the question generation pipeline.
type Generator interface {
	Generate(ctx context.Context, req generation.Request) (generation.Result, error)
}

// Retriever answers semantic search and similar-document lookups.
type Retriever interface {
	FindRelated(ctx context.Context, text, ownerID string, topK int) []domain.ContextCandidate
	FindSimilarTo(ctx context.Context, documentID, ownerID string, topK int) ([]domain.ContextCandidate, error)
}

// Indexer (re)generates a document embedding.
type Indexer interface {
	Index(ctx context.Context, id, ownerID, content string) (bool, error)
}

// HealthReporter aggregates component health.
type HealthReporter interface {
	Check(ctx context.Context) healthuc.Report
}
