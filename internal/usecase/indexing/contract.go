package indexing

import (
	"context"

	"github.com/kailas-cloud/quizgen/internal/domain"
)

// Repository stores document embeddings.
type Repository interface {
	Upsert(ctx context.Context, doc domain.IndexedDocument) (created bool, err error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
