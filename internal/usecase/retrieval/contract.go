package retrieval

import (
	"context"

	"github.com/kailas-cloud/quizgen/internal/domain"
)

// VectorIndex answers nearest-neighbour queries over stored document embeddings.
// Neighbors are returned ascending by cosine distance.
type VectorIndex interface {
	Nearest(ctx context.Context, q domain.NearestQuery) ([]domain.Neighbor, error)
	// Get returns the stored document with its owner and embedding, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (domain.IndexedDocument, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
