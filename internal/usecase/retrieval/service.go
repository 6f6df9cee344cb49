package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/quizgen/internal/domain"
)

const (
	// DefaultTopK is used when the caller passes topK <= 0.
	DefaultTopK = 5
	// MaxTopK bounds a single retrieval.
	MaxTopK = 50
	// MinQueryRunes is the shortest trimmed query worth embedding.
	MinQueryRunes = 3
)

// Service finds stored documents semantically related to a text or to another document.
type Service struct {
	index    VectorIndex
	embed    Embedder
	maxChars int
	logger   *zap.Logger
}

// New creates a retrieval service. maxChars <= 0 uses domain.DefaultMaxEmbeddingChars.
func New(index VectorIndex, embed Embedder, maxChars int, logger *zap.Logger) *Service {
	if maxChars <= 0 {
		maxChars = domain.DefaultMaxEmbeddingChars
	}
	return &Service{index: index, embed: embed, maxChars: maxChars, logger: logger}
}

// ClampTopK normalizes a requested result count.
func ClampTopK(topK int) int {
	switch {
	case topK <= 0:
		return DefaultTopK
	case topK > MaxTopK:
		return MaxTopK
	default:
		return topK
	}
}

// FindRelated returns up to topK owner documents similar to text.
// It never fails: blank input, a blank owner, embedding errors and backend errors
// yield an empty result.
func (s *Service) FindRelated(
	ctx context.Context, text, ownerID string, topK int,
) []domain.ContextCandidate {
	if strings.TrimSpace(ownerID) == "" {
		return nil
	}
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < MinQueryRunes {
		return nil
	}

	emb, err := s.embed.Embed(ctx, domain.TruncateRunes(trimmed, s.maxChars))
	if err != nil {
		s.logger.Warn("Related content lookup skipped: embedding failed",
			zap.String("owner_id", ownerID),
			zap.Error(err),
		)
		return nil
	}
	if len(emb.Embedding) == 0 {
		s.logger.Warn("Related content lookup skipped: empty embedding",
			zap.String("owner_id", ownerID),
		)
		return nil
	}

	return s.nearest(ctx, domain.NearestQuery{
		OwnerID: ownerID,
		Vector:  emb.Embedding,
		TopK:    ClampTopK(topK),
	})
}

// FindSimilarTo returns up to topK owner documents similar to documentID, excluding itself.
// Fails with domain.ErrSourceNotFound when the document has no stored embedding
// or belongs to another owner.
func (s *Service) FindSimilarTo(
	ctx context.Context, documentID, ownerID string, topK int,
) ([]domain.ContextCandidate, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("document %q: owner is required: %w", documentID, domain.ErrSourceNotFound)
	}

	src, err := s.index.Get(ctx, documentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("document %q: %w", documentID, domain.ErrSourceNotFound)
		}
		s.logger.Warn("Similar documents lookup failed",
			zap.String("document_id", documentID),
			zap.Error(err),
		)
		return nil, nil
	}
	// Another owner's document is reported exactly like a missing one.
	if src.OwnerID != ownerID {
		return nil, fmt.Errorf("document %q: %w", documentID, domain.ErrSourceNotFound)
	}
	if len(src.Vector) == 0 {
		return nil, fmt.Errorf("document %q has no embedding: %w", documentID, domain.ErrSourceNotFound)
	}

	return s.nearest(ctx, domain.NearestQuery{
		OwnerID:   ownerID,
		Vector:    src.Vector,
		TopK:      ClampTopK(topK),
		ExcludeID: documentID,
	}), nil
}

func (s *Service) nearest(ctx context.Context, q domain.NearestQuery) []domain.ContextCandidate {
	neighbors, err := s.index.Nearest(ctx, q)
	if err != nil {
		s.logger.Warn("Vector index query failed",
			zap.String("owner_id", q.OwnerID),
			zap.Int("top_k", q.TopK),
			zap.Error(err),
		)
		return nil
	}

	out := make([]domain.ContextCandidate, 0, len(neighbors))
	for _, n := range neighbors {
		if q.ExcludeID != "" && n.DocumentID == q.ExcludeID {
			continue
		}
		out = append(out, domain.ContextCandidate{
			DocumentID: n.DocumentID,
			Content:    n.Content,
			Similarity: domain.SimilarityFromDistance(n.Distance),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	if len(out) > q.TopK {
		out = out[:q.TopK]
	}
	return out
}
