package indexing

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/quizgen/internal/domain"
)

// Service (re)generates the stored embedding of a document.
type Service struct {
	repo     Repository
	embed    Embedder
	dims     int
	maxChars int
	logger   *zap.Logger
}

// New creates an indexing service. dims <= 0 skips the dimension check;
// maxChars <= 0 uses domain.DefaultMaxEmbeddingChars.
func New(repo Repository, embed Embedder, dims, maxChars int, logger *zap.Logger) *Service {
	if maxChars <= 0 {
		maxChars = domain.DefaultMaxEmbeddingChars
	}
	return &Service{repo: repo, embed: embed, dims: dims, maxChars: maxChars, logger: logger}
}

// Index embeds the document content and upserts it into the vector index.
// Returns true if the document was created, false if updated.
func (s *Service) Index(ctx context.Context, id, ownerID, content string) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, fmt.Errorf("%w: id is required", domain.ErrInvalidDocument)
	}
	if strings.TrimSpace(ownerID) == "" {
		return false, fmt.Errorf("%w: owner is required", domain.ErrInvalidDocument)
	}
	if domain.IsBlank(content) {
		return false, domain.ErrEmptyContent
	}

	result, err := s.embed.Embed(ctx, domain.TruncateRunes(content, s.maxChars))
	if err != nil {
		return false, fmt.Errorf("vectorize document: %w", err)
	}
	if s.dims > 0 && len(result.Embedding) != s.dims {
		return false, fmt.Errorf(
			"got %d, want %d: %w", len(result.Embedding), s.dims, domain.ErrVectorDimMismatch,
		)
	}

	created, err := s.repo.Upsert(ctx, domain.IndexedDocument{
		ID:      id,
		OwnerID: ownerID,
		Content: content,
		Vector:  result.Embedding,
	})
	if err != nil {
		return false, fmt.Errorf("upsert document: %w", err)
	}

	s.logger.Info("Document indexed",
		zap.String("document_id", id),
		zap.String("owner_id", ownerID),
		zap.Bool("created", created),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("tokens", result.TotalTokens),
	)
	return created, nil
}
