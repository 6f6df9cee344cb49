// Package document stores document embeddings in Redis HASHes indexed by FT.SEARCH.
package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/quizgen/internal/db"
	"github.com/kailas-cloud/quizgen/internal/db/redis"
	"github.com/kailas-cloud/quizgen/internal/domain"
)

// store is the consumer interface for documents (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Exists(ctx context.Context, key string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo implements the vector index over Redis.
type Repo struct {
	store store
	dims  int
	index IndexConfig
}

// New creates a document repository for vectors of the given dimension.
func New(s store, dims int, index IndexConfig) *Repo {
	return &Repo{store: s, dims: dims, index: index}
}

// EnsureIndex creates the FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, indexName)
	if err != nil {
		return fmt.Errorf("check index %s: %w", indexName, err)
	}
	if exists {
		return nil
	}

	def, err := buildIndex(r.dims, r.index)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", indexName, err)
	}
	return nil
}

// Upsert creates or replaces a document. Returns true if created.
func (r *Repo) Upsert(ctx context.Context, doc domain.IndexedDocument) (bool, error) {
	key := docKey(doc.ID)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check exists %s: %w", key, err)
	}

	fields := map[string]string{
		fieldOwner:   doc.OwnerID,
		fieldContent: doc.Content,
		fieldVector:  redis.VectorToBytes(doc.Vector),
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return false, fmt.Errorf("hset %s: %w", key, err)
	}
	return !exists, nil
}

// Get returns a stored document with its embedding or domain.ErrNotFound.
func (r *Repo) Get(ctx context.Context, id string) (domain.IndexedDocument, error) {
	key := docKey(id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domain.IndexedDocument{}, fmt.Errorf("hgetall %s: %w", key, err)
	}

	blob, ok := m[fieldVector]
	if !ok || blob == "" {
		return domain.IndexedDocument{}, fmt.Errorf("vector of %s: %w", id, domain.ErrNotFound)
	}
	vec, err := redis.BytesToVector(blob)
	if err != nil {
		return domain.IndexedDocument{}, fmt.Errorf("decode vector of %s: %w", id, err)
	}
	return domain.IndexedDocument{
		ID:      id,
		OwnerID: m[fieldOwner],
		Content: m[fieldContent],
		Vector:  vec,
	}, nil
}

// Nearest returns the owner's documents closest to q.Vector, ascending by cosine distance.
func (r *Repo) Nearest(ctx context.Context, q domain.NearestQuery) ([]domain.Neighbor, error) {
	if q.OwnerID == "" {
		return nil, nil
	}

	k := q.TopK
	if q.ExcludeID != "" {
		k++ // the source document is usually its own nearest neighbour
	}

	knn := &db.KNNQuery{
		IndexName:    indexName,
		Vector:       q.Vector,
		K:            k,
		TagFilters:   map[string]string{fieldOwner: q.OwnerID},
		ReturnFields: []string{fieldContent},
	}

	res, err := r.store.SearchKNN(ctx, knn)
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}

	out := make([]domain.Neighbor, 0, len(res.Entries))
	for _, e := range res.Entries {
		id := docIDFromKey(e.Key)
		if id == q.ExcludeID {
			continue
		}
		out = append(out, domain.Neighbor{
			DocumentID: id,
			Content:    e.Fields[fieldContent],
			Distance:   e.Distance,
		})
		if len(out) == q.TopK {
			break
		}
	}
	return out, nil
}
