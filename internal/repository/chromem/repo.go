// Package chromem keeps document embeddings in an embedded chromem-go database.
package chromem

import (
	"context"
	"errors"
	"fmt"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/kailas-cloud/quizgen/internal/domain"
)

const (
	collectionName = "quizgen-documents"
	ownerKey       = "owner_id"
)

// Config selects between an in-memory and a persistent database.
type Config struct {
	Path     string // empty means in-memory
	Compress bool
}

// Open creates the chromem database described by cfg.
func Open(cfg Config) (*chromem.DB, error) {
	if cfg.Path == "" {
		return chromem.NewDB(), nil
	}
	db, err := chromem.NewPersistentDB(cfg.Path, cfg.Compress)
	if err != nil {
		return nil, fmt.Errorf("open chromem at %s: %w", cfg.Path, err)
	}
	return db, nil
}

// Repo implements the vector index on a single chromem collection.
// Embeddings are always supplied by the caller, so the collection has no embedding func.
type Repo struct {
	col *chromem.Collection
	mu  sync.Mutex // serializes the existence check with the write in Upsert
}

// New opens (or creates) the documents collection.
func New(db *chromem.DB) (*Repo, error) {
	col, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get collection: %w", err)
	}
	return &Repo{col: col}, nil
}

// Ping always succeeds; the database lives in-process.
func (r *Repo) Ping(_ context.Context) error { return nil }

// Upsert creates or replaces a document. Returns true if created.
func (r *Repo) Upsert(ctx context.Context, doc domain.IndexedDocument) (bool, error) {
	if doc.ID == "" {
		return false, errors.New("document id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// AddDocument overwrites an existing ID in place.
	_, err := r.col.GetByID(ctx, doc.ID)
	created := err != nil

	err = r.col.AddDocument(ctx, chromem.Document{
		ID:        doc.ID,
		Metadata:  map[string]string{ownerKey: doc.OwnerID},
		Embedding: doc.Vector,
		Content:   doc.Content,
	})
	if err != nil {
		return false, fmt.Errorf("add %s: %w", doc.ID, err)
	}
	return created, nil
}

// Get returns a stored document with its (normalized) embedding or domain.ErrNotFound.
func (r *Repo) Get(ctx context.Context, id string) (domain.IndexedDocument, error) {
	if id == "" {
		return domain.IndexedDocument{}, fmt.Errorf("vector: %w", domain.ErrNotFound)
	}
	doc, err := r.col.GetByID(ctx, id)
	if err != nil || len(doc.Embedding) == 0 {
		return domain.IndexedDocument{}, fmt.Errorf("vector of %s: %w", id, domain.ErrNotFound)
	}
	return domain.IndexedDocument{
		ID:      doc.ID,
		OwnerID: doc.Metadata[ownerKey],
		Content: doc.Content,
		Vector:  doc.Embedding,
	}, nil
}

// Nearest returns the owner's closest documents ordered by ascending cosine distance.
func (r *Repo) Nearest(ctx context.Context, q domain.NearestQuery) ([]domain.Neighbor, error) {
	if q.OwnerID == "" {
		return nil, nil
	}

	n := q.TopK
	if q.ExcludeID != "" {
		n++
	}
	if total := r.col.Count(); n > total {
		n = total
	}
	if n <= 0 {
		return nil, nil
	}

	where := map[string]string{ownerKey: q.OwnerID}
	results, err := r.col.QueryEmbedding(ctx, q.Vector, n, where, nil)
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	out := make([]domain.Neighbor, 0, len(results))
	for _, res := range results {
		if res.ID == q.ExcludeID {
			continue
		}
		out = append(out, domain.Neighbor{
			DocumentID: res.ID,
			Content:    res.Content,
			Distance:   1 - float64(res.Similarity),
		})
		if len(out) == q.TopK {
			break
		}
	}
	return out, nil
}
