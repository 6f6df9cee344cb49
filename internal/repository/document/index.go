package document

import (
	"fmt"

	"github.com/kailas-cloud/quizgen/internal/db"
)

// IndexConfig selects the vector algorithm for the document index.
// M and EFConstruct apply to HNSW only; an empty Algorithm means HNSW.
type IndexConfig struct {
	Algorithm   db.VectorAlgorithm
	M           int
	EFConstruct int
}

const (
	indexName = "quizgen:documents"
	keyPrefix = "quizgen:doc:"

	fieldOwner   = "owner_id"
	fieldContent = "content"
	fieldVector  = "vector"
)

// buildIndex describes the HASH index over documents: owner TAG, content TEXT, cosine vector.
func buildIndex(dims int, cfg IndexConfig) (*db.IndexDefinition, error) {
	b := db.NewIndex(indexName).
		Prefix(keyPrefix).
		Tag(fieldOwner).
		Text(fieldContent)

	switch cfg.Algorithm {
	case "", db.VectorHNSW:
		b = b.VectorHNSW(fieldVector, dims, db.DistanceCosine, cfg.M, cfg.EFConstruct)
	case db.VectorFlat:
		b = b.VectorFlat(fieldVector, dims, db.DistanceCosine)
	default:
		return nil, fmt.Errorf("unsupported vector algorithm %q", cfg.Algorithm)
	}
	return b.Build()
}

func docKey(id string) string {
	return keyPrefix + id
}

func docIDFromKey(key string) string {
	if len(key) > len(keyPrefix) && key[:len(keyPrefix)] == keyPrefix {
		return key[len(keyPrefix):]
	}
	return key
}
