package domain

// IndexedDocument is a document stored in the vector index.
type IndexedDocument struct {
	ID      string
	OwnerID string
	Content string
	Vector  []float32
}

// NearestQuery asks the vector index for the TopK closest documents of one owner.
// Adapters always apply the owner filter; an empty OwnerID matches nothing.
type NearestQuery struct {
	OwnerID   string
	Vector    []float32
	TopK      int
	ExcludeID string // optional, skips the source document in "similar to" mode
}

// Neighbor is a single vector index hit; Distance is cosine distance in [0,2].
type Neighbor struct {
	DocumentID string
	Content    string
	Distance   float64
}

// ContextCandidate is a related document ranked by similarity in [0,1].
type ContextCandidate struct {
	DocumentID string  `json:"document_id"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

// SimilarityFromDistance converts cosine distance to similarity, clamped to [0,1].
// Assumes every vector adapter is configured for cosine distance.
func SimilarityFromDistance(distance float64) float64 {
	s := 1 - distance
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
