package index

import (
	"context"
	"errors"
	"math"
	"sort"
)

// ErrStoreUnavailable is returned when the backing store cannot be reached
// or does not answer within the caller's deadline.
var ErrStoreUnavailable = errors.New("vector store unavailable")

// Record is one chunk written to the index. OwnerID is stored alongside the
// vector and is the authoritative tenant tag for every later read.
type Record struct {
	OwnerID    uint
	DocumentID string
	Ordinal    int
	Content    string
	Embedding  []float32
}

// Hit is one retrieval result, ordered by descending similarity.
type Hit struct {
	DocumentID string
	Ordinal    int
	Content    string
	Score      float32
}

// VectorIndex stores chunk embeddings tagged with their owning account and
// answers nearest-neighbor queries scoped to a single owner.
type VectorIndex interface {
	Upsert(ctx context.Context, records []Record) error
	Query(ctx context.Context, ownerID uint, embedding []float32, topK int) ([]Hit, error)
	DeleteDocument(ctx context.Context, ownerID uint, documentID string) error
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}

// sortHits orders by score descending; ties break on smaller document id,
// then smaller ordinal, so results are reproducible.
func sortHits(hits []Hit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].DocumentID != hits[j].DocumentID {
			return hits[i].DocumentID < hits[j].DocumentID
		}
		return hits[i].Ordinal < hits[j].Ordinal
	})
}
