package index

import (
	"context"
	"sync"
)

// MemoryIndex is an in-process VectorIndex for single-node development and
// tests. Safe for concurrent use.
type MemoryIndex struct {
	mu      sync.RWMutex
	records []Record
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

func (x *MemoryIndex) Upsert(_ context.Context, records []Record) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.records = append(x.records, records...)
	return nil
}

func (x *MemoryIndex) Query(_ context.Context, ownerID uint, embedding []float32, topK int) ([]Hit, error) {
	if topK <= 0 {
		return nil, nil
	}
	x.mu.RLock()
	defer x.mu.RUnlock()

	var hits []Hit
	for i := range x.records {
		if x.records[i].OwnerID != ownerID {
			continue
		}
		hits = append(hits, Hit{
			DocumentID: x.records[i].DocumentID,
			Ordinal:    x.records[i].Ordinal,
			Content:    x.records[i].Content,
			Score:      cosineSimilarity(embedding, x.records[i].Embedding),
		})
	}
	sortHits(hits)
	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits, nil
}

func (x *MemoryIndex) DeleteDocument(_ context.Context, ownerID uint, documentID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	kept := x.records[:0]
	for i := range x.records {
		if x.records[i].OwnerID == ownerID && x.records[i].DocumentID == documentID {
			continue
		}
		kept = append(kept, x.records[i])
	}
	x.records = kept
	return nil
}
