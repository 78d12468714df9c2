package index

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"docvault/internal/model"
)

// MySQLIndex keeps chunk vectors in the chunks table and scores them
// in-process. Fine for the corpus sizes a single account uploads; a
// dedicated vector store can replace it behind the same interface.
type MySQLIndex struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewMySQLIndex(db *gorm.DB, timeout time.Duration) *MySQLIndex {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MySQLIndex{db: db, timeout: timeout}
}

func (x *MySQLIndex) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	chunks := make([]model.Chunk, len(records))
	for i, rec := range records {
		chunks[i] = model.Chunk{
			DocumentID: rec.DocumentID,
			AccountID:  rec.OwnerID,
			Ordinal:    rec.Ordinal,
			Content:    rec.Content,
		}
		chunks[i].SetEmbedding(rec.Embedding)
	}

	opCtx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()
	if err := x.db.WithContext(opCtx).Create(&chunks).Error; err != nil {
		return fmt.Errorf("%w: upsert chunks: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (x *MySQLIndex) Query(ctx context.Context, ownerID uint, embedding []float32, topK int) ([]Hit, error) {
	if topK <= 0 {
		return nil, nil
	}

	opCtx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	// Filter on the stored account tag, never on caller-side state.
	var chunks []model.Chunk
	if err := x.db.WithContext(opCtx).Where("account_id = ?", ownerID).Find(&chunks).Error; err != nil {
		return nil, fmt.Errorf("%w: query chunks: %v", ErrStoreUnavailable, err)
	}

	hits := make([]Hit, len(chunks))
	for i := range chunks {
		hits[i] = Hit{
			DocumentID: chunks[i].DocumentID,
			Ordinal:    chunks[i].Ordinal,
			Content:    chunks[i].Content,
			Score:      cosineSimilarity(embedding, chunks[i].EmbeddingVector()),
		}
	}
	sortHits(hits)
	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits, nil
}

func (x *MySQLIndex) DeleteDocument(ctx context.Context, ownerID uint, documentID string) error {
	opCtx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()
	err := x.db.WithContext(opCtx).
		Where("account_id = ? AND document_id = ?", ownerID, documentID).
		Delete(&model.Chunk{}).Error
	if err != nil {
		return fmt.Errorf("%w: delete chunks: %v", ErrStoreUnavailable, err)
	}
	return nil
}
