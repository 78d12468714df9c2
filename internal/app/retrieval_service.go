package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"docvault/internal/ai"
	"docvault/internal/chunk"
	"docvault/internal/extract"
	"docvault/internal/index"
	"docvault/internal/model"
)

// DocumentStore is the document-metadata surface the coordinator needs.
type DocumentStore interface {
	Create(doc *model.Document) error
	ListByAccountID(accountID uint) ([]model.Document, error)
	GetByID(id string) (*model.Document, error)
	DeleteByIDAndAccountID(id string, accountID uint) error
}

// CleanupPublisher enqueues orphaned-chunk reconciliation tasks. Used as a
// backstop when a compensating delete cannot be completed in-request.
type CleanupPublisher interface {
	Publish(ctx context.Context, task model.CleanupTask) error
}

// RetrievalConfig tunes the ingestion and query pipeline.
type RetrievalConfig struct {
	MaxUploadBytes   int64
	ChunkSize        int
	ChunkOverlap     int
	TopK             int
	EmbedBatchSize   int
	EmbedConcurrency int
	QueryRetries     int
}

// RetrievalService orchestrates ingestion (extract, chunk, embed, index)
// and retrieval, enforcing tenant scoping at every step. Every operation
// takes the authenticated owner explicitly; there is no ambient user.
type RetrievalService struct {
	docs     DocumentStore
	vectors  index.VectorIndex
	embedder ai.Embedder
	cleanup  CleanupPublisher
	cfg      RetrievalConfig

	docLocks *keyedLock // "owner:document" scoped
}

// RetrievedChunk is one ranked retrieval result with enough provenance for
// the generation collaborator to cite its source.
type RetrievedChunk struct {
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	Ordinal    int     `json:"ordinal"`
	Content    string  `json:"content"`
	Score      float32 `json:"score"`
}

func NewRetrievalService(
	docs DocumentStore,
	vectors index.VectorIndex,
	embedder ai.Embedder,
	cleanup CleanupPublisher,
	cfg RetrievalConfig,
) *RetrievalService {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 500
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 50
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = 10
	}
	if cfg.EmbedConcurrency <= 0 {
		cfg.EmbedConcurrency = 4
	}
	if cfg.QueryRetries <= 0 {
		cfg.QueryRetries = 3
	}
	return &RetrievalService{
		docs:     docs,
		vectors:  vectors,
		embedder: embedder,
		cleanup:  cleanup,
		cfg:      cfg,
		docLocks: newKeyedLock(),
	}
}

// Ingest runs size check, extraction, chunking, embedding, and indexing,
// committing the document row last. An ingest either fully succeeds or
// leaves no visible trace: the document becomes listable only after all of
// its chunks are indexed, and a failure after indexing triggers a
// compensating delete with the reconciliation queue as backstop.
func (s *RetrievalService) Ingest(ctx context.Context, ownerID uint, filename string, data []byte) (*model.Document, error) {
	if ownerID == 0 {
		return nil, ErrInvalidInput
	}
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, ErrInvalidInput
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, ErrFileTooLarge
	}

	text, err := extract.Extract(data, filepath.Ext(filename))
	if err != nil {
		return nil, err
	}

	pieces, err := chunk.Split(text, s.cfg.ChunkSize, s.cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	if len(pieces) == 0 {
		return nil, extract.ErrEmptyExtraction
	}

	embeddings, err := s.embedAll(ctx, pieces)
	if err != nil {
		return nil, err
	}

	// A re-upload of the same filename always creates a new document;
	// there is no implicit overwrite.
	doc := &model.Document{
		ID:         uuid.NewString(),
		AccountID:  ownerID,
		Filename:   filename,
		TextBytes:  len(text),
		ChunkCount: len(pieces),
	}

	records := make([]index.Record, len(pieces))
	for i, piece := range pieces {
		records[i] = index.Record{
			OwnerID:    ownerID,
			DocumentID: doc.ID,
			Ordinal:    piece.Ordinal,
			Content:    piece.Text,
			Embedding:  embeddings[i],
		}
	}

	unlock := s.lockDocument(ownerID, doc.ID)
	defer unlock()

	if err := s.vectors.Upsert(ctx, records); err != nil {
		// The batch may have landed partially; let the sweep reclaim it.
		s.requestCleanup(ownerID, doc.ID)
		return nil, err
	}
	if err := s.docs.Create(doc); err != nil {
		if delErr := s.vectors.DeleteDocument(context.WithoutCancel(ctx), ownerID, doc.ID); delErr != nil {
			s.requestCleanup(ownerID, doc.ID)
		}
		return nil, err
	}
	return doc, nil
}

func (s *RetrievalService) embedAll(ctx context.Context, pieces []chunk.Piece) ([][]float32, error) {
	embeddings := make([][]float32, len(pieces))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.EmbedConcurrency)
	for start := 0; start < len(pieces); start += s.cfg.EmbedBatchSize {
		end := start + s.cfg.EmbedBatchSize
		if end > len(pieces) {
			end = len(pieces)
		}
		start, end := start, end
		g.Go(func() error {
			texts := make([]string, end-start)
			for i := start; i < end; i++ {
				texts[i-start] = pieces[i].Text
			}
			vectors, err := s.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed batch [%d,%d) failed: %w", start, end, err)
			}
			if len(vectors) != end-start {
				return fmt.Errorf("embed batch [%d,%d): got %d vectors", start, end, len(vectors))
			}
			copy(embeddings[start:], vectors)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return embeddings, nil
}

// AnswerContext embeds the question and returns the owner's top-k ranked
// chunks. It never generates prose; the caller hands the chunks to the
// generation collaborator. A non-empty documentID restricts retrieval to
// that document after verifying ownership.
func (s *RetrievalService) AnswerContext(ctx context.Context, ownerID uint, question string, topK int, documentID string) ([]RetrievedChunk, error) {
	if ownerID == 0 {
		return nil, ErrInvalidInput
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrInvalidInput
	}
	if topK <= 0 {
		topK = s.cfg.TopK
	}

	docs, err := s.docs.ListByAccountID(ownerID)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	filenames := make(map[string]string, len(docs))
	totalChunks := 0
	for i := range docs {
		filenames[docs[i].ID] = docs[i].Filename
		totalChunks += docs[i].ChunkCount
	}

	if documentID != "" {
		if _, ok := filenames[documentID]; !ok {
			return nil, s.classifyMissing(documentID)
		}
	}

	embedding, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, err
	}

	// When restricted to one document, pull the full owner ranking so the
	// document's own chunks cannot be crowded out before filtering.
	fetchK := topK
	if documentID != "" {
		fetchK = totalChunks
	}

	hits, err := s.queryWithRetry(ctx, ownerID, embedding, fetchK)
	if err != nil {
		return nil, err
	}

	results := make([]RetrievedChunk, 0, topK)
	for _, hit := range hits {
		if documentID != "" && hit.DocumentID != documentID {
			continue
		}
		results = append(results, RetrievedChunk{
			DocumentID: hit.DocumentID,
			Filename:   filenames[hit.DocumentID],
			Ordinal:    hit.Ordinal,
			Content:    hit.Content,
			Score:      hit.Score,
		})
		if len(results) == topK {
			break
		}
	}
	return results, nil
}

func (s *RetrievalService) queryWithRetry(ctx context.Context, ownerID uint, embedding []float32, topK int) ([]index.Hit, error) {
	backoff := 100 * time.Millisecond
	var lastErr error
	for attempt := 0; attempt < s.cfg.QueryRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", index.ErrStoreUnavailable, ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		hits, err := s.vectors.Query(ctx, ownerID, embedding, topK)
		if err == nil {
			return hits, nil
		}
		if !errors.Is(err, index.ErrStoreUnavailable) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (s *RetrievalService) ListDocuments(ownerID uint) ([]model.Document, error) {
	if ownerID == 0 {
		return nil, ErrInvalidInput
	}
	return s.docs.ListByAccountID(ownerID)
}

// DeleteDocument verifies ownership, then removes the document's chunks and
// its metadata. Linearized against any in-flight ingest of the same
// document via the per-document lock. Chunks go first so a partial failure
// can only leave a chunkless document, never orphaned chunks.
func (s *RetrievalService) DeleteDocument(ctx context.Context, ownerID uint, documentID string) error {
	if ownerID == 0 || documentID == "" {
		return ErrInvalidInput
	}

	doc, err := s.docs.GetByID(documentID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrNotFound
	}
	if doc.AccountID != ownerID {
		log.Printf("isolation: account %d attempted delete of foreign document %s", ownerID, documentID)
		return ErrNotOwner
	}

	unlock := s.lockDocument(ownerID, documentID)
	defer unlock()

	if err := s.vectors.DeleteDocument(ctx, ownerID, documentID); err != nil {
		s.requestCleanup(ownerID, documentID)
		return err
	}
	return s.docs.DeleteByIDAndAccountID(documentID, ownerID)
}

func (s *RetrievalService) classifyMissing(documentID string) error {
	doc, err := s.docs.GetByID(documentID)
	if err != nil {
		return err
	}
	if doc != nil {
		return ErrNotOwner
	}
	return ErrNotFound
}

func (s *RetrievalService) lockDocument(ownerID uint, documentID string) func() {
	return s.docLocks.Lock(fmt.Sprintf("%d:%s", ownerID, documentID))
}

func (s *RetrievalService) requestCleanup(ownerID uint, documentID string) {
	if s.cleanup == nil {
		return
	}
	task := model.CleanupTask{AccountID: ownerID, DocumentID: documentID}
	if err := s.cleanup.Publish(context.Background(), task); err != nil {
		log.Printf("enqueue chunk cleanup for document %s failed: %v", documentID, err)
	}
}
