package app

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvault/internal/chunk"
	"docvault/internal/extract"
	"docvault/internal/index"
)

func newTestRetrievalService(docs DocumentStore, idx index.VectorIndex) *RetrievalService {
	return NewRetrievalService(docs, idx, newFakeEmbedder(), &recordingPublisher{}, RetrievalConfig{
		MaxUploadBytes: 1 << 20,
		ChunkSize:      500,
		ChunkOverlap:   50,
		TopK:           5,
	})
}

func TestIngestAndRetrieve(t *testing.T) {
	docs := newFakeDocumentStore()
	idx := index.NewMemoryIndex()
	svc := newTestRetrievalService(docs, idx)
	ctx := context.Background()

	doc, err := svc.Ingest(ctx, 1, "Report_Q1.txt", []byte("Sales were $1.2M in Q1, ahead of forecast."))
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, uint(1), doc.AccountID)
	assert.Equal(t, "Report_Q1.txt", doc.Filename)
	assert.Equal(t, 1, doc.ChunkCount)
	assert.Positive(t, doc.TextBytes)

	listed, err := svc.ListDocuments(1)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, doc.ID, listed[0].ID)

	chunks, err := svc.AnswerContext(ctx, 1, "What were Q1 sales?", 0, "")
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Contains(t, chunks[0].Content, "$1.2M")
	assert.Equal(t, "Report_Q1.txt", chunks[0].Filename)
	assert.Equal(t, doc.ID, chunks[0].DocumentID)
}

func TestIngestRejections(t *testing.T) {
	svc := newTestRetrievalService(newFakeDocumentStore(), index.NewMemoryIndex())
	ctx := context.Background()

	_, err := svc.Ingest(ctx, 1, "setup.exe", []byte("MZ binary"))
	assert.ErrorIs(t, err, extract.ErrUnsupportedExtension)

	_, err = svc.Ingest(ctx, 1, "blank.txt", []byte("   \n\t  "))
	assert.ErrorIs(t, err, extract.ErrEmptyExtraction)

	_, err = svc.Ingest(ctx, 1, "huge.txt", make([]byte, 2<<20))
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = svc.Ingest(ctx, 0, "doc.txt", []byte("content"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Ingest(ctx, 1, "  ", []byte("content"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestIngestBadChunkConfig(t *testing.T) {
	svc := NewRetrievalService(newFakeDocumentStore(), index.NewMemoryIndex(), newFakeEmbedder(), nil, RetrievalConfig{
		ChunkSize:    10,
		ChunkOverlap: 10,
	})
	_, err := svc.Ingest(context.Background(), 1, "doc.txt", []byte("enough text to need chunking"))
	assert.ErrorIs(t, err, chunk.ErrInvalidConfig)
}

// A failure after chunks were indexed must leave no visible trace: the
// document never appears in listings and the compensating delete clears
// the index.
func TestIngestAllOrNothing(t *testing.T) {
	docs := newFakeDocumentStore()
	idx := index.NewMemoryIndex()
	svc := newTestRetrievalService(docs, idx)
	ctx := context.Background()

	docs.failNext = true
	_, err := svc.Ingest(ctx, 1, "doomed.txt", []byte("sales figures for q1"))
	require.Error(t, err)

	listed, err := svc.ListDocuments(1)
	require.NoError(t, err)
	assert.Empty(t, listed)

	emb, _ := newFakeEmbedder().Embed(ctx, "sales q1")
	hits, err := idx.Query(ctx, 1, emb, 10)
	require.NoError(t, err)
	assert.Empty(t, hits, "compensating delete must remove indexed chunks")
}

func TestIngestEmbedFailureLeavesNoTrace(t *testing.T) {
	docs := newFakeDocumentStore()
	idx := index.NewMemoryIndex()
	pub := &recordingPublisher{}
	svc := NewRetrievalService(docs, idx, failingEmbedder{}, pub, RetrievalConfig{})

	_, err := svc.Ingest(context.Background(), 1, "doc.txt", []byte("some content here"))
	require.Error(t, err)

	listed, err := svc.ListDocuments(1)
	require.NoError(t, err)
	assert.Empty(t, listed)
	assert.Empty(t, pub.published(), "nothing was indexed, nothing to reconcile")
}

func TestTenantIsolation(t *testing.T) {
	docs := newFakeDocumentStore()
	idx := index.NewMemoryIndex()
	svc := newTestRetrievalService(docs, idx)
	ctx := context.Background()

	docA, err := svc.Ingest(ctx, 1, "Report_Q1.txt", []byte("Sales were $1.2M in Q1."))
	require.NoError(t, err)

	// User B with no uploads gets NoDocuments, not other users' data.
	_, err = svc.AnswerContext(ctx, 2, "What were Q1 sales?", 5, "")
	assert.ErrorIs(t, err, ErrNoDocuments)

	// Even after uploading something, B never sees A's chunks.
	_, err = svc.Ingest(ctx, 2, "notes.txt", []byte("The weather in March was mild."))
	require.NoError(t, err)

	chunks, err := svc.AnswerContext(ctx, 2, "What were Q1 sales?", 5, "")
	require.NoError(t, err)
	for _, ch := range chunks {
		assert.NotEqual(t, docA.ID, ch.DocumentID)
		assert.NotContains(t, ch.Content, "$1.2M")
	}
}

func TestDeleteDocumentCascades(t *testing.T) {
	docs := newFakeDocumentStore()
	idx := index.NewMemoryIndex()
	svc := NewRetrievalService(docs, idx, newFakeEmbedder(), nil, RetrievalConfig{
		MaxUploadBytes: 1 << 20,
		ChunkSize:      40,
		ChunkOverlap:   8,
		TopK:           10,
	})
	ctx := context.Background()

	text := strings.Repeat("sales and contract renewal details. ", 10)
	doc, err := svc.Ingest(ctx, 1, "contracts.txt", []byte(text))
	require.NoError(t, err)
	require.Greater(t, doc.ChunkCount, 1, "test needs a multi-chunk document")

	require.NoError(t, svc.DeleteDocument(ctx, 1, doc.ID))

	listed, err := svc.ListDocuments(1)
	require.NoError(t, err)
	assert.Empty(t, listed)

	emb, _ := newFakeEmbedder().Embed(ctx, "contract renewal")
	hits, err := idx.Query(ctx, 1, emb, 50)
	require.NoError(t, err)
	assert.Empty(t, hits, "delete must remove every chunk of the document")

	assert.ErrorIs(t, svc.DeleteDocument(ctx, 1, doc.ID), ErrNotFound)
}

func TestDeleteForeignDocument(t *testing.T) {
	docs := newFakeDocumentStore()
	idx := index.NewMemoryIndex()
	svc := newTestRetrievalService(docs, idx)
	ctx := context.Background()

	doc, err := svc.Ingest(ctx, 1, "private.txt", []byte("confidential sales data"))
	require.NoError(t, err)

	err = svc.DeleteDocument(ctx, 2, doc.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	// The document and its chunks survive the foreign delete attempt.
	listed, err := svc.ListDocuments(1)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestAnswerContextDocumentFilter(t *testing.T) {
	docs := newFakeDocumentStore()
	idx := index.NewMemoryIndex()
	svc := newTestRetrievalService(docs, idx)
	ctx := context.Background()

	salesDoc, err := svc.Ingest(ctx, 1, "sales.txt", []byte("Sales were strong in Q1."))
	require.NoError(t, err)
	weatherDoc, err := svc.Ingest(ctx, 1, "weather.txt", []byte("The weather in March was mild."))
	require.NoError(t, err)

	chunks, err := svc.AnswerContext(ctx, 1, "How were sales?", 5, weatherDoc.ID)
	require.NoError(t, err)
	for _, ch := range chunks {
		assert.Equal(t, weatherDoc.ID, ch.DocumentID)
	}

	_, err = svc.AnswerContext(ctx, 1, "How were sales?", 5, "no-such-doc")
	assert.ErrorIs(t, err, ErrNotFound)

	// Another account naming someone else's document id must not learn
	// that it exists.
	_, err = svc.Ingest(ctx, 2, "other.txt", []byte("unrelated march notes"))
	require.NoError(t, err)
	_, err = svc.AnswerContext(ctx, 2, "anything sales", 5, salesDoc.ID)
	assert.ErrorIs(t, err, ErrNotOwner)
}

// flakyIndex fails the first n queries with ErrStoreUnavailable, then
// delegates.
type flakyIndex struct {
	index.VectorIndex
	failures int
}

func (f *flakyIndex) Query(ctx context.Context, ownerID uint, embedding []float32, topK int) ([]index.Hit, error) {
	if f.failures > 0 {
		f.failures--
		return nil, index.ErrStoreUnavailable
	}
	return f.VectorIndex.Query(ctx, ownerID, embedding, topK)
}

func TestAnswerContextRetriesStoreUnavailable(t *testing.T) {
	docs := newFakeDocumentStore()
	idx := &flakyIndex{VectorIndex: index.NewMemoryIndex(), failures: 2}
	svc := newTestRetrievalService(docs, idx)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, 1, "sales.txt", []byte("Sales were $1.2M in Q1."))
	require.NoError(t, err)

	chunks, err := svc.AnswerContext(ctx, 1, "What were Q1 sales?", 5, "")
	require.NoError(t, err, "two transient failures fit inside three attempts")
	assert.NotEmpty(t, chunks)
}

func TestAnswerContextExhaustsRetries(t *testing.T) {
	docs := newFakeDocumentStore()
	idx := &flakyIndex{VectorIndex: index.NewMemoryIndex(), failures: 10}
	svc := newTestRetrievalService(docs, idx)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, 1, "sales.txt", []byte("Sales were $1.2M in Q1."))
	require.NoError(t, err)

	_, err = svc.AnswerContext(ctx, 1, "What were Q1 sales?", 5, "")
	assert.ErrorIs(t, err, index.ErrStoreUnavailable)
}

func TestReuploadCreatesNewDocument(t *testing.T) {
	svc := newTestRetrievalService(newFakeDocumentStore(), index.NewMemoryIndex())
	ctx := context.Background()

	first, err := svc.Ingest(ctx, 1, "report.txt", []byte("sales report v1"))
	require.NoError(t, err)
	second, err := svc.Ingest(ctx, 1, "report.txt", []byte("sales report v2"))
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	listed, err := svc.ListDocuments(1)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}
