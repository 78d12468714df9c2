package ai

import "context"

// Embedder turns text into fixed-length vectors for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ContextChunk is one retrieved chunk handed to the generator, with enough
// provenance for the answer to cite its source.
type ContextChunk struct {
	Filename string
	Ordinal  int
	Content  string
}

// Generator produces prose from a question and retrieved chunks. The
// retrieval pipeline consumes it as a black box and never fabricates
// answers itself.
type Generator interface {
	Generate(ctx context.Context, question string, chunks []ContextChunk) (string, error)
}
