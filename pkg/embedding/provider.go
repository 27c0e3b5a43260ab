package embedding

import "context"

// Task types understood by Gemini; other providers ignore them
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// CorpusDimensions is the width of the stored subsidy vectors. Query
// vectors must match it or ranking fails with a dimension mismatch.
const CorpusDimensions = 768

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) ([]float32, error)
}
