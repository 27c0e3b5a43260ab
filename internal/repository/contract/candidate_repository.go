package contract

import (
	"context"

	"subsidy-intake-be/pkg/store"
)

// CandidateRepository persists the subsidy corpus with its embeddings
type CandidateRepository interface {
	FindAll(ctx context.Context) ([]store.Candidate, error)
	Upsert(ctx context.Context, candidates []store.Candidate) error
	Count(ctx context.Context) (int64, error)
}
