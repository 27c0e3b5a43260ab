package corpus

import (
	"context"
	"fmt"

	"subsidy-intake-be/internal/pkg/logger"
	"subsidy-intake-be/internal/repository/contract"
	"subsidy-intake-be/pkg/store"
)

const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

type Loader struct {
	source     string
	csvPath    string
	candidates contract.CandidateRepository
	logger     logger.ILogger
}

// NewLoader reads from csvPath or from candidates depending on source.
// candidates may be nil when source is csv.
func NewLoader(source, csvPath string, candidates contract.CandidateRepository, log logger.ILogger) *Loader {
	return &Loader{
		source:     source,
		csvPath:    csvPath,
		candidates: candidates,
		logger:     log,
	}
}

func (l *Loader) Load(ctx context.Context) ([]store.Candidate, error) {
	var (
		entries []store.Candidate
		err     error
	)

	switch l.source {
	case SourceCSV, "":
		entries, err = LoadCSV(l.csvPath, l.logger)
	case SourcePostgres:
		if l.candidates == nil {
			return nil, fmt.Errorf("corpus source %q needs a database", l.source)
		}
		entries, err = l.candidates.FindAll(ctx)
	default:
		return nil, fmt.Errorf("unknown corpus source %q", l.source)
	}
	if err != nil {
		return nil, err
	}

	l.logger.Info(module, "Corpus loaded", map[string]interface{}{
		"source":  l.source,
		"entries": len(entries),
	})
	return entries, nil
}
