package contract

import (
	"context"
	"errors"
	"time"

	"subsidy-intake-be/pkg/store"
)

// ErrStoreUnavailable wraps every backend failure of a session store
var ErrStoreUnavailable = errors.New("session store unavailable")

// SessionRepository owns all reads and writes of per-user session documents.
// Other components only ever see sessions by value.
type SessionRepository interface {
	// IsHandoffActiveWithinTTL is true iff the session exists, is active and
	// started no more than ttl ago
	IsHandoffActiveWithinTTL(ctx context.Context, userID string, ttl time.Duration) (bool, error)

	// StartOrRefreshHandoff activates the session and bumps lastActivityAt.
	// startedAt is only reset when no handoff window is currently open.
	StartOrRefreshHandoff(ctx context.Context, userID string, ttl time.Duration) error

	// TouchActivity updates lastActivityAt only
	TouchActivity(ctx context.Context, userID string) error

	// EndHandoff sets active=false whatever the prior state
	EndHandoff(ctx context.Context, userID string) error

	RecordOfferedCandidates(ctx context.Context, userID string, candidates []store.RankedResult) error

	// ResolveSelection looks candidateID up in the last offered set only; nil when absent
	ResolveSelection(ctx context.Context, userID string, candidateID string) (*store.RankedResult, error)

	// CommitSelection overwrites the selected candidate
	CommitSelection(ctx context.Context, userID string, candidate store.RankedResult) error

	// Get returns nil when the user has no session
	Get(ctx context.Context, userID string) (*store.Session, error)

	Delete(ctx context.Context, userID string) error
}
