package memory

import (
	"context"
	"sync"
	"time"

	"subsidy-intake-be/internal/repository/contract"
	"subsidy-intake-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps session documents in process memory.
// Suitable for a single instance or tests.
type SessionRepository struct {
	cache *cache.Cache
	mu    sync.Mutex
	now   func() time.Time
}

var _ contract.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository evicts documents idle for longer than retention
func NewSessionRepository(retention time.Duration) *SessionRepository {
	return NewSessionRepositoryWithClock(retention, time.Now)
}

func NewSessionRepositoryWithClock(retention time.Duration, now func() time.Time) *SessionRepository {
	return &SessionRepository{
		cache: cache.New(retention, 10*time.Minute),
		now:   now,
	}
}

func (r *SessionRepository) load(userID string) *store.Session {
	if x, found := r.cache.Get(userID); found {
		return x.(*store.Session).Clone()
	}
	return nil
}

func (r *SessionRepository) save(session *store.Session) {
	r.cache.Set(session.UserID, session, cache.DefaultExpiration)
}

// mutate runs fn on a copy of the document under the store lock.
// create controls whether a missing document is created.
func (r *SessionRepository) mutate(userID string, create bool, fn func(s *store.Session, now time.Time)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session := r.load(userID)
	if session == nil {
		if !create {
			return
		}
		session = &store.Session{UserID: userID}
	}
	fn(session, r.now())
	r.save(session)
}

func (r *SessionRepository) IsHandoffActiveWithinTTL(ctx context.Context, userID string, ttl time.Duration) (bool, error) {
	return r.load(userID).HandoffActiveWithin(r.now(), ttl), nil
}

func (r *SessionRepository) StartOrRefreshHandoff(ctx context.Context, userID string, ttl time.Duration) error {
	r.mutate(userID, true, func(s *store.Session, now time.Time) {
		if !s.HandoffActiveWithin(now, ttl) {
			s.Handoff.StartedAt = now
		}
		s.Handoff.Active = true
		s.Handoff.LastActivityAt = now
	})
	return nil
}

func (r *SessionRepository) TouchActivity(ctx context.Context, userID string) error {
	r.mutate(userID, false, func(s *store.Session, now time.Time) {
		s.Handoff.LastActivityAt = now
	})
	return nil
}

func (r *SessionRepository) EndHandoff(ctx context.Context, userID string) error {
	r.mutate(userID, true, func(s *store.Session, now time.Time) {
		s.Handoff.Active = false
		s.Handoff.LastActivityAt = now
	})
	return nil
}

func (r *SessionRepository) RecordOfferedCandidates(ctx context.Context, userID string, candidates []store.RankedResult) error {
	offered := append([]store.RankedResult{}, candidates...)
	r.mutate(userID, true, func(s *store.Session, now time.Time) {
		s.Selection.OfferedFrom = offered
		s.Handoff.LastActivityAt = now
	})
	return nil
}

func (r *SessionRepository) ResolveSelection(ctx context.Context, userID string, candidateID string) (*store.RankedResult, error) {
	found, ok := r.load(userID).FindOffered(candidateID)
	if !ok {
		return nil, nil
	}
	return found, nil
}

func (r *SessionRepository) CommitSelection(ctx context.Context, userID string, candidate store.RankedResult) error {
	r.mutate(userID, true, func(s *store.Session, now time.Time) {
		s.Selection.CandidateID = candidate.CandidateID
		s.Selection.CandidateName = candidate.CandidateName
		s.Handoff.LastActivityAt = now
	})
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, userID string) (*store.Session, error) {
	return r.load(userID), nil
}

func (r *SessionRepository) Delete(ctx context.Context, userID string) error {
	r.cache.Delete(userID)
	return nil
}
