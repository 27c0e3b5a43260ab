// Package contracttest holds behaviour tests shared by every SessionRepository implementation.
package contracttest

import (
	"context"
	"sync"
	"testing"
	"time"

	"subsidy-intake-be/internal/repository/contract"
	"subsidy-intake-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Clock is a manually advanced time source
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Factory builds a fresh, empty repository reading time from clock
type Factory func(t *testing.T, clock *Clock) contract.SessionRepository

const ttl = 30 * time.Second

// RunSessionRepositorySuite exercises the full session document contract
func RunSessionRepositorySuite(t *testing.T, newRepo Factory) {
	ctx := context.Background()

	t.Run("missing session is idle", func(t *testing.T) {
		repo := newRepo(t, NewClock())

		active, err := repo.IsHandoffActiveWithinTTL(ctx, "u-missing", ttl)
		require.NoError(t, err)
		assert.False(t, active)

		session, err := repo.Get(ctx, "u-missing")
		require.NoError(t, err)
		assert.Nil(t, session)

		found, err := repo.ResolveSelection(ctx, "u-missing", "s1")
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("window is measured from start, not last activity", func(t *testing.T) {
		clock := NewClock()
		repo := newRepo(t, clock)

		require.NoError(t, repo.StartOrRefreshHandoff(ctx, "u1", ttl))
		started := clock.Now()

		clock.Advance(10 * time.Second)
		active, err := repo.IsHandoffActiveWithinTTL(ctx, "u1", ttl)
		require.NoError(t, err)
		assert.True(t, active)

		clock.Advance(20 * time.Second)
		active, err = repo.IsHandoffActiveWithinTTL(ctx, "u1", ttl)
		require.NoError(t, err)
		assert.True(t, active, "bound is inclusive")

		require.NoError(t, repo.TouchActivity(ctx, "u1"))
		clock.Advance(time.Second)
		require.NoError(t, repo.TouchActivity(ctx, "u1"))

		active, err = repo.IsHandoffActiveWithinTTL(ctx, "u1", ttl)
		require.NoError(t, err)
		assert.False(t, active, "recent activity must not extend the window")

		session, err := repo.Get(ctx, "u1")
		require.NoError(t, err)
		require.NotNil(t, session)
		assert.True(t, session.Handoff.StartedAt.Equal(started), "touch must not reset startedAt")
		assert.True(t, session.Handoff.LastActivityAt.Equal(clock.Now()))
		assert.True(t, session.Handoff.Active)
	})

	t.Run("refresh keeps an open window and reopens an expired one", func(t *testing.T) {
		clock := NewClock()
		repo := newRepo(t, clock)

		require.NoError(t, repo.StartOrRefreshHandoff(ctx, "u2", ttl))
		started := clock.Now()

		clock.Advance(5 * time.Second)
		require.NoError(t, repo.StartOrRefreshHandoff(ctx, "u2", ttl))

		session, err := repo.Get(ctx, "u2")
		require.NoError(t, err)
		assert.True(t, session.Handoff.StartedAt.Equal(started))
		assert.True(t, session.Handoff.LastActivityAt.Equal(clock.Now()))

		clock.Advance(time.Minute)
		require.NoError(t, repo.StartOrRefreshHandoff(ctx, "u2", ttl))

		session, err = repo.Get(ctx, "u2")
		require.NoError(t, err)
		assert.True(t, session.Handoff.StartedAt.Equal(clock.Now()))

		active, err := repo.IsHandoffActiveWithinTTL(ctx, "u2", ttl)
		require.NoError(t, err)
		assert.True(t, active)
	})

	t.Run("touch does not create a session", func(t *testing.T) {
		repo := newRepo(t, NewClock())

		require.NoError(t, repo.TouchActivity(ctx, "u-touch"))

		session, err := repo.Get(ctx, "u-touch")
		require.NoError(t, err)
		if session != nil {
			assert.False(t, session.Handoff.Active)
		}
	})

	t.Run("end handoff always deactivates", func(t *testing.T) {
		clock := NewClock()
		repo := newRepo(t, clock)

		require.NoError(t, repo.EndHandoff(ctx, "u-fresh"))
		session, err := repo.Get(ctx, "u-fresh")
		require.NoError(t, err)
		require.NotNil(t, session)
		assert.False(t, session.Handoff.Active)

		require.NoError(t, repo.StartOrRefreshHandoff(ctx, "u3", ttl))
		require.NoError(t, repo.EndHandoff(ctx, "u3"))

		active, err := repo.IsHandoffActiveWithinTTL(ctx, "u3", ttl)
		require.NoError(t, err)
		assert.False(t, active)

		require.NoError(t, repo.EndHandoff(ctx, "u3"))
		session, err = repo.Get(ctx, "u3")
		require.NoError(t, err)
		assert.False(t, session.Handoff.Active)
	})

	t.Run("selection is scoped to the last offered set", func(t *testing.T) {
		repo := newRepo(t, NewClock())

		require.NoError(t, repo.RecordOfferedCandidates(ctx, "u4", []store.RankedResult{
			{CandidateID: "s1", CandidateName: "Solar", Similarity: 0.9},
			{CandidateID: "s2", CandidateName: "Compost", Similarity: 0.7},
		}))

		missing, err := repo.ResolveSelection(ctx, "u4", "s9")
		require.NoError(t, err)
		assert.Nil(t, missing)

		found, err := repo.ResolveSelection(ctx, "u4", "s2")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "Compost", found.CandidateName)

		require.NoError(t, repo.RecordOfferedCandidates(ctx, "u4", []store.RankedResult{
			{CandidateID: "s3", CandidateName: "Childcare", Similarity: 0.8},
		}))

		stale, err := repo.ResolveSelection(ctx, "u4", "s1")
		require.NoError(t, err)
		assert.Nil(t, stale, "older offers are replaced, not merged")

		session, err := repo.Get(ctx, "u4")
		require.NoError(t, err)
		require.Len(t, session.Selection.OfferedFrom, 1)
		assert.Equal(t, "s3", session.Selection.OfferedFrom[0].CandidateID)
		assert.InDelta(t, 0.8, session.Selection.OfferedFrom[0].Similarity, 1e-9)
	})

	t.Run("commit overwrites the selection", func(t *testing.T) {
		repo := newRepo(t, NewClock())

		first := store.RankedResult{CandidateID: "s1", CandidateName: "Solar"}
		second := store.RankedResult{CandidateID: "s2", CandidateName: "Compost"}

		require.NoError(t, repo.CommitSelection(ctx, "u5", first))
		require.NoError(t, repo.CommitSelection(ctx, "u5", first))

		session, err := repo.Get(ctx, "u5")
		require.NoError(t, err)
		assert.Equal(t, "s1", session.Selection.CandidateID)

		require.NoError(t, repo.CommitSelection(ctx, "u5", second))
		session, err = repo.Get(ctx, "u5")
		require.NoError(t, err)
		assert.Equal(t, "s2", session.Selection.CandidateID)
		assert.Equal(t, "Compost", session.Selection.CandidateName)
	})

	t.Run("delete removes the document", func(t *testing.T) {
		repo := newRepo(t, NewClock())

		require.NoError(t, repo.StartOrRefreshHandoff(ctx, "u6", ttl))
		require.NoError(t, repo.Delete(ctx, "u6"))

		session, err := repo.Get(ctx, "u6")
		require.NoError(t, err)
		assert.Nil(t, session)
	})
}
