package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"subsidy-intake-be/internal/repository/contract"
	"subsidy-intake-be/pkg/store"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "intake:session:"

// Hash fields of a session document
const (
	fieldActive         = "active"
	fieldStartedAt      = "started_at"
	fieldLastActivityAt = "last_activity_at"
	fieldCandidateID    = "candidate_id"
	fieldCandidateName  = "candidate_name"
	fieldOfferedFrom    = "offered_from"
)

// startOrRefreshScript resets started_at only when no window is open.
// KEYS[1] session key, ARGV[1] now ms, ARGV[2] ttl ms, ARGV[3] retention ms
var startOrRefreshScript = redis.NewScript(`
local active = redis.call('HGET', KEYS[1], 'active')
local started = tonumber(redis.call('HGET', KEYS[1], 'started_at') or '0')
local now = tonumber(ARGV[1])
if active ~= '1' or (now - started) > tonumber(ARGV[2]) then
  redis.call('HSET', KEYS[1], 'started_at', ARGV[1])
end
redis.call('HSET', KEYS[1], 'active', '1', 'last_activity_at', ARGV[1])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

// touchScript never creates a document.
// KEYS[1] session key, ARGV[1] now ms, ARGV[2] retention ms
var touchScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  redis.call('HSET', KEYS[1], 'last_activity_at', ARGV[1])
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
  return 1
end
return 0
`)

// SessionRepository stores one Redis hash per user. Multi-field updates run
// as Lua scripts or MULTI blocks so every write is atomic per document.
type SessionRepository struct {
	rdb       *redis.Client
	retention time.Duration
	now       func() time.Time
}

var _ contract.SessionRepository = (*SessionRepository)(nil)

func NewSessionRepository(rdb *redis.Client, retention time.Duration) *SessionRepository {
	return NewSessionRepositoryWithClock(rdb, retention, time.Now)
}

func NewSessionRepositoryWithClock(rdb *redis.Client, retention time.Duration, now func() time.Time) *SessionRepository {
	return &SessionRepository{
		rdb:       rdb,
		retention: retention,
		now:       now,
	}
}

func key(userID string) string {
	return keyPrefix + userID
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: redis %s: %v", contract.ErrStoreUnavailable, op, err)
}

func (r *SessionRepository) nowMillis() int64 {
	return r.now().UnixMilli()
}

// write sets the given field pairs and refreshes retention in one MULTI block
func (r *SessionRepository) write(ctx context.Context, op, userID string, values ...interface{}) error {
	k := key(userID)
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, values...)
		pipe.PExpire(ctx, k, r.retention)
		return nil
	})
	if err != nil {
		return unavailable(op, err)
	}
	return nil
}

func (r *SessionRepository) IsHandoffActiveWithinTTL(ctx context.Context, userID string, ttl time.Duration) (bool, error) {
	session, err := r.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return session.HandoffActiveWithin(r.now(), ttl), nil
}

func (r *SessionRepository) StartOrRefreshHandoff(ctx context.Context, userID string, ttl time.Duration) error {
	err := startOrRefreshScript.Run(ctx, r.rdb, []string{key(userID)},
		r.nowMillis(), ttl.Milliseconds(), r.retention.Milliseconds(),
	).Err()
	if err != nil {
		return unavailable("start handoff", err)
	}
	return nil
}

func (r *SessionRepository) TouchActivity(ctx context.Context, userID string) error {
	err := touchScript.Run(ctx, r.rdb, []string{key(userID)},
		r.nowMillis(), r.retention.Milliseconds(),
	).Err()
	if err != nil {
		return unavailable("touch", err)
	}
	return nil
}

func (r *SessionRepository) EndHandoff(ctx context.Context, userID string) error {
	return r.write(ctx, "end handoff", userID,
		fieldActive, "0",
		fieldLastActivityAt, r.nowMillis(),
	)
}

func (r *SessionRepository) RecordOfferedCandidates(ctx context.Context, userID string, candidates []store.RankedResult) error {
	if candidates == nil {
		candidates = []store.RankedResult{}
	}
	raw, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("encode offered candidates: %w", err)
	}
	return r.write(ctx, "record offered", userID,
		fieldOfferedFrom, string(raw),
		fieldLastActivityAt, r.nowMillis(),
	)
}

func (r *SessionRepository) ResolveSelection(ctx context.Context, userID string, candidateID string) (*store.RankedResult, error) {
	session, err := r.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	found, ok := session.FindOffered(candidateID)
	if !ok {
		return nil, nil
	}
	return found, nil
}

func (r *SessionRepository) CommitSelection(ctx context.Context, userID string, candidate store.RankedResult) error {
	return r.write(ctx, "commit selection", userID,
		fieldCandidateID, candidate.CandidateID,
		fieldCandidateName, candidate.CandidateName,
		fieldLastActivityAt, r.nowMillis(),
	)
}

func (r *SessionRepository) Get(ctx context.Context, userID string) (*store.Session, error) {
	fields, err := r.rdb.HGetAll(ctx, key(userID)).Result()
	if err != nil {
		return nil, unavailable("get", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return decode(userID, fields)
}

func (r *SessionRepository) Delete(ctx context.Context, userID string) error {
	if err := r.rdb.Del(ctx, key(userID)).Err(); err != nil {
		return unavailable("delete", err)
	}
	return nil
}

func decode(userID string, fields map[string]string) (*store.Session, error) {
	session := &store.Session{UserID: userID}
	session.Handoff.Active = fields[fieldActive] == "1"

	var err error
	if session.Handoff.StartedAt, err = parseMillis(fields[fieldStartedAt]); err != nil {
		return nil, fmt.Errorf("decode %s: %w", fieldStartedAt, err)
	}
	if session.Handoff.LastActivityAt, err = parseMillis(fields[fieldLastActivityAt]); err != nil {
		return nil, fmt.Errorf("decode %s: %w", fieldLastActivityAt, err)
	}

	session.Selection.CandidateID = fields[fieldCandidateID]
	session.Selection.CandidateName = fields[fieldCandidateName]

	if raw := fields[fieldOfferedFrom]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &session.Selection.OfferedFrom); err != nil {
			return nil, fmt.Errorf("decode %s: %w", fieldOfferedFrom, err)
		}
	}
	return session, nil
}

func parseMillis(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}
