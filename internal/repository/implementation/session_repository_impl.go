package implementation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"subsidy-intake-be/internal/mapper"
	"subsidy-intake-be/internal/model"
	"subsidy-intake-be/internal/repository/contract"
	"subsidy-intake-be/pkg/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SessionMapper
	now    func() time.Time
}

func NewSessionRepository(db *gorm.DB) contract.SessionRepository {
	return NewSessionRepositoryWithClock(db, time.Now)
}

func NewSessionRepositoryWithClock(db *gorm.DB, now func() time.Time) contract.SessionRepository {
	return &SessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSessionMapper(),
		now:    now,
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: postgres %s: %v", contract.ErrStoreUnavailable, op, err)
}

// upsert inserts a fresh document or applies updates to the existing row atomically
func (r *SessionRepositoryImpl) upsert(ctx context.Context, op string, row *model.UserSession, updates map[string]interface{}) error {
	updates["updated_at"] = row.UpdatedAt
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(updates),
	}).Create(row).Error
	if err != nil {
		return unavailable(op, err)
	}
	return nil
}

func (r *SessionRepositoryImpl) IsHandoffActiveWithinTTL(ctx context.Context, userID string, ttl time.Duration) (bool, error) {
	session, err := r.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return session.HandoffActiveWithin(r.now(), ttl), nil
}

func (r *SessionRepositoryImpl) StartOrRefreshHandoff(ctx context.Context, userID string, ttl time.Duration) error {
	now := r.now()
	row := &model.UserSession{
		UserId:                userID,
		HandoffActive:         true,
		HandoffStartedAt:      now,
		HandoffLastActivityAt: now,
		UpdatedAt:             now,
	}
	return r.upsert(ctx, "start handoff", row, map[string]interface{}{
		"handoff_started_at": gorm.Expr(
			"CASE WHEN user_sessions.handoff_active AND user_sessions.handoff_started_at >= ? "+
				"THEN user_sessions.handoff_started_at ELSE EXCLUDED.handoff_started_at END",
			now.Add(-ttl),
		),
		"handoff_active":           true,
		"handoff_last_activity_at": now,
	})
}

func (r *SessionRepositoryImpl) TouchActivity(ctx context.Context, userID string) error {
	now := r.now()
	err := r.db.WithContext(ctx).
		Model(&model.UserSession{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"handoff_last_activity_at": now,
			"updated_at":               now,
		}).Error
	if err != nil {
		return unavailable("touch", err)
	}
	return nil
}

func (r *SessionRepositoryImpl) EndHandoff(ctx context.Context, userID string) error {
	now := r.now()
	row := &model.UserSession{
		UserId:                userID,
		HandoffActive:         false,
		HandoffLastActivityAt: now,
		UpdatedAt:             now,
	}
	return r.upsert(ctx, "end handoff", row, map[string]interface{}{
		"handoff_active":           false,
		"handoff_last_activity_at": now,
	})
}

func (r *SessionRepositoryImpl) RecordOfferedCandidates(ctx context.Context, userID string, candidates []store.RankedResult) error {
	offered, err := r.mapper.OfferedToJSON(candidates)
	if err != nil {
		return fmt.Errorf("encode offered candidates: %w", err)
	}
	now := r.now()
	row := &model.UserSession{
		UserId:                userID,
		HandoffLastActivityAt: now,
		OfferedFrom:           offered,
		UpdatedAt:             now,
	}
	return r.upsert(ctx, "record offered", row, map[string]interface{}{
		"offered_from":             offered,
		"handoff_last_activity_at": now,
	})
}

func (r *SessionRepositoryImpl) ResolveSelection(ctx context.Context, userID string, candidateID string) (*store.RankedResult, error) {
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

func (r *SessionRepositoryImpl) CommitSelection(ctx context.Context, userID string, candidate store.RankedResult) error {
	now := r.now()
	row := &model.UserSession{
		UserId:                userID,
		HandoffLastActivityAt: now,
		SelectedCandidateId:   candidate.CandidateID,
		SelectedCandidateName: candidate.CandidateName,
		UpdatedAt:             now,
	}
	return r.upsert(ctx, "commit selection", row, map[string]interface{}{
		"selected_candidate_id":    candidate.CandidateID,
		"selected_candidate_name":  candidate.CandidateName,
		"handoff_last_activity_at": now,
	})
}

func (r *SessionRepositoryImpl) Get(ctx context.Context, userID string) (*store.Session, error) {
	var m model.UserSession
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, unavailable("get", err)
	}
	return r.mapper.ToSession(&m)
}

func (r *SessionRepositoryImpl) Delete(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.UserSession{}).Error; err != nil {
		return unavailable("delete", err)
	}
	return nil
}
