package implementation

import (
	"context"

	"subsidy-intake-be/internal/mapper"
	"subsidy-intake-be/internal/model"
	"subsidy-intake-be/internal/repository/contract"
	"subsidy-intake-be/pkg/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CandidateRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CandidateMapper
}

func NewCandidateRepository(db *gorm.DB) contract.CandidateRepository {
	return &CandidateRepositoryImpl{
		db:     db,
		mapper: mapper.NewCandidateMapper(),
	}
}

// FindAll returns the corpus ordered by id so index construction is deterministic
func (r *CandidateRepositoryImpl) FindAll(ctx context.Context) ([]store.Candidate, error) {
	var models []model.SubsidyCandidate
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToCandidates(models), nil
}

func (r *CandidateRepositoryImpl) Upsert(ctx context.Context, candidates []store.Candidate) error {
	if len(candidates) == 0 {
		return nil
	}
	models := make([]*model.SubsidyCandidate, len(candidates))
	for i, c := range candidates {
		models[i] = r.mapper.ToModel(c)
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "summary", "embedding", "updated_at"}),
	}).CreateInBatches(models, 100).Error
}

func (r *CandidateRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.SubsidyCandidate{}).Count(&count).Error
	return count, err
}
