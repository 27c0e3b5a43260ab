package mapper

import (
	"encoding/json"
	"fmt"

	"subsidy-intake-be/internal/model"
	"subsidy-intake-be/pkg/store"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

func (m *SessionMapper) ToSession(e *model.UserSession) (*store.Session, error) {
	if e == nil {
		return nil, nil
	}

	session := &store.Session{
		UserID: e.UserId,
		Handoff: store.Handoff{
			Active:         e.HandoffActive,
			StartedAt:      e.HandoffStartedAt.UTC(),
			LastActivityAt: e.HandoffLastActivityAt.UTC(),
		},
		Selection: store.Selection{
			CandidateID:   e.SelectedCandidateId,
			CandidateName: e.SelectedCandidateName,
		},
	}

	if len(e.OfferedFrom) > 0 {
		if err := json.Unmarshal(e.OfferedFrom, &session.Selection.OfferedFrom); err != nil {
			return nil, fmt.Errorf("decode offered_from for %s: %w", e.UserId, err)
		}
	}
	return session, nil
}

func (m *SessionMapper) OfferedToJSON(candidates []store.RankedResult) (datatypes.JSON, error) {
	if candidates == nil {
		candidates = []store.RankedResult{}
	}
	raw, err := json.Marshal(candidates)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

type CandidateMapper struct{}

func NewCandidateMapper() *CandidateMapper {
	return &CandidateMapper{}
}

func (m *CandidateMapper) ToCandidate(e *model.SubsidyCandidate) store.Candidate {
	return store.Candidate{
		ID:      e.Id,
		Name:    e.Name,
		Summary: e.Summary,
		Vector:  e.Embedding.Slice(),
	}
}

func (m *CandidateMapper) ToModel(c store.Candidate) *model.SubsidyCandidate {
	return &model.SubsidyCandidate{
		Id:        c.ID,
		Name:      c.Name,
		Summary:   c.Summary,
		Embedding: pgvector.NewVector(c.Vector),
	}
}

func (m *CandidateMapper) ToCandidates(models []model.SubsidyCandidate) []store.Candidate {
	candidates := make([]store.Candidate, len(models))
	for i := range models {
		candidates[i] = m.ToCandidate(&models[i])
	}
	return candidates
}
