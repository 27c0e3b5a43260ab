package mapper

import (
	"time"

	"subsidy-intake-be/internal/dto"
	"subsidy-intake-be/pkg/store"
)

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// ToSessionResponse renders a session for the admin API. windowOpen is computed by the caller.
func ToSessionResponse(s *store.Session, windowOpen bool) dto.SessionResponse {
	offered := s.Selection.OfferedFrom
	if offered == nil {
		offered = []store.RankedResult{}
	}
	return dto.SessionResponse{
		UserId: s.UserID,
		Handoff: dto.HandoffResponse{
			Active:         s.Handoff.Active,
			WindowOpen:     windowOpen,
			StartedAt:      optionalTime(s.Handoff.StartedAt),
			LastActivityAt: optionalTime(s.Handoff.LastActivityAt),
		},
		Selection: dto.SelectionResponse{
			CandidateId:   s.Selection.CandidateID,
			CandidateName: s.Selection.CandidateName,
			OfferedFrom:   offered,
		},
	}
}
