package dto

import (
	"time"

	"subsidy-intake-be/pkg/store"
)

type SessionResponse struct {
	UserId    string            `json:"user_id"`
	Handoff   HandoffResponse   `json:"handoff"`
	Selection SelectionResponse `json:"selection"`
}

type HandoffResponse struct {
	Active         bool       `json:"active"`
	WindowOpen     bool       `json:"window_open"`
	StartedAt      *time.Time `json:"started_at"`
	LastActivityAt *time.Time `json:"last_activity_at"`
}

type SelectionResponse struct {
	CandidateId   string               `json:"candidate_id,omitempty"`
	CandidateName string               `json:"candidate_name,omitempty"`
	OfferedFrom   []store.RankedResult `json:"offered_from"`
}

type SessionUserParam struct {
	UserId string `validate:"required,max=64"`
}
