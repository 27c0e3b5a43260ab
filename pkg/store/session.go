package store

import "time"

// Candidate is one subsidy entry of the similarity corpus
type Candidate struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Summary string    `json:"summary"`
	Vector  []float32 `json:"-"`
}

// RankedResult is a corpus entry scored against a query vector
type RankedResult struct {
	CandidateID   string  `json:"candidate_id"`
	CandidateName string  `json:"candidate_name"`
	Similarity    float64 `json:"similarity"`
}

// Handoff marks a conversation that bypasses relevance filtering for a short window
type Handoff struct {
	Active         bool      `json:"active"`
	StartedAt      time.Time `json:"started_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// Selection holds the last finalized candidate and the set it was offered from
type Selection struct {
	CandidateID   string         `json:"candidate_id"`
	CandidateName string         `json:"candidate_name"`
	OfferedFrom   []RankedResult `json:"offered_from"`
}

// Session is the per-user conversation document
type Session struct {
	UserID    string    `json:"user_id"`
	Handoff   Handoff   `json:"handoff"`
	Selection Selection `json:"selection"`
}

// HandoffActiveWithin reports whether the handoff window is still open at now.
// The window is measured from StartedAt, not from the last activity.
func (s *Session) HandoffActiveWithin(now time.Time, ttl time.Duration) bool {
	if s == nil || !s.Handoff.Active {
		return false
	}
	return now.Sub(s.Handoff.StartedAt) <= ttl
}

// FindOffered looks a candidate up in the last offered set
func (s *Session) FindOffered(candidateID string) (*RankedResult, bool) {
	if s == nil {
		return nil, false
	}
	for _, c := range s.Selection.OfferedFrom {
		if c.CandidateID == candidateID {
			found := c
			return &found, true
		}
	}
	return nil, false
}

// Clone returns a deep copy so callers never share the offered slice
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.Selection.OfferedFrom != nil {
		out.Selection.OfferedFrom = append([]RankedResult(nil), s.Selection.OfferedFrom...)
	}
	return &out
}
