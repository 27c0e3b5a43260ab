package store

// OutcomeKind enumerates what a single inbound event resolved to
type OutcomeKind string

const (
	OutcomeIgnored            OutcomeKind = "IGNORED"
	OutcomeSuppressed         OutcomeKind = "SUPPRESSED"
	OutcomeHandoffPassthrough OutcomeKind = "HANDOFF_PASSTHROUGH"
	OutcomeNotFound           OutcomeKind = "NOT_FOUND"
	OutcomePresented          OutcomeKind = "PRESENTED"
	OutcomeSelectionResult    OutcomeKind = "SELECTION_RESULT"
	OutcomeError              OutcomeKind = "ERROR"
)

// Replies reports whether the outcome produces a message for the user
func (k OutcomeKind) Replies() bool {
	switch k {
	case OutcomeIgnored, OutcomeSuppressed:
		return false
	default:
		return true
	}
}
