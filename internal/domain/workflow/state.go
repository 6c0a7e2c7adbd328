package workflow

// State represents a claim state in the review lifecycle
type State string

const (
	StatePending     State = "pending"
	StateUnderReview State = "under_review"
	StateApproved    State = "approved"
	StateRejected    State = "rejected"
	StatePaid        State = "paid"
)

var validStates = map[State]bool{
	StatePending:     true,
	StateUnderReview: true,
	StateApproved:    true,
	StateRejected:    true,
	StatePaid:        true,
}

// Terminal for reviewer actions. approved still transitions to paid, but
// only through the admin payout trigger, never through review.
var terminalStates = map[State]bool{
	StateApproved: true,
	StateRejected: true,
	StatePaid:     true,
}

// IsTerminal returns true if the state accepts no further review decision
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid review state
func (s State) IsValid() bool {
	return validStates[s]
}

// ReviewableStates lists the states from which an approve or reject decision
// is legal. Storage-layer conditional updates use the same set.
func ReviewableStates() []State {
	return []State{StatePending, StateUnderReview}
}
