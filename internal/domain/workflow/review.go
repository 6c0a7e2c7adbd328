package workflow

// NewReviewMachine builds the claim review state machine starting from the
// given state.
//
//	pending ──START_REVIEW──▶ under_review
//	pending / under_review ──APPROVE──▶ approved ──MARK_PAID──▶ paid
//	pending / under_review ──REJECT───▶ rejected
//
// rejected and paid accept no triggers.
func NewReviewMachine(current State) StateMachine {
	b := NewBuilder()

	b.Configure(StatePending).
		Permit(TriggerStartReview, StateUnderReview).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected)

	b.Configure(StateUnderReview).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected)

	b.Configure(StateApproved).
		Permit(TriggerMarkPaid, StatePaid)

	return b.Build(current)
}
