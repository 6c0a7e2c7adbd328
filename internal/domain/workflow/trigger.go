package workflow

// Trigger represents an action that can cause a claim state transition
type Trigger string

const (
	TriggerStartReview Trigger = "START_REVIEW"
	TriggerApprove     Trigger = "APPROVE"
	TriggerReject      Trigger = "REJECT"
	TriggerMarkPaid    Trigger = "MARK_PAID"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
