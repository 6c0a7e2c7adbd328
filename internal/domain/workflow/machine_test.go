package workflow

import (
	"errors"
	"testing"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StatePending, false},
		{StateUnderReview, false},
		{StateApproved, true},
		{StateRejected, true},
		{StatePaid, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"pending", StatePending, true},
		{"paid", StatePaid, true},
		{"invalid state", State("INVALID"), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStateMachine_Fire(t *testing.T) {
	tests := []struct {
		name      string
		from      State
		trigger   Trigger
		wantState State
		wantErr   bool
	}{
		{"start review from pending", StatePending, TriggerStartReview, StateUnderReview, false},
		{"approve from pending", StatePending, TriggerApprove, StateApproved, false},
		{"reject from pending", StatePending, TriggerReject, StateRejected, false},
		{"approve from under_review", StateUnderReview, TriggerApprove, StateApproved, false},
		{"reject from under_review", StateUnderReview, TriggerReject, StateRejected, false},
		{"pay approved claim", StateApproved, TriggerMarkPaid, StatePaid, false},
		{"approve already approved", StateApproved, TriggerApprove, StateApproved, true},
		{"reject already rejected", StateRejected, TriggerReject, StateRejected, true},
		{"approve paid claim", StatePaid, TriggerApprove, StatePaid, true},
		{"pay pending claim", StatePending, TriggerMarkPaid, StatePending, true},
		{"start review twice", StateUnderReview, TriggerStartReview, StateUnderReview, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewReviewMachine(tt.from)

			err := m.Fire(tt.trigger)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Fire(%s) error = %v, wantErr %v", tt.trigger, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("Fire(%s) error = %v, want ErrInvalidTransition", tt.trigger, err)
			}
			if m.State() != tt.wantState {
				t.Errorf("State() = %s, want %s", m.State(), tt.wantState)
			}
		})
	}
}

func TestStateMachine_CanFire(t *testing.T) {
	m := NewReviewMachine(StatePending)

	if !m.CanFire(TriggerApprove) {
		t.Error("CanFire(APPROVE) from pending = false, want true")
	}
	if m.CanFire(TriggerMarkPaid) {
		t.Error("CanFire(MARK_PAID) from pending = true, want false")
	}
}

func TestStateMachine_PermittedTriggers(t *testing.T) {
	tests := []struct {
		state State
		count int
	}{
		{StatePending, 3},
		{StateUnderReview, 2},
		{StateApproved, 1},
		{StateRejected, 0},
		{StatePaid, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			m := NewReviewMachine(tt.state)
			if got := len(m.PermittedTriggers()); got != tt.count {
				t.Errorf("PermittedTriggers() len = %d, want %d", got, tt.count)
			}
		})
	}
}

func TestStateMachine_FullLifecycle(t *testing.T) {
	m := NewReviewMachine(StatePending)

	steps := []struct {
		trigger Trigger
		want    State
	}{
		{TriggerStartReview, StateUnderReview},
		{TriggerApprove, StateApproved},
		{TriggerMarkPaid, StatePaid},
	}

	for _, step := range steps {
		if err := m.Fire(step.trigger); err != nil {
			t.Fatalf("Fire(%s) unexpected error: %v", step.trigger, err)
		}
		if m.State() != step.want {
			t.Fatalf("State() = %s, want %s", m.State(), step.want)
		}
	}

	// Paid is terminal for everything.
	for _, trigger := range []Trigger{TriggerStartReview, TriggerApprove, TriggerReject, TriggerMarkPaid} {
		if err := m.Fire(trigger); err == nil {
			t.Errorf("Fire(%s) from paid succeeded, want error", trigger)
		}
	}
}

func TestBuilder_IndependentMachines(t *testing.T) {
	b := NewBuilder()
	b.Configure(StatePending).Permit(TriggerApprove, StateApproved)

	m1 := b.Build(StatePending)
	m2 := b.Build(StatePending)

	if err := m1.Fire(TriggerApprove); err != nil {
		t.Fatalf("Fire() unexpected error: %v", err)
	}

	if m2.State() != StatePending {
		t.Errorf("second machine state = %s, want pending", m2.State())
	}
}
