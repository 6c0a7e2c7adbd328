package entity

import "time"

// ClaimStatus is the closed set of reimbursement claim states.
type ClaimStatus string

const (
	ClaimStatusPending     ClaimStatus = "pending"
	ClaimStatusUnderReview ClaimStatus = "under_review"
	ClaimStatusApproved    ClaimStatus = "approved"
	ClaimStatusRejected    ClaimStatus = "rejected"
	ClaimStatusPaid        ClaimStatus = "paid"
)

// IsTerminal returns true if no further review action is permitted.
// approved is terminal for reviewers; only an admin payout moves it to paid.
func (s ClaimStatus) IsTerminal() bool {
	switch s {
	case ClaimStatusApproved, ClaimStatusRejected, ClaimStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of the status
func (s ClaimStatus) String() string {
	return string(s)
}

// Claim represents one consultant's reimbursement submission against an
// assignment.
type Claim struct {
	ID              int64       `json:"id"`
	AssignmentID    int64       `json:"assignment_id"`
	ConsultantID    int64       `json:"consultant_id"`
	SubmittedAmount float64     `json:"submitted_amount"`
	ApprovedAmount  *float64    `json:"approved_amount,omitempty"`
	Currency        string      `json:"currency"`
	Status          ClaimStatus `json:"status"`
	SubmissionDate  time.Time   `json:"submission_date"`
	ReviewDate      *time.Time  `json:"review_date,omitempty"`
	ReviewerID      *int64      `json:"reviewer_id,omitempty"`
	RejectionReason string      `json:"rejection_reason,omitempty"`
	Notes           string      `json:"notes,omitempty"`
	Attachments     []*Attachment `json:"attachments,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}
