package entity

import "time"

// Audit action constants
const (
	AuditActionSearchRecorded        = "search_recorded"
	AuditActionCapSet                = "price_cap_set"
	AuditActionReimbursementSubmit   = "reimbursement_submitted"
	AuditActionReviewStarted         = "reimbursement_review_started"
	AuditActionReimbursementApproved = "reimbursement_approved"
	AuditActionReimbursementRejected = "reimbursement_rejected"
	AuditActionReimbursementPaid     = "reimbursement_paid"
	AuditActionAttachmentDeleted     = "attachment_deleted"
)

// Audit entity type constants
const (
	AuditEntitySearch     = "quote_search"
	AuditEntityCap        = "price_cap"
	AuditEntityClaim      = "claim"
	AuditEntityAttachment = "attachment"
)

// AuditEntry is an immutable record of one mutating action. Rows are
// append-only and never updated or deleted by normal flow.
type AuditEntry struct {
	ID         int64     `json:"id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   int64     `json:"entity_id"`
	ActorID    int64     `json:"actor_id"`
	Detail     string    `json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}
