package port

import (
	"context"

	"github.com/consultia/expense-portal/internal/domain/entity"
	"github.com/consultia/expense-portal/internal/domain/workflow"
)

// AssignmentRepository defines persistence operations for Assignment
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *entity.Assignment) error
	GetByID(ctx context.Context, id int64) (*entity.Assignment, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	ListByConsultant(ctx context.Context, consultantID int64) ([]*entity.Assignment, error)
}

// SearchRepository defines persistence operations for QuoteSearch
type SearchRepository interface {
	Create(ctx context.Context, search *entity.QuoteSearch) error
	GetByID(ctx context.Context, id int64) (*entity.QuoteSearch, error)

	// GetLatestByAssignmentID returns the most recently executed search for
	// an assignment, or nil if none has run
	GetLatestByAssignmentID(ctx context.Context, assignmentID int64) (*entity.QuoteSearch, error)
}

// QuoteRepository defines persistence operations for Quote
type QuoteRepository interface {
	CreateBatch(ctx context.Context, quotes []*entity.Quote) error

	// GetBySearchID returns the quotes of a search ordered by price ascending.
	// limit <= 0 means no truncation.
	GetBySearchID(ctx context.Context, searchID int64, limit int) ([]*entity.Quote, error)

	// MinPriceBySearchID returns the lowest quote price of a search.
	// found is false when the search stored zero quotes.
	MinPriceBySearchID(ctx context.Context, searchID int64) (price float64, currency string, found bool, err error)
}

// CapRepository defines persistence operations for PriceCap. Rows are
// append-only; the latest set_at for an assignment governs.
type CapRepository interface {
	Create(ctx context.Context, cap *entity.PriceCap) error
	GetActiveByAssignmentID(ctx context.Context, assignmentID int64) (*entity.PriceCap, error)
	ListByAssignmentID(ctx context.Context, assignmentID int64) ([]*entity.PriceCap, error)
}

// ClaimRepository defines persistence operations for Claim
type ClaimRepository interface {
	Create(ctx context.Context, claim *entity.Claim) error
	GetByID(ctx context.Context, id int64) (*entity.Claim, error)
	ListByConsultant(ctx context.Context, consultantID int64) ([]*entity.Claim, error)
	ListAll(ctx context.Context) ([]*entity.Claim, error)

	// TransitionStatus performs an atomic compare-and-set: the update applies
	// only while the claim status is one of fromStates, otherwise
	// entity.ErrStateConflict is returned and nothing changes. This is the
	// sole guard against two reviewers committing the same decision.
	TransitionStatus(ctx context.Context, id int64, fromStates []workflow.State, update ClaimReviewUpdate) error
}

// ClaimReviewUpdate carries the fields a review transition writes alongside
// the status change.
type ClaimReviewUpdate struct {
	Status          workflow.State
	ApprovedAmount  *float64
	RejectionReason *string
	Notes           *string
	ReviewerID      *int64
}

// AttachmentRepository defines persistence operations for Attachment
type AttachmentRepository interface {
	Create(ctx context.Context, att *entity.Attachment) error
	GetByID(ctx context.Context, id int64) (*entity.Attachment, error)
	GetByClaimID(ctx context.Context, claimID int64) ([]*entity.Attachment, error)
	Delete(ctx context.Context, id int64) error
}

// AuditRepository defines persistence operations for AuditEntry.
// Append and read only; entries are never updated or deleted.
type AuditRepository interface {
	Create(ctx context.Context, entry *entity.AuditEntry) error
	GetByEntity(ctx context.Context, entityType string, entityID int64) ([]*entity.AuditEntry, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.AuditEntry, error)
}

// TransactionManager handles database transactions. The callback's context
// carries the transaction; repositories route through it automatically.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
