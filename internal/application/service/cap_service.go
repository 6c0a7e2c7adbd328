package service

import (
	"context"
	"fmt"
	"time"

	"github.com/consultia/expense-portal/internal/application/port"
	"github.com/consultia/expense-portal/internal/domain/entity"
)

// CapService is the price cap engine: it derives the authoritative
// reimbursement ceiling for an assignment from the cheapest quote of a
// search. Cap rows append rather than overwrite so the history of how the
// ceiling moved stays reviewable.
type CapService interface {
	// SetCapFromSearch computes max_approved_price = min(price over quotes)
	// for the given search and appends a new cap row. Fails with ErrNoQuotes
	// on an empty quote set, leaving any prior cap active.
	SetCapFromSearch(ctx context.Context, access Access, assignmentID, searchID int64) (*entity.PriceCap, error)

	// ActiveCapFor returns the cap with the most recent set_at for the
	// assignment, or nil if never computed.
	ActiveCapFor(ctx context.Context, assignmentID int64) (*entity.PriceCap, error)

	// History returns all cap rows for an assignment, newest first
	History(ctx context.Context, assignmentID int64) ([]*entity.PriceCap, error)
}

type capServiceImpl struct {
	capRepo      port.CapRepository
	quoteRepo    port.QuoteRepository
	auditService AuditService
	logger       Logger
}

// NewCapService creates a new CapService
func NewCapService(
	capRepo port.CapRepository,
	quoteRepo port.QuoteRepository,
	auditService AuditService,
	logger Logger,
) CapService {
	return &capServiceImpl{
		capRepo:      capRepo,
		quoteRepo:    quoteRepo,
		auditService: auditService,
		logger:       logger,
	}
}

// SetCapFromSearch derives and appends the cap for an assignment
func (s *capServiceImpl) SetCapFromSearch(ctx context.Context, access Access, assignmentID, searchID int64) (*entity.PriceCap, error) {
	if !access.Admin {
		return nil, entity.ErrForbidden
	}

	minPrice, currency, found, err := s.quoteRepo.MinPriceBySearchID(ctx, searchID)
	if err != nil {
		return nil, fmt.Errorf("read quotes for search %d: %w", searchID, err)
	}
	if !found {
		return nil, fmt.Errorf("search %d: %w", searchID, entity.ErrNoQuotes)
	}

	cap := &entity.PriceCap{
		AssignmentID:     assignmentID,
		SearchID:         searchID,
		MaxApprovedPrice: minPrice,
		Currency:         currency,
		SetAt:            time.Now(),
	}

	if err := s.capRepo.Create(ctx, cap); err != nil {
		return nil, err
	}

	s.auditService.Append(ctx, entity.AuditActionCapSet, entity.AuditEntityCap, cap.ID, access.CallerID,
		map[string]interface{}{
			"assignment_id":      assignmentID,
			"search_id":          searchID,
			"max_approved_price": minPrice,
			"currency":           currency,
		})

	s.logger.Info("Price cap set",
		"assignment_id", assignmentID,
		"search_id", searchID,
		"max_approved_price", minPrice)

	return cap, nil
}

// ActiveCapFor returns the governing cap for an assignment, nil if none
func (s *capServiceImpl) ActiveCapFor(ctx context.Context, assignmentID int64) (*entity.PriceCap, error) {
	return s.capRepo.GetActiveByAssignmentID(ctx, assignmentID)
}

// History returns all cap rows for an assignment, newest first
func (s *capServiceImpl) History(ctx context.Context, assignmentID int64) ([]*entity.PriceCap, error) {
	return s.capRepo.ListByAssignmentID(ctx, assignmentID)
}
