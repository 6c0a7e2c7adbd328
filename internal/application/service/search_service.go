package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/consultia/expense-portal/internal/application/port"
	"github.com/consultia/expense-portal/internal/domain/entity"
)

// SearchService is the quote store: it persists the ranked results of search
// executions and serves the latest snapshot per assignment.
type SearchService interface {
	// RecordSearch creates a search record for an assignment
	RecordSearch(ctx context.Context, assignmentID int64, params port.SearchParams) (*entity.QuoteSearch, error)

	// RecordQuotes stores the full quote set of a search. Ranking is computed
	// at read time; callers need not pre-sort. Zero quotes is a valid
	// "no options found" outcome.
	RecordQuotes(ctx context.Context, searchID int64, quotes []*entity.Quote) error

	// LatestQuotes returns the quotes of the most recently executed search
	// for an assignment, price ascending, truncated to limit (default 3).
	// Empty when no search has run.
	LatestQuotes(ctx context.Context, assignmentID int64, limit int) ([]*entity.Quote, error)

	// Execute runs the external search provider for an assignment, records
	// the search and its quotes, and re-derives the price cap when quotes
	// came back. Admin only.
	Execute(ctx context.Context, access Access, assignmentID int64, params port.SearchParams) (*SearchResult, error)
}

// SearchResult summarizes one full search execution
type SearchResult struct {
	Search     *entity.QuoteSearch `json:"search"`
	QuoteCount int                 `json:"quote_count"`
	Cap        *entity.PriceCap    `json:"cap,omitempty"`
}

type searchServiceImpl struct {
	assignmentRepo port.AssignmentRepository
	searchRepo     port.SearchRepository
	quoteRepo      port.QuoteRepository
	searcher       port.QuoteSearcher
	capService     CapService
	auditService   AuditService
	logger         Logger
}

// NewSearchService creates a new SearchService
func NewSearchService(
	assignmentRepo port.AssignmentRepository,
	searchRepo port.SearchRepository,
	quoteRepo port.QuoteRepository,
	searcher port.QuoteSearcher,
	capService CapService,
	auditService AuditService,
	logger Logger,
) SearchService {
	return &searchServiceImpl{
		assignmentRepo: assignmentRepo,
		searchRepo:     searchRepo,
		quoteRepo:      quoteRepo,
		searcher:       searcher,
		capService:     capService,
		auditService:   auditService,
		logger:         logger,
	}
}

// RecordSearch creates a search record for an assignment
func (s *searchServiceImpl) RecordSearch(ctx context.Context, assignmentID int64, params port.SearchParams) (*entity.QuoteSearch, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, fmt.Errorf("assignment %d: %w", assignmentID, entity.ErrNotFound)
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal search params: %w", err)
	}

	search := &entity.QuoteSearch{
		AssignmentID: assignmentID,
		SearchType:   params.SearchType,
		Params:       string(paramsJSON),
		ExecutedAt:   time.Now(),
	}

	if err := s.searchRepo.Create(ctx, search); err != nil {
		return nil, err
	}

	return search, nil
}

// RecordQuotes stores the full quote set of a search
func (s *searchServiceImpl) RecordQuotes(ctx context.Context, searchID int64, quotes []*entity.Quote) error {
	if len(quotes) == 0 {
		s.logger.Info("Search stored zero quotes", "search_id", searchID)
		return nil
	}

	for _, q := range quotes {
		q.SearchID = searchID
	}

	return s.quoteRepo.CreateBatch(ctx, quotes)
}

// LatestQuotes returns the quotes of the most recent search, price ascending
func (s *searchServiceImpl) LatestQuotes(ctx context.Context, assignmentID int64, limit int) ([]*entity.Quote, error) {
	if limit <= 0 {
		limit = entity.DefaultQuoteLimit
	}

	search, err := s.searchRepo.GetLatestByAssignmentID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if search == nil {
		return []*entity.Quote{}, nil
	}

	return s.quoteRepo.GetBySearchID(ctx, search.ID, limit)
}

// Execute runs the provider, persists the snapshot, and re-derives the cap
func (s *searchServiceImpl) Execute(ctx context.Context, access Access, assignmentID int64, params port.SearchParams) (*SearchResult, error) {
	if !access.Admin {
		return nil, entity.ErrForbidden
	}

	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, fmt.Errorf("assignment %d: %w", assignmentID, entity.ErrNotFound)
	}

	results, err := s.searcher.Search(ctx, assignment, params)
	if err != nil {
		s.logger.Error("Quote search provider failed", "error", err, "assignment_id", assignmentID)
		return nil, fmt.Errorf("quote search: %w", err)
	}

	search, err := s.RecordSearch(ctx, assignmentID, params)
	if err != nil {
		return nil, err
	}

	quotes := make([]*entity.Quote, 0, len(results))
	now := time.Now()
	for _, r := range results {
		quotes = append(quotes, &entity.Quote{
			SearchID:          search.ID,
			Price:             r.Price,
			Currency:          r.Currency,
			Provider:          r.Provider,
			DepartureTime:     r.DepartureTime,
			ArrivalTime:       r.ArrivalTime,
			Refundable:        r.Refundable,
			BaggageIncluded:   r.BaggageIncluded,
			InsuranceIncluded: r.InsuranceIncluded,
			BookingRef:        r.BookingRef,
			CreatedAt:         now,
		})
	}

	if err := s.RecordQuotes(ctx, search.ID, quotes); err != nil {
		return nil, err
	}

	s.auditService.Append(ctx, entity.AuditActionSearchRecorded, entity.AuditEntitySearch, search.ID, access.CallerID,
		map[string]interface{}{"assignment_id": assignmentID, "quote_count": len(quotes)})

	result := &SearchResult{Search: search, QuoteCount: len(quotes)}

	// An empty snapshot leaves the prior cap, if any, active.
	if len(quotes) > 0 {
		cap, err := s.capService.SetCapFromSearch(ctx, access, assignmentID, search.ID)
		if err != nil {
			return nil, err
		}
		result.Cap = cap
	}

	s.logger.Info("Search executed",
		"assignment_id", assignmentID,
		"search_id", search.ID,
		"quote_count", len(quotes))

	return result, nil
}
