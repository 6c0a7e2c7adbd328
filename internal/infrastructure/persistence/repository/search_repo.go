package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/consultia/expense-portal/internal/application/port"
	"github.com/consultia/expense-portal/internal/domain/entity"
	"go.uber.org/zap"
)

// SearchRepository implements port.SearchRepository
type SearchRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSearchRepository creates a new search repository
func NewSearchRepository(db *sql.DB, logger *zap.Logger) port.SearchRepository {
	return &SearchRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new quote search record
func (r *SearchRepository) Create(ctx context.Context, search *entity.QuoteSearch) error {
	query := `
		INSERT INTO quote_searches (assignment_id, search_type, params, executed_at)
		VALUES (?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		search.AssignmentID,
		search.SearchType,
		search.Params,
		search.ExecutedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create quote search", zap.Error(err))
		return fmt.Errorf("failed to create quote search: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	search.ID = id
	return nil
}

// GetByID retrieves a quote search by ID
func (r *SearchRepository) GetByID(ctx context.Context, id int64) (*entity.QuoteSearch, error) {
	query := `
		SELECT id, assignment_id, search_type, params, executed_at
		FROM quote_searches
		WHERE id = ?
	`

	var search entity.QuoteSearch
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&search.ID,
		&search.AssignmentID,
		&search.SearchType,
		&search.Params,
		&search.ExecutedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get quote search", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get quote search: %w", err)
	}

	return &search, nil
}

// GetLatestByAssignmentID retrieves the most recently executed search for an
// assignment
func (r *SearchRepository) GetLatestByAssignmentID(ctx context.Context, assignmentID int64) (*entity.QuoteSearch, error) {
	query := `
		SELECT id, assignment_id, search_type, params, executed_at
		FROM quote_searches
		WHERE assignment_id = ?
		ORDER BY executed_at DESC, id DESC
		LIMIT 1
	`

	var search entity.QuoteSearch
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, assignmentID).Scan(
		&search.ID,
		&search.AssignmentID,
		&search.SearchType,
		&search.Params,
		&search.ExecutedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get latest quote search", zap.Int64("assignment_id", assignmentID), zap.Error(err))
		return nil, fmt.Errorf("failed to get latest quote search: %w", err)
	}

	return &search, nil
}

// Verify interface compliance
var _ port.SearchRepository = (*SearchRepository)(nil)
