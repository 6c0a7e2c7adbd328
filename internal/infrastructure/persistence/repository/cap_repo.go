package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/consultia/expense-portal/internal/application/port"
	"github.com/consultia/expense-portal/internal/domain/entity"
	"go.uber.org/zap"
)

// CapRepository implements port.CapRepository. Cap rows are append-only.
type CapRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCapRepository creates a new cap repository
func NewCapRepository(db *sql.DB, logger *zap.Logger) port.CapRepository {
	return &CapRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a new price cap row
func (r *CapRepository) Create(ctx context.Context, cap *entity.PriceCap) error {
	query := `
		INSERT INTO price_caps (assignment_id, search_id, max_approved_price, currency, set_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		cap.AssignmentID,
		cap.SearchID,
		cap.MaxApprovedPrice,
		cap.Currency,
		cap.SetAt,
	)
	if err != nil {
		r.logger.Error("Failed to create price cap", zap.Int64("assignment_id", cap.AssignmentID), zap.Error(err))
		return fmt.Errorf("failed to create price cap: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	cap.ID = id
	return nil
}

// GetActiveByAssignmentID returns the cap with the most recent set_at
func (r *CapRepository) GetActiveByAssignmentID(ctx context.Context, assignmentID int64) (*entity.PriceCap, error) {
	query := `
		SELECT id, assignment_id, search_id, max_approved_price, currency, set_at
		FROM price_caps
		WHERE assignment_id = ?
		ORDER BY set_at DESC, id DESC
		LIMIT 1
	`

	var cap entity.PriceCap
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, assignmentID).Scan(
		&cap.ID,
		&cap.AssignmentID,
		&cap.SearchID,
		&cap.MaxApprovedPrice,
		&cap.Currency,
		&cap.SetAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get active cap", zap.Int64("assignment_id", assignmentID), zap.Error(err))
		return nil, fmt.Errorf("failed to get active cap: %w", err)
	}

	return &cap, nil
}

// ListByAssignmentID returns all cap rows for an assignment, newest first
func (r *CapRepository) ListByAssignmentID(ctx context.Context, assignmentID int64) ([]*entity.PriceCap, error) {
	query := `
		SELECT id, assignment_id, search_id, max_approved_price, currency, set_at
		FROM price_caps
		WHERE assignment_id = ?
		ORDER BY set_at DESC, id DESC
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, assignmentID)
	if err != nil {
		r.logger.Error("Failed to list caps", zap.Int64("assignment_id", assignmentID), zap.Error(err))
		return nil, fmt.Errorf("failed to list caps: %w", err)
	}
	defer rows.Close()

	var caps []*entity.PriceCap
	for rows.Next() {
		var cap entity.PriceCap
		err := rows.Scan(
			&cap.ID,
			&cap.AssignmentID,
			&cap.SearchID,
			&cap.MaxApprovedPrice,
			&cap.Currency,
			&cap.SetAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cap: %w", err)
		}
		caps = append(caps, &cap)
	}

	return caps, rows.Err()
}

// Verify interface compliance
var _ port.CapRepository = (*CapRepository)(nil)
