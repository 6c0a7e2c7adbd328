package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/consultia/expense-portal/internal/application/port"
	"github.com/consultia/expense-portal/internal/domain/entity"
	"go.uber.org/zap"
)

// AssignmentRepository implements port.AssignmentRepository
type AssignmentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db *sql.DB, logger *zap.Logger) port.AssignmentRepository {
	return &AssignmentRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new assignment
func (r *AssignmentRepository) Create(ctx context.Context, assignment *entity.Assignment) error {
	query := `
		INSERT INTO assignments (
			project_id, consultant_id, origin, destination,
			departure_date, return_date, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		assignment.ProjectID,
		assignment.ConsultantID,
		assignment.Origin,
		assignment.Destination,
		assignment.DepartureDate,
		assignment.ReturnDate,
		assignment.Status,
		assignment.CreatedAt,
		assignment.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create assignment", zap.Error(err))
		return fmt.Errorf("failed to create assignment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	assignment.ID = id
	return nil
}

// GetByID retrieves an assignment by ID
func (r *AssignmentRepository) GetByID(ctx context.Context, id int64) (*entity.Assignment, error) {
	query := `
		SELECT id, project_id, consultant_id, origin, destination,
			departure_date, return_date, status, created_at, updated_at
		FROM assignments
		WHERE id = ?
	`

	var assignment entity.Assignment
	var returnDate sql.NullTime

	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&assignment.ID,
		&assignment.ProjectID,
		&assignment.ConsultantID,
		&assignment.Origin,
		&assignment.Destination,
		&assignment.DepartureDate,
		&returnDate,
		&assignment.Status,
		&assignment.CreatedAt,
		&assignment.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get assignment by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	if returnDate.Valid {
		assignment.ReturnDate = &returnDate.Time
	}

	return &assignment, nil
}

// UpdateStatus updates the lifecycle status of an assignment
func (r *AssignmentRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE assignments SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query, status, id)
	if err != nil {
		r.logger.Error("Failed to update assignment status", zap.Int64("id", id), zap.String("status", status), zap.Error(err))
		return fmt.Errorf("failed to update assignment status: %w", err)
	}

	return nil
}

// ListByConsultant retrieves assignments for a consultant, newest departure first
func (r *AssignmentRepository) ListByConsultant(ctx context.Context, consultantID int64) ([]*entity.Assignment, error) {
	query := `
		SELECT id, project_id, consultant_id, origin, destination,
			departure_date, return_date, status, created_at, updated_at
		FROM assignments
		WHERE consultant_id = ?
		ORDER BY departure_date DESC
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, consultantID)
	if err != nil {
		r.logger.Error("Failed to list assignments", zap.Int64("consultant_id", consultantID), zap.Error(err))
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*entity.Assignment
	for rows.Next() {
		var assignment entity.Assignment
		var returnDate sql.NullTime

		err := rows.Scan(
			&assignment.ID,
			&assignment.ProjectID,
			&assignment.ConsultantID,
			&assignment.Origin,
			&assignment.Destination,
			&assignment.DepartureDate,
			&returnDate,
			&assignment.Status,
			&assignment.CreatedAt,
			&assignment.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}

		if returnDate.Valid {
			assignment.ReturnDate = &returnDate.Time
		}

		assignments = append(assignments, &assignment)
	}

	return assignments, rows.Err()
}

// Verify interface compliance
var _ port.AssignmentRepository = (*AssignmentRepository)(nil)
