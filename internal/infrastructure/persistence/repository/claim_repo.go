package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/consultia/expense-portal/internal/application/port"
	"github.com/consultia/expense-portal/internal/domain/entity"
	"github.com/consultia/expense-portal/internal/domain/workflow"
	"go.uber.org/zap"
)

// ClaimRepository implements port.ClaimRepository
type ClaimRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(db *sql.DB, logger *zap.Logger) port.ClaimRepository {
	return &ClaimRepository{
		db:     db,
		logger: logger,
	}
}

const claimColumns = `id, assignment_id, consultant_id, submitted_amount, approved_amount,
	currency, status, submission_date, review_date, reviewer_id,
	rejection_reason, notes, created_at, updated_at`

// Create creates a new claim
func (r *ClaimRepository) Create(ctx context.Context, claim *entity.Claim) error {
	query := `
		INSERT INTO claims (
			assignment_id, consultant_id, submitted_amount, approved_amount,
			currency, status, submission_date, rejection_reason, notes,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		claim.AssignmentID,
		claim.ConsultantID,
		claim.SubmittedAmount,
		claim.ApprovedAmount,
		claim.Currency,
		string(claim.Status),
		claim.SubmissionDate,
		claim.RejectionReason,
		claim.Notes,
		claim.CreatedAt,
		claim.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create claim", zap.Error(err))
		return fmt.Errorf("failed to create claim: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	claim.ID = id
	return nil
}

// GetByID retrieves a claim by ID
func (r *ClaimRepository) GetByID(ctx context.Context, id int64) (*entity.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE id = ?`

	claim, err := r.scanClaim(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get claim by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}

	return claim, nil
}

// ListByConsultant retrieves a consultant's claims, newest submission first
func (r *ClaimRepository) ListByConsultant(ctx context.Context, consultantID int64) ([]*entity.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE consultant_id = ? ORDER BY submission_date DESC, id DESC`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, consultantID)
	if err != nil {
		r.logger.Error("Failed to list claims", zap.Int64("consultant_id", consultantID), zap.Error(err))
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer rows.Close()

	return r.scanClaims(rows)
}

// ListAll retrieves every claim, newest submission first. Admin queries only.
func (r *ClaimRepository) ListAll(ctx context.Context) ([]*entity.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims ORDER BY submission_date DESC, id DESC`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list all claims", zap.Error(err))
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer rows.Close()

	return r.scanClaims(rows)
}

// TransitionStatus performs the conditional status update that guards the
// review state machine. The WHERE clause carries the permitted source states:
// of two racing reviewers exactly one update applies, and the loser gets
// entity.ErrStateConflict without having written anything.
func (r *ClaimRepository) TransitionStatus(ctx context.Context, id int64, fromStates []workflow.State, update port.ClaimReviewUpdate) error {
	if len(fromStates) == 0 {
		return fmt.Errorf("transition requires at least one source state")
	}

	sets := []string{"status = ?", "updated_at = ?"}
	args := []interface{}{string(update.Status), time.Now()}

	switch update.Status {
	case workflow.StateApproved, workflow.StateRejected:
		sets = append(sets, "review_date = ?")
		args = append(args, time.Now())
	}
	if update.ApprovedAmount != nil {
		sets = append(sets, "approved_amount = ?")
		args = append(args, *update.ApprovedAmount)
	}
	if update.RejectionReason != nil {
		sets = append(sets, "rejection_reason = ?")
		args = append(args, *update.RejectionReason)
	}
	if update.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *update.Notes)
	}
	if update.ReviewerID != nil {
		sets = append(sets, "reviewer_id = ?")
		args = append(args, *update.ReviewerID)
	}

	placeholders := make([]string, len(fromStates))
	for i, s := range fromStates {
		placeholders[i] = "?"
		args = append(args, string(s))
	}

	query := fmt.Sprintf("UPDATE claims SET %s WHERE id = ? AND status IN (%s)",
		strings.Join(sets, ", "), strings.Join(placeholders, ", "))

	// id slots in before the status placeholders
	finalArgs := make([]interface{}, 0, len(args)+1)
	finalArgs = append(finalArgs, args[:len(args)-len(fromStates)]...)
	finalArgs = append(finalArgs, id)
	finalArgs = append(finalArgs, args[len(args)-len(fromStates):]...)

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query, finalArgs...)
	if err != nil {
		r.logger.Error("Failed to transition claim status", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to transition claim status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("claim %d not in %v: %w", id, fromStates, entity.ErrStateConflict)
	}

	return nil
}

func (r *ClaimRepository) scanClaims(rows *sql.Rows) ([]*entity.Claim, error) {
	var claims []*entity.Claim
	for rows.Next() {
		claim, err := r.scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claims = append(claims, claim)
	}
	return claims, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *ClaimRepository) scanClaim(row rowScanner) (*entity.Claim, error) {
	var claim entity.Claim
	var status string
	var approvedAmount sql.NullFloat64
	var reviewDate sql.NullTime
	var reviewerID sql.NullInt64
	var rejectionReason, notes sql.NullString

	err := row.Scan(
		&claim.ID,
		&claim.AssignmentID,
		&claim.ConsultantID,
		&claim.SubmittedAmount,
		&approvedAmount,
		&claim.Currency,
		&status,
		&claim.SubmissionDate,
		&reviewDate,
		&reviewerID,
		&rejectionReason,
		&notes,
		&claim.CreatedAt,
		&claim.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	claim.Status = entity.ClaimStatus(status)
	if approvedAmount.Valid {
		claim.ApprovedAmount = &approvedAmount.Float64
	}
	if reviewDate.Valid {
		claim.ReviewDate = &reviewDate.Time
	}
	if reviewerID.Valid {
		claim.ReviewerID = &reviewerID.Int64
	}
	claim.RejectionReason = rejectionReason.String
	claim.Notes = notes.String

	return &claim, nil
}

// Verify interface compliance
var _ port.ClaimRepository = (*ClaimRepository)(nil)
