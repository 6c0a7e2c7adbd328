package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/consultia/expense-portal/internal/application/port"
	"github.com/consultia/expense-portal/internal/domain/entity"
	"go.uber.org/zap"
)

// AttachmentRepository implements port.AttachmentRepository
type AttachmentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAttachmentRepository creates a new attachment repository
func NewAttachmentRepository(db *sql.DB, logger *zap.Logger) port.AttachmentRepository {
	return &AttachmentRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new attachment record
func (r *AttachmentRepository) Create(ctx context.Context, att *entity.Attachment) error {
	query := `
		INSERT INTO attachments (claim_id, file_name, storage_url, mime_type, file_size, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	if att.CreatedAt.IsZero() {
		att.CreatedAt = time.Now()
	}

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		att.ClaimID,
		att.FileName,
		att.StorageURL,
		att.MimeType,
		att.FileSize,
		att.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create attachment", zap.Int64("claim_id", att.ClaimID), zap.Error(err))
		return fmt.Errorf("failed to create attachment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	att.ID = id
	return nil
}

// GetByID retrieves an attachment by ID
func (r *AttachmentRepository) GetByID(ctx context.Context, id int64) (*entity.Attachment, error) {
	query := `
		SELECT id, claim_id, file_name, storage_url, mime_type, file_size, created_at
		FROM attachments
		WHERE id = ?
	`

	var att entity.Attachment
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&att.ID,
		&att.ClaimID,
		&att.FileName,
		&att.StorageURL,
		&att.MimeType,
		&att.FileSize,
		&att.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get attachment", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}

	return &att, nil
}

// GetByClaimID retrieves all attachments of a claim
func (r *AttachmentRepository) GetByClaimID(ctx context.Context, claimID int64) ([]*entity.Attachment, error) {
	query := `
		SELECT id, claim_id, file_name, storage_url, mime_type, file_size, created_at
		FROM attachments
		WHERE claim_id = ?
		ORDER BY id ASC
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, claimID)
	if err != nil {
		r.logger.Error("Failed to list attachments", zap.Int64("claim_id", claimID), zap.Error(err))
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	defer rows.Close()

	attachments := []*entity.Attachment{}
	for rows.Next() {
		var att entity.Attachment
		err := rows.Scan(
			&att.ID,
			&att.ClaimID,
			&att.FileName,
			&att.StorageURL,
			&att.MimeType,
			&att.FileSize,
			&att.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		attachments = append(attachments, &att)
	}

	return attachments, rows.Err()
}

// Delete removes an attachment record
func (r *AttachmentRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM attachments WHERE id = ?`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete attachment", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete attachment: %w", err)
	}

	return nil
}

// Verify interface compliance
var _ port.AttachmentRepository = (*AttachmentRepository)(nil)
