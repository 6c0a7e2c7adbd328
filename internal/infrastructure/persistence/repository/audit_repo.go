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

// AuditRepository implements port.AuditRepository. The table is append-only;
// no update or delete path exists here.
type AuditRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sql.DB, logger *zap.Logger) port.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a new audit entry
func (r *AuditRepository) Create(ctx context.Context, entry *entity.AuditEntry) error {
	query := `
		INSERT INTO audit_entries (action, entity_type, entity_id, actor_id, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.ActorID,
		entry.Detail,
		entry.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create audit entry", zap.String("action", entry.Action), zap.Error(err))
		return fmt.Errorf("failed to create audit entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	entry.ID = id
	return nil
}

// GetByEntity retrieves the audit history of one entity, oldest first
func (r *AuditRepository) GetByEntity(ctx context.Context, entityType string, entityID int64) ([]*entity.AuditEntry, error) {
	query := `
		SELECT id, action, entity_type, entity_id, actor_id, detail, created_at
		FROM audit_entries
		WHERE entity_type = ? AND entity_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, entityType, entityID)
	if err != nil {
		r.logger.Error("Failed to list audit entries",
			zap.String("entity_type", entityType),
			zap.Int64("entity_id", entityID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	return r.scanEntries(rows)
}

// ListRecent retrieves the most recent audit entries across all entities
func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]*entity.AuditEntry, error) {
	query := `
		SELECT id, action, entity_type, entity_id, actor_id, detail, created_at
		FROM audit_entries
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, limit)
	if err != nil {
		r.logger.Error("Failed to list recent audit entries", zap.Error(err))
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	return r.scanEntries(rows)
}

func (r *AuditRepository) scanEntries(rows *sql.Rows) ([]*entity.AuditEntry, error) {
	var entries []*entity.AuditEntry
	for rows.Next() {
		var e entity.AuditEntry
		err := rows.Scan(
			&e.ID,
			&e.Action,
			&e.EntityType,
			&e.EntityID,
			&e.ActorID,
			&e.Detail,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Verify interface compliance
var _ port.AuditRepository = (*AuditRepository)(nil)
