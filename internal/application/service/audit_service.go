package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/consultia/expense-portal/internal/application/port"
	"github.com/consultia/expense-portal/internal/domain/entity"
)

// AuditService is the append-only audit sink. Append never fails its caller:
// a write error is reported to the operator log and dropped. Review
// transitions bypass Append and write through the repository inside their own
// transaction, where the append must commit with the status change.
type AuditService interface {
	Append(ctx context.Context, action, entityType string, entityID, actorID int64, detail interface{})
	EntriesFor(ctx context.Context, entityType string, entityID int64) ([]*entity.AuditEntry, error)
	Recent(ctx context.Context, limit int) ([]*entity.AuditEntry, error)
}

type auditServiceImpl struct {
	auditRepo port.AuditRepository
	logger    Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(auditRepo port.AuditRepository, logger Logger) AuditService {
	return &auditServiceImpl{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// Append records one mutating action. Failures are swallowed after being
// surfaced on the operator channel; business flow never blocks on audit.
func (s *auditServiceImpl) Append(ctx context.Context, action, entityType string, entityID, actorID int64, detail interface{}) {
	entry := &entity.AuditEntry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    actorID,
		Detail:     marshalDetail(detail),
		CreatedAt:  time.Now(),
	}

	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.logger.Error("Audit append failed",
			"error", err,
			"action", action,
			"entity_type", entityType,
			"entity_id", entityID)
	}
}

// EntriesFor returns the audit history of one entity, oldest first
func (s *auditServiceImpl) EntriesFor(ctx context.Context, entityType string, entityID int64) ([]*entity.AuditEntry, error) {
	entries, err := s.auditRepo.GetByEntity(ctx, entityType, entityID)
	if err != nil {
		s.logger.Error("Failed to load audit entries", "error", err, "entity_type", entityType, "entity_id", entityID)
		return nil, err
	}
	return entries, nil
}

// Recent returns the newest audit entries across all entities
func (s *auditServiceImpl) Recent(ctx context.Context, limit int) ([]*entity.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	entries, err := s.auditRepo.ListRecent(ctx, limit)
	if err != nil {
		s.logger.Error("Failed to load recent audit entries", "error", err)
		return nil, err
	}
	return entries, nil
}

// marshalDetail serializes a structured detail payload. A payload that cannot
// marshal degrades to empty detail rather than failing the append.
func marshalDetail(detail interface{}) string {
	if detail == nil {
		return ""
	}
	data, err := json.Marshal(detail)
	if err != nil {
		return ""
	}
	return string(data)
}
