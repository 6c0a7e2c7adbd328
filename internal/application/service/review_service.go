package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/consultia/expense-portal/internal/application/port"
	"github.com/consultia/expense-portal/internal/domain/entity"
	"github.com/consultia/expense-portal/internal/domain/workflow"
)

// ReviewService drives the claim review state machine. Every transition is a
// storage-layer compare-and-set committed in one transaction with its audit
// entry: if the audit append fails, the status change rolls back with it, and
// if a concurrent reviewer got there first the caller sees ErrStateConflict.
type ReviewService interface {
	StartReview(ctx context.Context, access Access, claimID int64) (*entity.Claim, error)
	Approve(ctx context.Context, access Access, claimID int64, approvedAmount float64, notes string) (*entity.Claim, error)
	Reject(ctx context.Context, access Access, claimID int64, reason, notes string) (*entity.Claim, error)
	MarkPaid(ctx context.Context, access Access, claimID int64) (*entity.Claim, error)
}

type reviewServiceImpl struct {
	claimRepo port.ClaimRepository
	auditRepo port.AuditRepository
	txManager port.TransactionManager
	logger    Logger
}

// NewReviewService creates a new ReviewService
func NewReviewService(
	claimRepo port.ClaimRepository,
	auditRepo port.AuditRepository,
	txManager port.TransactionManager,
	logger Logger,
) ReviewService {
	return &reviewServiceImpl{
		claimRepo: claimRepo,
		auditRepo: auditRepo,
		txManager: txManager,
		logger:    logger,
	}
}

// StartReview moves a pending claim to under_review
func (s *reviewServiceImpl) StartReview(ctx context.Context, access Access, claimID int64) (*entity.Claim, error) {
	if !access.Admin {
		return nil, entity.ErrForbidden
	}

	claim, err := s.loadClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}

	if err := s.checkTransition(claim, workflow.TriggerStartReview); err != nil {
		return nil, err
	}

	update := port.ClaimReviewUpdate{
		Status:     workflow.StateUnderReview,
		ReviewerID: &access.CallerID,
	}

	err = s.transition(ctx, claim, []workflow.State{workflow.StatePending}, update,
		entity.AuditActionReviewStarted, access.CallerID, nil)
	if err != nil {
		return nil, err
	}

	return s.claimRepo.GetByID(ctx, claimID)
}

// Approve settles a claim at the given amount. Legal from pending or
// under_review; the amount must not exceed what was submitted. The cap is
// advisory at this point: a reviewer may settle above the pre-computed
// ceiling at their own discretion.
func (s *reviewServiceImpl) Approve(ctx context.Context, access Access, claimID int64, approvedAmount float64, notes string) (*entity.Claim, error) {
	if !access.Admin {
		return nil, entity.ErrForbidden
	}

	claim, err := s.loadClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}

	if approvedAmount <= 0 || approvedAmount > claim.SubmittedAmount {
		return nil, fmt.Errorf("approved amount %.2f exceeds submitted %.2f: %w",
			approvedAmount, claim.SubmittedAmount, entity.ErrInvalidAmount)
	}

	if err := s.checkTransition(claim, workflow.TriggerApprove); err != nil {
		return nil, err
	}

	update := port.ClaimReviewUpdate{
		Status:         workflow.StateApproved,
		ApprovedAmount: &approvedAmount,
		Notes:          &notes,
		ReviewerID:     &access.CallerID,
	}

	detail := map[string]interface{}{
		"approved_amount":  approvedAmount,
		"submitted_amount": claim.SubmittedAmount,
	}

	err = s.transition(ctx, claim, workflow.ReviewableStates(), update,
		entity.AuditActionReimbursementApproved, access.CallerID, detail)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Claim approved",
		"claim_id", claimID,
		"reviewer_id", access.CallerID,
		"approved_amount", approvedAmount)

	return s.claimRepo.GetByID(ctx, claimID)
}

// Reject moves a claim to rejected. A non-empty reason is required.
func (s *reviewServiceImpl) Reject(ctx context.Context, access Access, claimID int64, reason, notes string) (*entity.Claim, error) {
	if !access.Admin {
		return nil, entity.ErrForbidden
	}

	if strings.TrimSpace(reason) == "" {
		return nil, entity.ErrMissingReason
	}

	claim, err := s.loadClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}

	if err := s.checkTransition(claim, workflow.TriggerReject); err != nil {
		return nil, err
	}

	update := port.ClaimReviewUpdate{
		Status:          workflow.StateRejected,
		RejectionReason: &reason,
		Notes:           &notes,
		ReviewerID:      &access.CallerID,
	}

	detail := map[string]interface{}{"rejection_reason": reason}

	err = s.transition(ctx, claim, workflow.ReviewableStates(), update,
		entity.AuditActionReimbursementRejected, access.CallerID, detail)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Claim rejected", "claim_id", claimID, "reviewer_id", access.CallerID)

	return s.claimRepo.GetByID(ctx, claimID)
}

// MarkPaid records payout of an approved claim. Admin only.
func (s *reviewServiceImpl) MarkPaid(ctx context.Context, access Access, claimID int64) (*entity.Claim, error) {
	if !access.Admin {
		return nil, entity.ErrForbidden
	}

	claim, err := s.loadClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}

	if err := s.checkTransition(claim, workflow.TriggerMarkPaid); err != nil {
		return nil, err
	}

	update := port.ClaimReviewUpdate{
		Status:     workflow.StatePaid,
		ReviewerID: &access.CallerID,
	}

	err = s.transition(ctx, claim, []workflow.State{workflow.StateApproved}, update,
		entity.AuditActionReimbursementPaid, access.CallerID, nil)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Claim paid", "claim_id", claimID, "admin_id", access.CallerID)

	return s.claimRepo.GetByID(ctx, claimID)
}

func (s *reviewServiceImpl) loadClaim(ctx context.Context, claimID int64) (*entity.Claim, error) {
	claim, err := s.claimRepo.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, fmt.Errorf("claim %d: %w", claimID, entity.ErrNotFound)
	}
	return claim, nil
}

// checkTransition validates the requested trigger against the review machine
// built from the claim's loaded status. The storage-layer CAS remains the
// authority under concurrency; this surfaces a clean error on the common path.
func (s *reviewServiceImpl) checkTransition(claim *entity.Claim, trigger workflow.Trigger) error {
	m := workflow.NewReviewMachine(workflow.State(claim.Status))
	if !m.CanFire(trigger) {
		return fmt.Errorf("claim %d in state %s: %w", claim.ID, claim.Status, entity.ErrStateConflict)
	}
	return nil
}

// transition commits the CAS status update and its audit entry in one
// transaction.
func (s *reviewServiceImpl) transition(
	ctx context.Context,
	claim *entity.Claim,
	fromStates []workflow.State,
	update port.ClaimReviewUpdate,
	auditAction string,
	actorID int64,
	detail map[string]interface{},
) error {
	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.claimRepo.TransitionStatus(txCtx, claim.ID, fromStates, update); err != nil {
			return err
		}

		entry := &entity.AuditEntry{
			Action:     auditAction,
			EntityType: entity.AuditEntityClaim,
			EntityID:   claim.ID,
			ActorID:    actorID,
			Detail:     marshalTransitionDetail(claim.Status, update.Status, detail),
			CreatedAt:  time.Now(),
		}

		if err := s.auditRepo.Create(txCtx, entry); err != nil {
			return fmt.Errorf("audit append: %w", err)
		}

		return nil
	})
}

func marshalTransitionDetail(from entity.ClaimStatus, to workflow.State, extra map[string]interface{}) string {
	detail := map[string]interface{}{
		"previous_status": string(from),
		"new_status":      string(to),
	}
	for k, v := range extra {
		detail[k] = v
	}
	data, err := json.Marshal(detail)
	if err != nil {
		return ""
	}
	return string(data)
}
