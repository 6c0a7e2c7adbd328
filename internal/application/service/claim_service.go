package service

import (
	"context"
	"fmt"
	"time"

	"github.com/consultia/expense-portal/internal/application/port"
	"github.com/consultia/expense-portal/internal/domain/entity"
)

// ClaimService is the claim ledger: it accepts reimbursement submissions,
// clamps them against the active cap, and manages attachments.
//
// Clamping is authoritative at submission time: approved_amount is persisted
// as min(submitted, cap) and the result carries Capped so the submitter sees
// the warning. Reviewers may still settle on any amount up to the submitted
// one.
type ClaimService interface {
	Submit(ctx context.Context, access Access, req SubmitRequest) (*SubmitResult, error)
	ListFor(ctx context.Context, access Access, consultantID int64) ([]*entity.Claim, error)
	Get(ctx context.Context, access Access, claimID int64) (*entity.Claim, error)
	AttachmentsFor(ctx context.Context, access Access, claimID int64) ([]*entity.Attachment, error)
	DeleteAttachment(ctx context.Context, access Access, attachmentID int64) error
}

// SubmitRequest carries one reimbursement submission
type SubmitRequest struct {
	AssignmentID int64
	Amount       float64
	Currency     string
	Notes        string
	Files        []entity.UploadFile
}

// SubmitResult reports the stored claim plus per-file upload feedback
type SubmitResult struct {
	Claim         *entity.Claim    `json:"claim"`
	UploadedCount int              `json:"uploaded_count"`
	TotalCount    int              `json:"total_count"`
	Capped        bool             `json:"capped"`
	Cap           *entity.PriceCap `json:"cap,omitempty"`
}

type claimServiceImpl struct {
	claimRepo      port.ClaimRepository
	attachmentRepo port.AttachmentRepository
	assignmentRepo port.AssignmentRepository
	capService     CapService
	storage        port.FileStorage
	auditService   AuditService
	logger         Logger
}

// NewClaimService creates a new ClaimService
func NewClaimService(
	claimRepo port.ClaimRepository,
	attachmentRepo port.AttachmentRepository,
	assignmentRepo port.AssignmentRepository,
	capService CapService,
	storage port.FileStorage,
	auditService AuditService,
	logger Logger,
) ClaimService {
	return &claimServiceImpl{
		claimRepo:      claimRepo,
		attachmentRepo: attachmentRepo,
		assignmentRepo: assignmentRepo,
		capService:     capService,
		storage:        storage,
		auditService:   auditService,
		logger:         logger,
	}
}

// Submit validates, clamps, and persists one reimbursement claim. All
// validation errors surface before anything is persisted. Attachment storage
// is best-effort per file: a file that fails to store is skipped and counted,
// never fatal to the claim.
func (s *claimServiceImpl) Submit(ctx context.Context, access Access, req SubmitRequest) (*SubmitResult, error) {
	if access.ConsultantID == 0 {
		return nil, entity.ErrForbidden
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("submitted amount %.2f: %w", req.Amount, entity.ErrInvalidAmount)
	}
	if len(req.Files) == 0 {
		return nil, entity.ErrNoAttachments
	}

	// Size validation is per file. A submission where every file is oversized
	// has no usable receipt and fails up front.
	validFiles := make([]entity.UploadFile, 0, len(req.Files))
	for _, f := range req.Files {
		if int64(len(f.Content)) > entity.MaxAttachmentSize {
			s.logger.Warn("Attachment exceeds size limit, skipping",
				"file_name", f.Name,
				"size", len(f.Content))
			continue
		}
		validFiles = append(validFiles, f)
	}
	if len(validFiles) == 0 {
		return nil, fmt.Errorf("all %d files oversized: %w", len(req.Files), entity.ErrNoAttachments)
	}

	assignment, err := s.assignmentRepo.GetByID(ctx, req.AssignmentID)
	if err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, fmt.Errorf("assignment %d: %w", req.AssignmentID, entity.ErrNotFound)
	}

	cap, err := s.capService.ActiveCapFor(ctx, req.AssignmentID)
	if err != nil {
		return nil, err
	}

	approved := req.Amount
	capped := false
	if cap != nil && cap.MaxApprovedPrice < approved {
		approved = cap.MaxApprovedPrice
		capped = true
	}

	now := time.Now()
	claim := &entity.Claim{
		AssignmentID:    req.AssignmentID,
		ConsultantID:    access.ConsultantID,
		SubmittedAmount: req.Amount,
		ApprovedAmount:  &approved,
		Currency:        req.Currency,
		Status:          entity.ClaimStatusPending,
		SubmissionDate:  now,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.claimRepo.Create(ctx, claim); err != nil {
		return nil, err
	}

	uploaded := s.storeAttachments(ctx, claim.ID, validFiles)
	claim.Attachments = uploaded

	result := &SubmitResult{
		Claim:         claim,
		UploadedCount: len(uploaded),
		TotalCount:    len(req.Files),
		Capped:        capped,
		Cap:           cap,
	}

	s.auditService.Append(ctx, entity.AuditActionReimbursementSubmit, entity.AuditEntityClaim, claim.ID, access.CallerID,
		map[string]interface{}{
			"assignment_id":    req.AssignmentID,
			"submitted_amount": req.Amount,
			"approved_amount":  approved,
			"capped":           capped,
			"uploaded_count":   result.UploadedCount,
			"total_count":      result.TotalCount,
		})

	s.logger.Info("Claim submitted",
		"claim_id", claim.ID,
		"consultant_id", access.ConsultantID,
		"submitted_amount", req.Amount,
		"approved_amount", approved,
		"uploaded", fmt.Sprintf("%d/%d", result.UploadedCount, result.TotalCount))

	return result, nil
}

// storeAttachments stores each file independently. Partial failure of one
// file never rolls back the others or the claim.
func (s *claimServiceImpl) storeAttachments(ctx context.Context, claimID int64, files []entity.UploadFile) []*entity.Attachment {
	stored := make([]*entity.Attachment, 0, len(files))

	for _, f := range files {
		url, err := s.storage.Store(ctx, f.Name, f.Content)
		if err != nil {
			s.logger.Error("Attachment store failed, skipping",
				"error", err,
				"claim_id", claimID,
				"file_name", f.Name)
			continue
		}

		att := &entity.Attachment{
			ClaimID:    claimID,
			FileName:   f.Name,
			StorageURL: url,
			MimeType:   f.MimeType,
			FileSize:   int64(len(f.Content)),
			CreatedAt:  time.Now(),
		}

		if err := s.attachmentRepo.Create(ctx, att); err != nil {
			s.logger.Error("Attachment record failed, skipping",
				"error", err,
				"claim_id", claimID,
				"file_name", f.Name)
			if delErr := s.storage.Delete(ctx, url); delErr != nil {
				s.logger.Warn("Orphaned stored file", "url", url, "error", delErr)
			}
			continue
		}

		stored = append(stored, att)
	}

	return stored
}

// ListFor returns claims newest first, each with its attachments. Consultants
// see only their own rows; admins see anyone's.
func (s *claimServiceImpl) ListFor(ctx context.Context, access Access, consultantID int64) ([]*entity.Claim, error) {
	if consultantID == 0 && access.Admin {
		claims, err := s.claimRepo.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		return s.attachAll(ctx, claims)
	}

	if !access.CanActFor(consultantID) {
		return nil, entity.ErrForbidden
	}

	claims, err := s.claimRepo.ListByConsultant(ctx, consultantID)
	if err != nil {
		return nil, err
	}
	return s.attachAll(ctx, claims)
}

func (s *claimServiceImpl) attachAll(ctx context.Context, claims []*entity.Claim) ([]*entity.Claim, error) {
	for _, c := range claims {
		atts, err := s.attachmentRepo.GetByClaimID(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		c.Attachments = atts
	}
	return claims, nil
}

// Get returns one claim with its attachments, ownership-scoped
func (s *claimServiceImpl) Get(ctx context.Context, access Access, claimID int64) (*entity.Claim, error) {
	claim, err := s.claimRepo.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, fmt.Errorf("claim %d: %w", claimID, entity.ErrNotFound)
	}
	if !access.CanActFor(claim.ConsultantID) {
		return nil, entity.ErrForbidden
	}

	atts, err := s.attachmentRepo.GetByClaimID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	claim.Attachments = atts
	return claim, nil
}

// AttachmentsFor returns the attachments of one claim, ownership-scoped
func (s *claimServiceImpl) AttachmentsFor(ctx context.Context, access Access, claimID int64) ([]*entity.Attachment, error) {
	claim, err := s.claimRepo.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, fmt.Errorf("claim %d: %w", claimID, entity.ErrNotFound)
	}
	if !access.CanActFor(claim.ConsultantID) {
		return nil, entity.ErrForbidden
	}

	return s.attachmentRepo.GetByClaimID(ctx, claimID)
}

// DeleteAttachment removes an attachment record and, best-effort, its stored
// file. Admin only; attachments are otherwise immutable.
func (s *claimServiceImpl) DeleteAttachment(ctx context.Context, access Access, attachmentID int64) error {
	if !access.Admin {
		return entity.ErrForbidden
	}

	att, err := s.attachmentRepo.GetByID(ctx, attachmentID)
	if err != nil {
		return err
	}
	if att == nil {
		return fmt.Errorf("attachment %d: %w", attachmentID, entity.ErrNotFound)
	}

	if err := s.attachmentRepo.Delete(ctx, attachmentID); err != nil {
		return err
	}

	if err := s.storage.Delete(ctx, att.StorageURL); err != nil {
		s.logger.Warn("Stored file removal failed", "url", att.StorageURL, "error", err)
	}

	s.auditService.Append(ctx, entity.AuditActionAttachmentDeleted, entity.AuditEntityAttachment, attachmentID, access.CallerID,
		map[string]interface{}{"claim_id": att.ClaimID, "file_name": att.FileName})

	return nil
}
