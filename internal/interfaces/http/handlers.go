package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/consultia/expense-portal/internal/application/port"
	"github.com/consultia/expense-portal/internal/application/service"
	"github.com/consultia/expense-portal/internal/domain/entity"
	"github.com/consultia/expense-portal/internal/report"
)

// Handlers groups the HTTP request handlers
type Handlers struct {
	resolver      *service.AccessResolver
	searchService service.SearchService
	capService    service.CapService
	claimService  service.ClaimService
	reviewService service.ReviewService
	auditService  service.AuditService
	exporter      *report.Exporter
	reportDir     string
	logger        Logger
}

// NewHandlers creates handlers with the given services
func NewHandlers(
	resolver *service.AccessResolver,
	searchService service.SearchService,
	capService service.CapService,
	claimService service.ClaimService,
	reviewService service.ReviewService,
	auditService service.AuditService,
	exporter *report.Exporter,
	reportDir string,
	logger Logger,
) *Handlers {
	return &Handlers{
		resolver:      resolver,
		searchService: searchService,
		capService:    capService,
		claimService:  claimService,
		reviewService: reviewService,
		auditService:  auditService,
		exporter:      exporter,
		reportDir:     reportDir,
		logger:        logger,
	}
}

// HealthCheck returns service health status
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Format(time.RFC3339)})
}

// access resolves the caller's authorization capability, writing the error
// response itself on failure.
func (h *Handlers) access(c *gin.Context) (service.Access, bool) {
	access, err := h.resolver.Resolve(c.Request.Context(), callerID(c))
	if err != nil {
		h.writeError(c, err)
		return service.Access{}, false
	}
	return access, true
}

type searchRequest struct {
	SearchType  string `json:"search_type" binding:"required"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Departure   string `json:"departure_date" binding:"required"`
	Return      string `json:"return_date"`
}

// RunSearch executes the quote search provider for an assignment and
// re-derives the price cap
func (h *Handlers) RunSearch(c *gin.Context) {
	access, ok := h.access(c)
	if !ok {
		return
	}

	assignmentID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assignment id"})
		return
	}

	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	departure, err := time.Parse("2006-01-02", req.Departure)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid departure_date"})
		return
	}

	params := port.SearchParams{
		SearchType:  req.SearchType,
		Origin:      req.Origin,
		Destination: req.Destination,
		Departure:   departure,
	}
	if req.Return != "" {
		ret, err := time.Parse("2006-01-02", req.Return)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid return_date"})
			return
		}
		params.Return = ret
	}

	result, err := h.searchService.Execute(c.Request.Context(), access, assignmentID, params)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ListQuotes returns the latest ranked quotes for an assignment
func (h *Handlers) ListQuotes(c *gin.Context) {
	if _, ok := h.access(c); !ok {
		return
	}

	assignmentID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assignment id"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	quotes, err := h.searchService.LatestQuotes(c.Request.Context(), assignmentID, limit)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"quotes": quotes})
}

// GetCap returns the active price cap for an assignment, null when never set
func (h *Handlers) GetCap(c *gin.Context) {
	if _, ok := h.access(c); !ok {
		return
	}

	assignmentID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assignment id"})
		return
	}

	cap, err := h.capService.ActiveCapFor(c.Request.Context(), assignmentID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cap": cap})
}

// SubmitClaim accepts a multipart reimbursement submission
func (h *Handlers) SubmitClaim(c *gin.Context) {
	access, ok := h.access(c)
	if !ok {
		return
	}

	assignmentID, err := strconv.ParseInt(c.PostForm("assignment_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assignment_id"})
		return
	}

	amount, err := strconv.ParseFloat(c.PostForm("amount"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form required"})
		return
	}

	files := make([]entity.UploadFile, 0, len(form.File["files"]))
	for _, fh := range form.File["files"] {
		f, err := fh.Open()
		if err != nil {
			h.logger.Error("Failed to open uploaded file", "error", err, "file", fh.Filename)
			continue
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			h.logger.Error("Failed to read uploaded file", "error", err, "file", fh.Filename)
			continue
		}
		files = append(files, entity.UploadFile{
			Name:     fh.Filename,
			MimeType: fh.Header.Get("Content-Type"),
			Content:  content,
		})
	}

	result, err := h.claimService.Submit(c.Request.Context(), access, service.SubmitRequest{
		AssignmentID: assignmentID,
		Amount:       amount,
		Currency:     c.DefaultPostForm("currency", "EUR"),
		Notes:        c.PostForm("notes"),
		Files:        files,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ListClaims returns claims scoped to the caller unless the caller is admin
func (h *Handlers) ListClaims(c *gin.Context) {
	access, ok := h.access(c)
	if !ok {
		return
	}

	consultantID := access.ConsultantID
	if q := c.Query("consultant_id"); q != "" {
		id, err := strconv.ParseInt(q, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid consultant_id"})
			return
		}
		consultantID = id
	} else if access.Admin {
		consultantID = 0 // all claims
	}

	claims, err := h.claimService.ListFor(c.Request.Context(), access, consultantID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"claims": claims})
}

// ListAttachments returns the attachments of one claim
func (h *Handlers) ListAttachments(c *gin.Context) {
	access, ok := h.access(c)
	if !ok {
		return
	}

	claimID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid claim id"})
		return
	}

	attachments, err := h.claimService.AttachmentsFor(c.Request.Context(), access, claimID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"attachments": attachments})
}

// DeleteAttachment removes an attachment. Admin only.
func (h *Handlers) DeleteAttachment(c *gin.Context) {
	access, ok := h.access(c)
	if !ok {
		return
	}

	attachmentID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attachment id"})
		return
	}

	if err := h.claimService.DeleteAttachment(c.Request.Context(), access, attachmentID); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// StartReview moves a pending claim to under_review
func (h *Handlers) StartReview(c *gin.Context) {
	h.reviewAction(c, func(access service.Access, claimID int64) (*entity.Claim, error) {
		return h.reviewService.StartReview(c.Request.Context(), access, claimID)
	})
}

type approveRequest struct {
	ApprovedAmount float64 `json:"approved_amount" binding:"required"`
	Notes          string  `json:"notes"`
}

// ApproveClaim settles a claim at the reviewer's amount
func (h *Handlers) ApproveClaim(c *gin.Context) {
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.reviewAction(c, func(access service.Access, claimID int64) (*entity.Claim, error) {
		return h.reviewService.Approve(c.Request.Context(), access, claimID, req.ApprovedAmount, req.Notes)
	})
}

type rejectRequest struct {
	Reason string `json:"reason"`
	Notes  string `json:"notes"`
}

// RejectClaim rejects a claim with a required reason
func (h *Handlers) RejectClaim(c *gin.Context) {
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.reviewAction(c, func(access service.Access, claimID int64) (*entity.Claim, error) {
		return h.reviewService.Reject(c.Request.Context(), access, claimID, req.Reason, req.Notes)
	})
}

// MarkPaid records payout of an approved claim
func (h *Handlers) MarkPaid(c *gin.Context) {
	h.reviewAction(c, func(access service.Access, claimID int64) (*entity.Claim, error) {
		return h.reviewService.MarkPaid(c.Request.Context(), access, claimID)
	})
}

func (h *Handlers) reviewAction(c *gin.Context, fn func(service.Access, int64) (*entity.Claim, error)) {
	access, ok := h.access(c)
	if !ok {
		return
	}

	claimID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid claim id"})
		return
	}

	claim, err := fn(access, claimID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"claim": claim})
}

// ClaimAudit returns the audit history of one claim
func (h *Handlers) ClaimAudit(c *gin.Context) {
	access, ok := h.access(c)
	if !ok {
		return
	}
	if !access.Admin {
		h.writeError(c, entity.ErrForbidden)
		return
	}

	claimID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid claim id"})
		return
	}

	entries, err := h.auditService.EntriesFor(c.Request.Context(), entity.AuditEntityClaim, claimID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// ExportClaims writes the claims workbook and streams it back. Admin only.
func (h *Handlers) ExportClaims(c *gin.Context) {
	access, ok := h.access(c)
	if !ok {
		return
	}
	if !access.Admin {
		h.writeError(c, entity.ErrForbidden)
		return
	}

	claims, err := h.claimService.ListFor(c.Request.Context(), access, 0)
	if err != nil {
		h.writeError(c, err)
		return
	}

	entries, err := h.auditService.Recent(c.Request.Context(), 500)
	if err != nil {
		h.writeError(c, err)
		return
	}

	fileName := fmt.Sprintf("claims_report_%s.xlsx", time.Now().Format("20060102_150405"))
	outputPath := filepath.Join(h.reportDir, fileName)

	if err := h.exporter.ExportClaims(claims, entries, outputPath); err != nil {
		h.writeError(c, err)
		return
	}

	c.FileAttachment(outputPath, fileName)
}

// writeError maps domain errors to HTTP status codes
func (h *Handlers) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, entity.ErrInvalidAmount),
		errors.Is(err, entity.ErrNoAttachments),
		errors.Is(err, entity.ErrFileTooLarge),
		errors.Is(err, entity.ErrMissingReason):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, entity.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, entity.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, entity.ErrStateConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, entity.ErrNoQuotes):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Request failed", "error", err, "path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func pathID(c *gin.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}
