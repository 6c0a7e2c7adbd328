// Package report builds spreadsheet exports of the claim ledger and audit
// trail for finance review.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/consultia/expense-portal/internal/domain/entity"
)

const (
	claimsSheet = "Claims"
	auditSheet  = "Audit Trail"
)

// Exporter writes claim and audit data to xlsx workbooks
type Exporter struct {
	logger *zap.Logger
}

// NewExporter creates a new Exporter
func NewExporter(logger *zap.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// ExportClaims writes one workbook with a claims sheet and an audit trail
// sheet to outputPath.
func (e *Exporter) ExportClaims(claims []*entity.Claim, entries []*entity.AuditEntry, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", claimsSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	headers := []string{
		"Claim ID", "Assignment ID", "Consultant ID", "Submitted Amount",
		"Approved Amount", "Currency", "Status", "Submission Date",
		"Review Date", "Rejection Reason", "Notes", "Attachments",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(claimsSheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for row, c := range claims {
		values := []interface{}{
			c.ID,
			c.AssignmentID,
			c.ConsultantID,
			c.SubmittedAmount,
			approvedCell(c),
			c.Currency,
			string(c.Status),
			c.SubmissionDate.Format("2006-01-02 15:04:05"),
			reviewDateCell(c),
			c.RejectionReason,
			c.Notes,
			len(c.Attachments),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(claimsSheet, cell, v); err != nil {
				return fmt.Errorf("failed to write claim row: %w", err)
			}
		}
	}

	if err := e.fillAuditSheet(f, entries); err != nil {
		return err
	}

	if err := f.SaveAs(outputPath); err != nil {
		e.logger.Error("Failed to save report", zap.String("path", outputPath), zap.Error(err))
		return fmt.Errorf("failed to save report: %w", err)
	}

	e.logger.Info("Claims report exported",
		zap.String("path", outputPath),
		zap.Int("claims", len(claims)),
		zap.Int("audit_entries", len(entries)))

	return nil
}

func (e *Exporter) fillAuditSheet(f *excelize.File, entries []*entity.AuditEntry) error {
	if _, err := f.NewSheet(auditSheet); err != nil {
		return fmt.Errorf("failed to create audit sheet: %w", err)
	}

	headers := []string{"Entry ID", "Action", "Entity Type", "Entity ID", "Actor ID", "Detail", "Timestamp"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(auditSheet, cell, h); err != nil {
			return fmt.Errorf("failed to write audit header: %w", err)
		}
	}

	for row, entry := range entries {
		values := []interface{}{
			entry.ID,
			entry.Action,
			entry.EntityType,
			entry.EntityID,
			entry.ActorID,
			entry.Detail,
			entry.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(auditSheet, cell, v); err != nil {
				return fmt.Errorf("failed to write audit row: %w", err)
			}
		}
	}

	return nil
}

func approvedCell(c *entity.Claim) interface{} {
	if c.ApprovedAmount == nil {
		return ""
	}
	return *c.ApprovedAmount
}

func reviewDateCell(c *entity.Claim) interface{} {
	if c.ReviewDate == nil {
		return ""
	}
	return c.ReviewDate.Format("2006-01-02 15:04:05")
}
