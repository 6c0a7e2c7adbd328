// Package auth resolves caller identities into roles and consultant
// ownership. Identity itself (who is calling) comes from the external
// identity provider via the HTTP layer; this adapter only answers the two
// predicates the core trusts.
package auth

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/consultia/expense-portal/internal/application/port"
)

// Role constants as stored in the users table
const (
	RoleConsultant = "consultant"
	RoleAdmin      = "admin"
)

// SQLAuthorizer implements port.Authorizer against the users table
type SQLAuthorizer struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLAuthorizer creates a new SQLAuthorizer
func NewSQLAuthorizer(db *sql.DB, logger *zap.Logger) port.Authorizer {
	return &SQLAuthorizer{
		db:     db,
		logger: logger,
	}
}

// IsAdmin returns true if the caller holds the admin role
func (a *SQLAuthorizer) IsAdmin(ctx context.Context, callerID int64) (bool, error) {
	query := `SELECT role FROM users WHERE id = ?`

	var role string
	err := a.db.QueryRowContext(ctx, query, callerID).Scan(&role)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		a.logger.Error("Failed to resolve role", zap.Int64("caller_id", callerID), zap.Error(err))
		return false, fmt.Errorf("failed to resolve role: %w", err)
	}

	return role == RoleAdmin, nil
}

// ConsultantIDFor returns the consultant identity of the caller, 0 when the
// caller is not a consultant
func (a *SQLAuthorizer) ConsultantIDFor(ctx context.Context, callerID int64) (int64, error) {
	query := `SELECT consultant_id FROM users WHERE id = ?`

	var consultantID sql.NullInt64
	err := a.db.QueryRowContext(ctx, query, callerID).Scan(&consultantID)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		a.logger.Error("Failed to resolve consultant identity", zap.Int64("caller_id", callerID), zap.Error(err))
		return 0, fmt.Errorf("failed to resolve consultant identity: %w", err)
	}

	if !consultantID.Valid {
		return 0, nil
	}
	return consultantID.Int64, nil
}

// Verify interface compliance
var _ port.Authorizer = (*SQLAuthorizer)(nil)
