package service

import (
	"context"
	"fmt"

	"github.com/consultia/expense-portal/internal/application/port"
	"github.com/consultia/expense-portal/internal/domain/entity"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Access is the resolved authorization capability for one caller. Every
// service operation takes it instead of re-querying roles ad hoc.
type Access struct {
	CallerID     int64
	Admin        bool
	ConsultantID int64 // 0 when the caller is not a consultant
}

// CanActFor returns true if the caller may read or write rows owned by the
// given consultant.
func (a Access) CanActFor(consultantID int64) bool {
	return a.Admin || (a.ConsultantID != 0 && a.ConsultantID == consultantID)
}

// AccessResolver builds Access values from caller identities
type AccessResolver struct {
	authorizer port.Authorizer
}

// NewAccessResolver creates a new AccessResolver
func NewAccessResolver(authorizer port.Authorizer) *AccessResolver {
	return &AccessResolver{authorizer: authorizer}
}

// Resolve looks up the caller's role set and consultant identity
func (r *AccessResolver) Resolve(ctx context.Context, callerID int64) (Access, error) {
	admin, err := r.authorizer.IsAdmin(ctx, callerID)
	if err != nil {
		return Access{}, fmt.Errorf("resolve admin role: %w", err)
	}

	consultantID, err := r.authorizer.ConsultantIDFor(ctx, callerID)
	if err != nil {
		return Access{}, fmt.Errorf("resolve consultant identity: %w", err)
	}

	if !admin && consultantID == 0 {
		return Access{}, entity.ErrForbidden
	}

	return Access{
		CallerID:     callerID,
		Admin:        admin,
		ConsultantID: consultantID,
	}, nil
}
