package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consultia/expense-portal/internal/domain/entity"
)

type capTestEnv struct {
	capRepo   *MockCapRepository
	quoteRepo *MockQuoteRepository
	auditRepo *MockAuditRepository
	service   CapService
}

func newCapTestEnv(t *testing.T) *capTestEnv {
	t.Helper()
	env := &capTestEnv{
		capRepo:   NewMockCapRepository(),
		quoteRepo: NewMockQuoteRepository(),
		auditRepo: NewMockAuditRepository(),
	}
	auditService := NewAuditService(env.auditRepo, testLogger{})
	env.service = NewCapService(env.capRepo, env.quoteRepo, auditService, testLogger{})
	return env
}

func (env *capTestEnv) seedQuotes(t *testing.T, searchID int64, prices ...float64) {
	t.Helper()
	quotes := make([]*entity.Quote, 0, len(prices))
	for _, p := range prices {
		quotes = append(quotes, &entity.Quote{
			SearchID: searchID,
			Price:    p,
			Currency: "EUR",
			Provider: "TestAir",
		})
	}
	require.NoError(t, env.quoteRepo.CreateBatch(context.Background(), quotes))
}

func TestSetCapFromSearchUsesCheapestQuote(t *testing.T) {
	env := newCapTestEnv(t)
	env.seedQuotes(t, 1, 420.50, 380.00, 515.75)

	cap, err := env.service.SetCapFromSearch(context.Background(), adminAccess(1), 7, 1)
	require.NoError(t, err)

	assert.Equal(t, 380.00, cap.MaxApprovedPrice)
	assert.Equal(t, "EUR", cap.Currency)
	assert.Equal(t, int64(7), cap.AssignmentID)
	assert.Equal(t, int64(1), cap.SearchID)

	entries, err := env.auditRepo.GetByEntity(context.Background(), entity.AuditEntityCap, cap.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.AuditActionCapSet, entries[0].Action)
}

func TestSetCapFromEmptySearchFails(t *testing.T) {
	env := newCapTestEnv(t)

	_, err := env.service.SetCapFromSearch(context.Background(), adminAccess(1), 7, 1)
	assert.ErrorIs(t, err, entity.ErrNoQuotes)

	caps, listErr := env.capRepo.ListByAssignmentID(context.Background(), 7)
	require.NoError(t, listErr)
	assert.Empty(t, caps)
}

func TestSetCapRequiresAdmin(t *testing.T) {
	env := newCapTestEnv(t)
	env.seedQuotes(t, 1, 100)

	_, err := env.service.SetCapFromSearch(context.Background(), consultantAccess(100, 10), 7, 1)
	assert.ErrorIs(t, err, entity.ErrForbidden)
}

func TestEmptySearchLeavesPriorCapActive(t *testing.T) {
	env := newCapTestEnv(t)
	env.seedQuotes(t, 1, 250)

	first, err := env.service.SetCapFromSearch(context.Background(), adminAccess(1), 7, 1)
	require.NoError(t, err)

	_, err = env.service.SetCapFromSearch(context.Background(), adminAccess(1), 7, 2)
	assert.ErrorIs(t, err, entity.ErrNoQuotes)

	active, err := env.service.ActiveCapFor(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, first.ID, active.ID)
}

func TestCapHistoryAppends(t *testing.T) {
	env := newCapTestEnv(t)
	ctx := context.Background()

	env.seedQuotes(t, 1, 300)
	env.seedQuotes(t, 2, 280)

	_, err := env.service.SetCapFromSearch(ctx, adminAccess(1), 7, 1)
	require.NoError(t, err)

	second, err := env.service.SetCapFromSearch(ctx, adminAccess(1), 7, 2)
	require.NoError(t, err)

	active, err := env.service.ActiveCapFor(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, second.ID, active.ID)
	assert.Equal(t, 280.0, active.MaxApprovedPrice)

	history, err := env.service.History(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, history, 2, "cap rows append, never overwrite")
}

func TestActiveCapForUnknownAssignment(t *testing.T) {
	env := newCapTestEnv(t)
	cap, err := env.service.ActiveCapFor(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, cap)
}
