package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consultia/expense-portal/internal/domain/entity"
)

type claimTestEnv struct {
	claimRepo      *MockClaimRepository
	attachmentRepo *MockAttachmentRepository
	assignmentRepo *MockAssignmentRepository
	capRepo        *MockCapRepository
	quoteRepo      *MockQuoteRepository
	auditRepo      *MockAuditRepository
	storage        *MockFileStorage
	service        ClaimService
}

func newClaimTestEnv(t *testing.T) *claimTestEnv {
	t.Helper()

	env := &claimTestEnv{
		claimRepo:      NewMockClaimRepository(),
		attachmentRepo: NewMockAttachmentRepository(),
		assignmentRepo: NewMockAssignmentRepository(),
		capRepo:        NewMockCapRepository(),
		quoteRepo:      NewMockQuoteRepository(),
		auditRepo:      NewMockAuditRepository(),
		storage:        NewMockFileStorage(),
	}

	auditService := NewAuditService(env.auditRepo, testLogger{})
	capService := NewCapService(env.capRepo, env.quoteRepo, auditService, testLogger{})
	env.service = NewClaimService(
		env.claimRepo,
		env.attachmentRepo,
		env.assignmentRepo,
		capService,
		env.storage,
		auditService,
		testLogger{},
	)

	require.NoError(t, env.assignmentRepo.Create(context.Background(), &entity.Assignment{
		ID:           1,
		ConsultantID: 10,
		Origin:       "MAD",
		Destination:  "BER",
		Status:       entity.AssignmentStatusConfirmed,
	}))

	return env
}

func (env *claimTestEnv) setCap(t *testing.T, assignmentID int64, price float64) {
	t.Helper()
	require.NoError(t, env.capRepo.Create(context.Background(), &entity.PriceCap{
		AssignmentID:     assignmentID,
		SearchID:         1,
		MaxApprovedPrice: price,
		Currency:         "EUR",
		SetAt:            time.Now(),
	}))
}

func consultantAccess(callerID, consultantID int64) Access {
	return Access{CallerID: callerID, ConsultantID: consultantID}
}

func adminAccess(callerID int64) Access {
	return Access{CallerID: callerID, Admin: true}
}

func receipt(name string, size int) entity.UploadFile {
	return entity.UploadFile{
		Name:     name,
		MimeType: "application/pdf",
		Content:  bytes.Repeat([]byte{0x25}, size),
	}
}

func TestSubmitClampsAgainstActiveCap(t *testing.T) {
	env := newClaimTestEnv(t)
	env.setCap(t, 1, 950)

	result, err := env.service.Submit(context.Background(), consultantAccess(100, 10), SubmitRequest{
		AssignmentID: 1,
		Amount:       1200,
		Currency:     "EUR",
		Files:        []entity.UploadFile{receipt("hotel.pdf", 1024)},
	})
	require.NoError(t, err)

	assert.True(t, result.Capped)
	require.NotNil(t, result.Claim.ApprovedAmount)
	assert.Equal(t, 950.0, *result.Claim.ApprovedAmount)
	assert.Equal(t, 1200.0, result.Claim.SubmittedAmount)
	assert.Equal(t, entity.ClaimStatusPending, result.Claim.Status)
	require.NotNil(t, result.Cap)
	assert.Equal(t, 950.0, result.Cap.MaxApprovedPrice)
}

func TestSubmitUnderCapIsNotClamped(t *testing.T) {
	env := newClaimTestEnv(t)
	env.setCap(t, 1, 950)

	result, err := env.service.Submit(context.Background(), consultantAccess(100, 10), SubmitRequest{
		AssignmentID: 1,
		Amount:       800,
		Currency:     "EUR",
		Files:        []entity.UploadFile{receipt("flight.pdf", 2048)},
	})
	require.NoError(t, err)

	assert.False(t, result.Capped)
	require.NotNil(t, result.Claim.ApprovedAmount)
	assert.Equal(t, 800.0, *result.Claim.ApprovedAmount)
}

func TestSubmitWithoutCapKeepsSubmittedAmount(t *testing.T) {
	env := newClaimTestEnv(t)

	result, err := env.service.Submit(context.Background(), consultantAccess(100, 10), SubmitRequest{
		AssignmentID: 1,
		Amount:       1200,
		Currency:     "EUR",
		Files:        []entity.UploadFile{receipt("taxi.pdf", 512)},
	})
	require.NoError(t, err)

	assert.False(t, result.Capped)
	assert.Nil(t, result.Cap)
	require.NotNil(t, result.Claim.ApprovedAmount)
	assert.Equal(t, 1200.0, *result.Claim.ApprovedAmount)
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name    string
		access  Access
		req     SubmitRequest
		wantErr error
	}{
		{
			name:    "zero amount",
			access:  consultantAccess(100, 10),
			req:     SubmitRequest{AssignmentID: 1, Amount: 0, Files: []entity.UploadFile{receipt("a.pdf", 10)}},
			wantErr: entity.ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			access:  consultantAccess(100, 10),
			req:     SubmitRequest{AssignmentID: 1, Amount: -50, Files: []entity.UploadFile{receipt("a.pdf", 10)}},
			wantErr: entity.ErrInvalidAmount,
		},
		{
			name:    "no files",
			access:  consultantAccess(100, 10),
			req:     SubmitRequest{AssignmentID: 1, Amount: 100},
			wantErr: entity.ErrNoAttachments,
		},
		{
			name:    "caller without consultant identity",
			access:  adminAccess(1),
			req:     SubmitRequest{AssignmentID: 1, Amount: 100, Files: []entity.UploadFile{receipt("a.pdf", 10)}},
			wantErr: entity.ErrForbidden,
		},
		{
			name:    "unknown assignment",
			access:  consultantAccess(100, 10),
			req:     SubmitRequest{AssignmentID: 999, Amount: 100, Files: []entity.UploadFile{receipt("a.pdf", 10)}},
			wantErr: entity.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newClaimTestEnv(t)
			_, err := env.service.Submit(context.Background(), tt.access, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSubmitRejectsWhenEveryFileOversized(t *testing.T) {
	env := newClaimTestEnv(t)

	big := entity.UploadFile{
		Name:     "scan.pdf",
		MimeType: "application/pdf",
		Content:  make([]byte, entity.MaxAttachmentSize+1),
	}

	_, err := env.service.Submit(context.Background(), consultantAccess(100, 10), SubmitRequest{
		AssignmentID: 1,
		Amount:       100,
		Currency:     "EUR",
		Files:        []entity.UploadFile{big},
	})
	assert.ErrorIs(t, err, entity.ErrNoAttachments)

	claims, err := env.claimRepo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, claims, "no claim should be created when no usable receipt exists")
}

func TestSubmitSkipsOversizedFileKeepsRest(t *testing.T) {
	env := newClaimTestEnv(t)

	big := entity.UploadFile{
		Name:     "huge.pdf",
		MimeType: "application/pdf",
		Content:  make([]byte, entity.MaxAttachmentSize+1),
	}

	result, err := env.service.Submit(context.Background(), consultantAccess(100, 10), SubmitRequest{
		AssignmentID: 1,
		Amount:       100,
		Currency:     "EUR",
		Files:        []entity.UploadFile{receipt("ok.pdf", 100), big},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.UploadedCount)
	assert.Equal(t, 2, result.TotalCount)
	require.Len(t, result.Claim.Attachments, 1)
	assert.Equal(t, "ok.pdf", result.Claim.Attachments[0].FileName)
}

func TestSubmitSurvivesPartialStorageFailure(t *testing.T) {
	env := newClaimTestEnv(t)
	env.storage.failNames["bad.pdf"] = true

	result, err := env.service.Submit(context.Background(), consultantAccess(100, 10), SubmitRequest{
		AssignmentID: 1,
		Amount:       300,
		Currency:     "EUR",
		Files: []entity.UploadFile{
			receipt("a.pdf", 100),
			receipt("bad.pdf", 100),
			receipt("c.pdf", 100),
		},
	})
	require.NoError(t, err, "storage failure must not fail the claim")

	assert.Equal(t, 2, result.UploadedCount)
	assert.Equal(t, 3, result.TotalCount)

	atts, err := env.attachmentRepo.GetByClaimID(context.Background(), result.Claim.ID)
	require.NoError(t, err)
	assert.Len(t, atts, 2)
}

func TestSubmitCleansUpOrphanedFileOnRecordFailure(t *testing.T) {
	env := newClaimTestEnv(t)
	env.attachmentRepo.createError = assert.AnError

	result, err := env.service.Submit(context.Background(), consultantAccess(100, 10), SubmitRequest{
		AssignmentID: 1,
		Amount:       300,
		Currency:     "EUR",
		Files:        []entity.UploadFile{receipt("a.pdf", 100)},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.UploadedCount)
	assert.Len(t, env.storage.deleteCalls, 1, "stored file should be removed when its record fails")
}

func TestSubmitAppendsAuditEntry(t *testing.T) {
	env := newClaimTestEnv(t)

	result, err := env.service.Submit(context.Background(), consultantAccess(100, 10), SubmitRequest{
		AssignmentID: 1,
		Amount:       100,
		Currency:     "EUR",
		Files:        []entity.UploadFile{receipt("a.pdf", 64)},
	})
	require.NoError(t, err)

	entries, err := env.auditRepo.GetByEntity(context.Background(), entity.AuditEntityClaim, result.Claim.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.AuditActionReimbursementSubmit, entries[0].Action)
	assert.Equal(t, int64(100), entries[0].ActorID)
	assert.Contains(t, entries[0].Detail, "submitted_amount")
}

func TestListForScopesToOwner(t *testing.T) {
	env := newClaimTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.assignmentRepo.Create(ctx, &entity.Assignment{
		ID: 2, ConsultantID: 20, Status: entity.AssignmentStatusConfirmed,
	}))

	_, err := env.service.Submit(ctx, consultantAccess(100, 10), SubmitRequest{
		AssignmentID: 1, Amount: 100, Currency: "EUR",
		Files: []entity.UploadFile{receipt("a.pdf", 10)},
	})
	require.NoError(t, err)
	_, err = env.service.Submit(ctx, consultantAccess(200, 20), SubmitRequest{
		AssignmentID: 2, Amount: 200, Currency: "EUR",
		Files: []entity.UploadFile{receipt("b.pdf", 10)},
	})
	require.NoError(t, err)

	// Owner sees only their own rows
	own, err := env.service.ListFor(ctx, consultantAccess(100, 10), 10)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, int64(10), own[0].ConsultantID)

	// A consultant cannot list another consultant's claims
	_, err = env.service.ListFor(ctx, consultantAccess(100, 10), 20)
	assert.ErrorIs(t, err, entity.ErrForbidden)

	// Admin may list anyone's
	other, err := env.service.ListFor(ctx, adminAccess(1), 20)
	require.NoError(t, err)
	assert.Len(t, other, 1)

	// Admin with no consultant filter sees everything
	all, err := env.service.ListFor(ctx, adminAccess(1), 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGetEnforcesOwnership(t *testing.T) {
	env := newClaimTestEnv(t)
	ctx := context.Background()

	result, err := env.service.Submit(ctx, consultantAccess(100, 10), SubmitRequest{
		AssignmentID: 1, Amount: 100, Currency: "EUR",
		Files: []entity.UploadFile{receipt("a.pdf", 10)},
	})
	require.NoError(t, err)

	claim, err := env.service.Get(ctx, consultantAccess(100, 10), result.Claim.ID)
	require.NoError(t, err)
	assert.Len(t, claim.Attachments, 1)

	_, err = env.service.Get(ctx, consultantAccess(200, 20), result.Claim.ID)
	assert.ErrorIs(t, err, entity.ErrForbidden)

	_, err = env.service.Get(ctx, adminAccess(1), result.Claim.ID)
	assert.NoError(t, err)

	_, err = env.service.Get(ctx, adminAccess(1), 999)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestDeleteAttachment(t *testing.T) {
	env := newClaimTestEnv(t)
	ctx := context.Background()

	result, err := env.service.Submit(ctx, consultantAccess(100, 10), SubmitRequest{
		AssignmentID: 1, Amount: 100, Currency: "EUR",
		Files: []entity.UploadFile{receipt("a.pdf", 10)},
	})
	require.NoError(t, err)
	require.Len(t, result.Claim.Attachments, 1)
	attID := result.Claim.Attachments[0].ID

	// Consultants may not delete, even their own
	err = env.service.DeleteAttachment(ctx, consultantAccess(100, 10), attID)
	assert.ErrorIs(t, err, entity.ErrForbidden)

	err = env.service.DeleteAttachment(ctx, adminAccess(1), attID)
	require.NoError(t, err)

	atts, err := env.attachmentRepo.GetByClaimID(ctx, result.Claim.ID)
	require.NoError(t, err)
	assert.Empty(t, atts)

	err = env.service.DeleteAttachment(ctx, adminAccess(1), attID)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}
