package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/consultia/expense-portal/internal/application/port"
	"github.com/consultia/expense-portal/internal/domain/entity"
	"github.com/consultia/expense-portal/internal/domain/workflow"
)

// testLogger discards output; tests assert on state, not logs
type testLogger struct{}

func (testLogger) Info(msg string, keysAndValues ...interface{})  {}
func (testLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (testLogger) Error(msg string, keysAndValues ...interface{}) {}

// MockAssignmentRepository for testing
type MockAssignmentRepository struct {
	mu          sync.RWMutex
	assignments map[int64]*entity.Assignment
}

func NewMockAssignmentRepository() *MockAssignmentRepository {
	return &MockAssignmentRepository{assignments: make(map[int64]*entity.Assignment)}
}

func (m *MockAssignmentRepository) Create(ctx context.Context, a *entity.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == 0 {
		a.ID = int64(len(m.assignments) + 1)
	}
	m.assignments[a.ID] = a
	return nil
}

func (m *MockAssignmentRepository) GetByID(ctx context.Context, id int64) (*entity.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.assignments[id], nil
}

func (m *MockAssignmentRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.assignments[id]; ok {
		a.Status = status
	}
	return nil
}

func (m *MockAssignmentRepository) ListByConsultant(ctx context.Context, consultantID int64) ([]*entity.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*entity.Assignment
	for _, a := range m.assignments {
		if a.ConsultantID == consultantID {
			out = append(out, a)
		}
	}
	return out, nil
}

// MockSearchRepository for testing
type MockSearchRepository struct {
	mu       sync.RWMutex
	searches map[int64]*entity.QuoteSearch
	nextID   int64
}

func NewMockSearchRepository() *MockSearchRepository {
	return &MockSearchRepository{searches: make(map[int64]*entity.QuoteSearch)}
}

func (m *MockSearchRepository) Create(ctx context.Context, s *entity.QuoteSearch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s.ID = m.nextID
	m.searches[s.ID] = s
	return nil
}

func (m *MockSearchRepository) GetByID(ctx context.Context, id int64) (*entity.QuoteSearch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.searches[id], nil
}

func (m *MockSearchRepository) GetLatestByAssignmentID(ctx context.Context, assignmentID int64) (*entity.QuoteSearch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *entity.QuoteSearch
	for _, s := range m.searches {
		if s.AssignmentID != assignmentID {
			continue
		}
		if latest == nil || s.ID > latest.ID {
			latest = s
		}
	}
	return latest, nil
}

// MockQuoteRepository for testing
type MockQuoteRepository struct {
	mu               sync.RWMutex
	quotes           []*entity.Quote
	nextID           int64
	createBatchError error
}

func NewMockQuoteRepository() *MockQuoteRepository {
	return &MockQuoteRepository{}
}

func (m *MockQuoteRepository) CreateBatch(ctx context.Context, quotes []*entity.Quote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createBatchError != nil {
		return m.createBatchError
	}
	for _, q := range quotes {
		m.nextID++
		q.ID = m.nextID
		m.quotes = append(m.quotes, q)
	}
	return nil
}

func (m *MockQuoteRepository) GetBySearchID(ctx context.Context, searchID int64, limit int) ([]*entity.Quote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*entity.Quote
	for _, q := range m.quotes {
		if q.SearchID == searchID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockQuoteRepository) MinPriceBySearchID(ctx context.Context, searchID int64) (float64, string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var min *entity.Quote
	for _, q := range m.quotes {
		if q.SearchID != searchID {
			continue
		}
		if min == nil || q.Price < min.Price {
			min = q
		}
	}
	if min == nil {
		return 0, "", false, nil
	}
	return min.Price, min.Currency, true, nil
}

// MockCapRepository for testing
type MockCapRepository struct {
	mu     sync.RWMutex
	caps   []*entity.PriceCap
	nextID int64
}

func NewMockCapRepository() *MockCapRepository {
	return &MockCapRepository{}
}

func (m *MockCapRepository) Create(ctx context.Context, cap *entity.PriceCap) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	cap.ID = m.nextID
	m.caps = append(m.caps, cap)
	return nil
}

func (m *MockCapRepository) GetActiveByAssignmentID(ctx context.Context, assignmentID int64) (*entity.PriceCap, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var active *entity.PriceCap
	for _, c := range m.caps {
		if c.AssignmentID != assignmentID {
			continue
		}
		if active == nil || c.SetAt.After(active.SetAt) || (c.SetAt.Equal(active.SetAt) && c.ID > active.ID) {
			active = c
		}
	}
	return active, nil
}

func (m *MockCapRepository) ListByAssignmentID(ctx context.Context, assignmentID int64) ([]*entity.PriceCap, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*entity.PriceCap
	for _, c := range m.caps {
		if c.AssignmentID == assignmentID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// MockClaimRepository for testing. TransitionStatus applies the same
// compare-and-set contract as the real repository.
type MockClaimRepository struct {
	mu              sync.RWMutex
	claims          map[int64]*entity.Claim
	nextID          int64
	createError     error
	transitionCalls int
}

func NewMockClaimRepository() *MockClaimRepository {
	return &MockClaimRepository{claims: make(map[int64]*entity.Claim)}
}

func (m *MockClaimRepository) Create(ctx context.Context, claim *entity.Claim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createError != nil {
		return m.createError
	}
	m.nextID++
	claim.ID = m.nextID
	copied := *claim
	m.claims[claim.ID] = &copied
	return nil
}

func (m *MockClaimRepository) GetByID(ctx context.Context, id int64) (*entity.Claim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.claims[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (m *MockClaimRepository) ListByConsultant(ctx context.Context, consultantID int64) ([]*entity.Claim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*entity.Claim
	for _, c := range m.claims {
		if c.ConsultantID == consultantID {
			copied := *c
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *MockClaimRepository) ListAll(ctx context.Context) ([]*entity.Claim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*entity.Claim
	for _, c := range m.claims {
		copied := *c
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *MockClaimRepository) TransitionStatus(ctx context.Context, id int64, fromStates []workflow.State, update port.ClaimReviewUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitionCalls++
	c, ok := m.claims[id]
	if !ok {
		return entity.ErrStateConflict
	}
	matched := false
	for _, s := range fromStates {
		if workflow.State(c.Status) == s {
			matched = true
			break
		}
	}
	if !matched {
		return entity.ErrStateConflict
	}
	c.Status = entity.ClaimStatus(update.Status)
	if update.ApprovedAmount != nil {
		c.ApprovedAmount = update.ApprovedAmount
	}
	if update.RejectionReason != nil {
		c.RejectionReason = *update.RejectionReason
	}
	if update.Notes != nil {
		c.Notes = *update.Notes
	}
	if update.ReviewerID != nil {
		c.ReviewerID = update.ReviewerID
	}
	return nil
}

// MockAttachmentRepository for testing
type MockAttachmentRepository struct {
	mu          sync.RWMutex
	attachments map[int64]*entity.Attachment
	nextID      int64
	createError error
	deleteCalls int
}

func NewMockAttachmentRepository() *MockAttachmentRepository {
	return &MockAttachmentRepository{attachments: make(map[int64]*entity.Attachment)}
}

func (m *MockAttachmentRepository) Create(ctx context.Context, att *entity.Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createError != nil {
		return m.createError
	}
	m.nextID++
	att.ID = m.nextID
	m.attachments[att.ID] = att
	return nil
}

func (m *MockAttachmentRepository) GetByID(ctx context.Context, id int64) (*entity.Attachment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.attachments[id], nil
}

func (m *MockAttachmentRepository) GetByClaimID(ctx context.Context, claimID int64) ([]*entity.Attachment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*entity.Attachment
	for _, a := range m.attachments {
		if a.ClaimID == claimID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockAttachmentRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++
	delete(m.attachments, id)
	return nil
}

// MockAuditRepository for testing
type MockAuditRepository struct {
	mu          sync.RWMutex
	entries     []*entity.AuditEntry
	nextID      int64
	createError error
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) Create(ctx context.Context, entry *entity.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createError != nil {
		return m.createError
	}
	m.nextID++
	entry.ID = m.nextID
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockAuditRepository) GetByEntity(ctx context.Context, entityType string, entityID int64) ([]*entity.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*entity.AuditEntry
	for _, e := range m.entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockAuditRepository) ListRecent(ctx context.Context, limit int) ([]*entity.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*entity.AuditEntry, len(m.entries))
	copy(out, m.entries)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MockTransactionManager for testing. Snapshots the claim store before the
// callback and restores it on error, mirroring a real rollback.
type MockTransactionManager struct {
	claimRepo *MockClaimRepository
	commits   int
	rollbacks int
}

func NewMockTransactionManager(claimRepo *MockClaimRepository) *MockTransactionManager {
	return &MockTransactionManager{claimRepo: claimRepo}
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snapshot := make(map[int64]*entity.Claim)
	if m.claimRepo != nil {
		m.claimRepo.mu.Lock()
		for id, c := range m.claimRepo.claims {
			copied := *c
			snapshot[id] = &copied
		}
		m.claimRepo.mu.Unlock()
	}

	if err := fn(ctx); err != nil {
		if m.claimRepo != nil {
			m.claimRepo.mu.Lock()
			m.claimRepo.claims = snapshot
			m.claimRepo.mu.Unlock()
		}
		m.rollbacks++
		return err
	}

	m.commits++
	return nil
}

// MockFileStorage for testing
type MockFileStorage struct {
	mu          sync.RWMutex
	stored      map[string][]byte
	failNames   map[string]bool
	deleteCalls []string
}

func NewMockFileStorage() *MockFileStorage {
	return &MockFileStorage{
		stored:    make(map[string][]byte),
		failNames: make(map[string]bool),
	}
}

func (m *MockFileStorage) Store(ctx context.Context, name string, content []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNames[name] {
		return "", fmt.Errorf("storage backend unavailable for %s", name)
	}
	url := "mock://" + name
	m.stored[url] = content
	return url, nil
}

func (m *MockFileStorage) Delete(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls = append(m.deleteCalls, url)
	delete(m.stored, url)
	return nil
}

// MockQuoteSearcher for testing
type MockQuoteSearcher struct {
	results []port.QuoteResult
	err     error
	calls   int
}

func NewMockQuoteSearcher(results []port.QuoteResult) *MockQuoteSearcher {
	return &MockQuoteSearcher{results: results}
}

func (m *MockQuoteSearcher) Search(ctx context.Context, assignment *entity.Assignment, params port.SearchParams) ([]port.QuoteResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

// MockAuthorizer for testing
type MockAuthorizer struct {
	admins      map[int64]bool
	consultants map[int64]int64
}

func NewMockAuthorizer() *MockAuthorizer {
	return &MockAuthorizer{
		admins:      make(map[int64]bool),
		consultants: make(map[int64]int64),
	}
}

func (m *MockAuthorizer) IsAdmin(ctx context.Context, callerID int64) (bool, error) {
	return m.admins[callerID], nil
}

func (m *MockAuthorizer) ConsultantIDFor(ctx context.Context, callerID int64) (int64, error) {
	return m.consultants[callerID], nil
}
