package services

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/coachdesk/coachdesk-api/internal/feeledger"
	"github.com/coachdesk/coachdesk-api/internal/jobs"
	"github.com/coachdesk/coachdesk-api/internal/models"
	"github.com/coachdesk/coachdesk-api/internal/repository"
	"github.com/coachdesk/coachdesk-api/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Setup("test")
	os.Exit(m.Run())
}

// mockFeeRepo is an in-memory FeeRepository with the same compare-and-swap
// semantics on Version as the real implementation.
type mockFeeRepo struct {
	mu      sync.Mutex
	records map[uint]*models.FeeRecord
	nextID  uint
}

func newMockFeeRepo() *mockFeeRepo {
	return &mockFeeRepo{records: map[uint]*models.FeeRecord{}, nextID: 1}
}

func (m *mockFeeRepo) copyOf(r *models.FeeRecord) *models.FeeRecord {
	cp := *r
	cp.Submissions = append([]models.FeeSubmission(nil), r.Submissions...)
	return &cp
}

func (m *mockFeeRepo) FindByRollNo(ctx context.Context, rollNo uint) (*models.FeeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[rollNo]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.copyOf(r), nil
}

func (m *mockFeeRepo) FindByRollNoWithSubmissions(ctx context.Context, rollNo uint) (*models.FeeRecord, error) {
	return m.FindByRollNo(ctx, rollNo)
}

func (m *mockFeeRepo) CreateWithSubmission(ctx context.Context, record *models.FeeRecord, first *models.FeeSubmission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[record.RollNo]; exists {
		return gorm.ErrDuplicatedKey
	}
	record.ID = m.nextID
	m.nextID++
	record.Version = 1
	first.FeeRecordID = record.ID
	first.ID = m.nextID
	m.nextID++
	record.Submissions = append(record.Submissions, *first)
	m.records[record.RollNo] = m.copyOf(record)
	return nil
}

func (m *mockFeeRepo) AppendSubmission(ctx context.Context, record *models.FeeRecord, submission *models.FeeSubmission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.records[record.RollNo]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for _, sub := range stored.Submissions {
		if sub.ReceiptNumber == submission.ReceiptNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	previousVersion := record.Version
	record.Version++
	if stored.Version != previousVersion {
		return gorm.ErrRecordNotFound
	}
	submission.ID = m.nextID
	m.nextID++
	submission.FeeRecordID = stored.ID
	stored.PaidAmount = record.PaidAmount
	stored.Status = record.Status
	stored.Version = record.Version
	stored.Submissions = append(stored.Submissions, *submission)
	return nil
}

func (m *mockFeeRepo) Update(ctx context.Context, record *models.FeeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[record.RollNo]; !ok {
		return gorm.ErrRecordNotFound
	}
	record.Version++
	m.records[record.RollNo] = m.copyOf(record)
	return nil
}

func (m *mockFeeRepo) List(ctx context.Context, query *repository.ListQuery) ([]models.FeeRecord, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.FeeRecord
	for _, r := range m.records {
		out = append(out, *m.copyOf(r))
	}
	return out, int64(len(out)), nil
}

func (m *mockFeeRepo) FindOverdue(ctx context.Context) ([]models.FeeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.FeeRecord
	for _, r := range m.records {
		if r.IsOverdue() {
			out = append(out, *m.copyOf(r))
		}
	}
	return out, nil
}

func (m *mockFeeRepo) FindSubmissionByReceipt(ctx context.Context, receiptNumber string) (*models.FeeSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		for _, sub := range r.Submissions {
			if sub.ReceiptNumber == receiptNumber {
				cp := sub
				return &cp, nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFeeRepo) GetSummary(ctx context.Context) (*repository.FeeSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	summary := &repository.FeeSummary{}
	for _, r := range m.records {
		summary.TotalCollected += r.PaidAmount
		summary.TotalPending += r.PendingAmount()
		switch r.DerivedStatus() {
		case feeledger.StatusPaid:
			summary.PaidCount++
		case feeledger.StatusPartial:
			summary.PartialCount++
		default:
			summary.UnpaidCount++
		}
	}
	return summary, nil
}

// stored returns the canonical record, bypassing the copy, for assertions
func (m *mockFeeRepo) stored(rollNo uint) *models.FeeRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[rollNo]
}

type mockStudentRepo struct {
	students map[uint]*models.Student
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id uint) (*models.Student, error) {
	for _, s := range m.students {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) FindByRollNo(ctx context.Context, rollNo uint) (*models.Student, error) {
	s, ok := m.students[rollNo]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (m *mockStudentRepo) FindByBatch(ctx context.Context, batchID uint) ([]models.Student, error) {
	return nil, nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error { return nil }
func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error { return nil }
func (m *mockStudentRepo) SoftDelete(ctx context.Context, id uint) error             { return nil }

func (m *mockStudentRepo) List(ctx context.Context, query *repository.ListQuery) ([]models.Student, int64, error) {
	return nil, 0, nil
}

func (m *mockStudentRepo) NextRollNo(ctx context.Context) (uint, error) { return 1, nil }

type mockNotificationRepo struct {
	mu            sync.Mutex
	notifications []models.Notification
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, *n)
	return nil
}

func (m *mockNotificationRepo) FindByID(ctx context.Context, id uint) (*models.Notification, error) {
	return nil, gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) FindByUser(ctx context.Context, userID uint, query *repository.ListQuery) ([]models.Notification, int64, error) {
	return nil, 0, nil
}

func (m *mockNotificationRepo) MarkAsRead(ctx context.Context, id uint) error          { return nil }
func (m *mockNotificationRepo) MarkAllAsRead(ctx context.Context, userID uint) error   { return nil }
func (m *mockNotificationRepo) Delete(ctx context.Context, id uint) error              { return nil }

type mockUserRepo struct{}

func (m *mockUserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error { return nil }
func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error { return nil }
func (m *mockUserRepo) SoftDelete(ctx context.Context, id uint) error       { return nil }

func (m *mockUserRepo) List(ctx context.Context, query *repository.ListQuery) ([]models.User, int64, error) {
	return nil, 0, nil
}

func (m *mockUserRepo) FindAdmins(ctx context.Context) ([]models.User, error) {
	return []models.User{{ID: 1, Role: models.RoleAdmin, Active: true}}, nil
}

func (m *mockUserRepo) TouchLastSignIn(ctx context.Context, id uint) error { return nil }

type mockAuditRepo struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (m *mockAuditRepo) Create(ctx context.Context, entry *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockAuditRepo) List(ctx context.Context, query *repository.ListQuery) ([]models.AuditLog, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries, int64(len(m.entries)), nil
}

type feeTestEnv struct {
	svc      *FeeService
	feeRepo  *mockFeeRepo
	students *mockStudentRepo
	worker   *jobs.Worker
}

func newFeeTestEnv(t *testing.T) *feeTestEnv {
	t.Helper()
	feeRepo := newMockFeeRepo()
	students := &mockStudentRepo{students: map[uint]*models.Student{
		101: {ID: 1, RollNo: 101, Name: "Aarav Sharma"},
		102: {ID: 2, RollNo: 102, Name: "Diya Patel"},
	}}
	worker := jobs.NewWorker(1)
	t.Cleanup(worker.Shutdown)

	notificationSvc := NewNotificationService(&mockNotificationRepo{}, &mockUserRepo{})
	emailSvc := NewEmailService("", "noreply@test.local")
	auditSvc := NewAuditService(&mockAuditRepo{}, worker)

	svc := NewFeeService(feeRepo, students, notificationSvc, emailSvc, auditSvc, worker)
	return &feeTestEnv{svc: svc, feeRepo: feeRepo, students: students, worker: worker}
}

func accountant() Actor {
	return Actor{UserID: 7, Name: "Meena Iyer", Role: models.RoleAccountant}
}

func admin() Actor {
	return Actor{UserID: 1, Name: "Rohit Verma", Role: models.RoleAdmin}
}

func installment(amount float64, receipt string) InstallmentInput {
	return InstallmentInput{
		Amount:        amount,
		Mode:          feeledger.ModeCash,
		DateOfReceipt: time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
		ReceiptNumber: receipt,
	}
}

func createRecord(t *testing.T, env *feeTestEnv, rollNo uint, total, discount, first float64) *models.FeeRecord {
	t.Helper()
	record, err := env.svc.Create(context.Background(), CreateFeeInput{
		RollNo:           rollNo,
		TotalFees:        total,
		Discount:         discount,
		ApprovedBy:       "Rohit Verma",
		DueDate:          time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		FirstInstallment: installment(first, "RCPT-001"),
	}, accountant())
	require.NoError(t, err)
	return record
}

func TestCreateFeeRecord(t *testing.T) {
	env := newFeeTestEnv(t)

	record := createRecord(t, env, 101, 12000, 2000, 4000)

	assert.Equal(t, 10000.0, record.FinalFees)
	assert.Equal(t, 4000.0, record.PaidAmount)
	assert.Equal(t, 6000.0, record.PendingAmount())
	assert.Equal(t, feeledger.StatusPartial, record.DerivedStatus())
	assert.Len(t, record.Submissions, 1)
	assert.Equal(t, uint(1), record.Version)
}

func TestCreateFeeRecordSettledImmediately(t *testing.T) {
	env := newFeeTestEnv(t)

	record := createRecord(t, env, 101, 5000, 0, 5000)

	assert.Equal(t, feeledger.StatusPaid, record.DerivedStatus())
	assert.Equal(t, 0.0, record.PendingAmount())
}

func TestCreateFeeRecordValidation(t *testing.T) {
	env := newFeeTestEnv(t)
	ctx := context.Background()

	t.Run("first installment above final fees", func(t *testing.T) {
		_, err := env.svc.Create(ctx, CreateFeeInput{
			RollNo:           101,
			TotalFees:        1000,
			Discount:         0,
			FirstInstallment: installment(1500, "RCPT-X1"),
		}, accountant())
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("discount above total", func(t *testing.T) {
		_, err := env.svc.Create(ctx, CreateFeeInput{
			RollNo:           101,
			TotalFees:        1000,
			Discount:         1200,
			FirstInstallment: installment(100, "RCPT-X2"),
		}, accountant())
		assert.ErrorIs(t, err, ErrInvalidDiscount)
	})

	t.Run("unknown student", func(t *testing.T) {
		_, err := env.svc.Create(ctx, CreateFeeInput{
			RollNo:           999,
			TotalFees:        1000,
			FirstInstallment: installment(100, "RCPT-X3"),
		}, accountant())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("teacher cannot collect", func(t *testing.T) {
		_, err := env.svc.Create(ctx, CreateFeeInput{
			RollNo:           101,
			TotalFees:        1000,
			FirstInstallment: installment(100, "RCPT-X4"),
		}, Actor{UserID: 3, Role: models.RoleTeacher})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestCreateFeeRecordDuplicate(t *testing.T) {
	env := newFeeTestEnv(t)
	createRecord(t, env, 101, 1000, 0, 100)

	_, err := env.svc.Create(context.Background(), CreateFeeInput{
		RollNo:           101,
		TotalFees:        2000,
		FirstInstallment: installment(100, "RCPT-002"),
	}, accountant())
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestRecordInstallmentOverpaymentRejected(t *testing.T) {
	env := newFeeTestEnv(t)
	createRecord(t, env, 101, 1000, 0, 800)
	ctx := context.Background()

	// 300 against a pending balance of 200 must fail loudly, never clip
	_, err := env.svc.RecordInstallment(ctx, 101, installment(300, "RCPT-010"), 0, accountant())
	assert.ErrorIs(t, err, ErrOverpayment)

	stored := env.feeRepo.stored(101)
	assert.Equal(t, 800.0, stored.PaidAmount)
	assert.Len(t, stored.Submissions, 1)
	assert.Equal(t, uint(1), stored.Version)

	// The exact pending amount settles the record
	record, err := env.svc.RecordInstallment(ctx, 101, installment(200, "RCPT-011"), 0, accountant())
	require.NoError(t, err)
	assert.Equal(t, feeledger.StatusPaid, record.DerivedStatus())
	assert.Equal(t, 0.0, record.PendingAmount())
}

func TestRecordInstallmentAfterSettlement(t *testing.T) {
	env := newFeeTestEnv(t)
	createRecord(t, env, 101, 1000, 0, 1000)

	_, err := env.svc.RecordInstallment(context.Background(), 101, installment(50, "RCPT-020"), 0, accountant())
	assert.ErrorIs(t, err, ErrOverpayment)
}

func TestRecordInstallmentNotIdempotent(t *testing.T) {
	env := newFeeTestEnv(t)
	createRecord(t, env, 101, 1000, 0, 100)
	ctx := context.Background()

	// A replay with a fresh receipt number records a second payment
	_, err := env.svc.RecordInstallment(ctx, 101, installment(200, "RCPT-030"), 0, accountant())
	require.NoError(t, err)
	record, err := env.svc.RecordInstallment(ctx, 101, installment(200, "RCPT-031"), 0, accountant())
	require.NoError(t, err)
	assert.Equal(t, 500.0, record.PaidAmount)
	assert.Len(t, record.Submissions, 3)

	// Reusing the receipt number is the retry guard
	_, err = env.svc.RecordInstallment(ctx, 101, installment(200, "RCPT-031"), 0, accountant())
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestRecordInstallmentVersionConflict(t *testing.T) {
	env := newFeeTestEnv(t)
	createRecord(t, env, 101, 1000, 0, 100)
	ctx := context.Background()

	_, err := env.svc.RecordInstallment(ctx, 101, installment(100, "RCPT-040"), 1, accountant())
	require.NoError(t, err)

	// Version 1 was consumed by the write above
	_, err = env.svc.RecordInstallment(ctx, 101, installment(100, "RCPT-041"), 1, accountant())
	assert.ErrorIs(t, err, ErrConflict)

	_, err = env.svc.RecordInstallment(ctx, 101, installment(100, "RCPT-041"), 2, accountant())
	assert.NoError(t, err)
}

func TestRecordInstallmentStatusProgression(t *testing.T) {
	env := newFeeTestEnv(t)
	createRecord(t, env, 101, 1000, 0, 250)
	ctx := context.Background()

	record, err := env.svc.RecordInstallment(ctx, 101, installment(250, "RCPT-050"), 0, accountant())
	require.NoError(t, err)
	assert.Equal(t, feeledger.StatusPartial, record.DerivedStatus())

	record, err = env.svc.RecordInstallment(ctx, 101, installment(500, "RCPT-051"), 0, accountant())
	require.NoError(t, err)
	assert.Equal(t, feeledger.StatusPaid, record.DerivedStatus())
}

func TestRecordInstallmentConcurrent(t *testing.T) {
	env := newFeeTestEnv(t)
	createRecord(t, env, 102, 1000, 0, 0.01)
	ctx := context.Background()

	// Two concurrent 600s against ~1000 pending: exactly one may land
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			receipt := "RCPT-C" + string(rune('0'+i))
			_, errs[i] = env.svc.RecordInstallment(ctx, 102, installment(600, receipt), 0, accountant())
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrOverpayment)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 600.01, env.feeRepo.stored(102).PaidAmount)
}

func TestUpdateFees(t *testing.T) {
	env := newFeeTestEnv(t)
	createRecord(t, env, 101, 1000, 0, 400)
	ctx := context.Background()

	t.Run("accountant cannot revise", func(t *testing.T) {
		_, err := env.svc.UpdateFees(ctx, 101, 2000, 0, accountant())
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("final below collected rejected", func(t *testing.T) {
		_, err := env.svc.UpdateFees(ctx, 101, 300, 0, admin())
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("revision recomputes status", func(t *testing.T) {
		record, err := env.svc.UpdateFees(ctx, 101, 400, 0, admin())
		require.NoError(t, err)
		assert.Equal(t, feeledger.StatusPaid, record.DerivedStatus())
		assert.Equal(t, 0.0, record.PendingAmount())
	})

	t.Run("raising fees reopens a settled record", func(t *testing.T) {
		record, err := env.svc.UpdateFees(ctx, 101, 1000, 0, admin())
		require.NoError(t, err)
		assert.Equal(t, feeledger.StatusPartial, record.DerivedStatus())
		assert.Equal(t, 600.0, record.PendingAmount())
	})
}

func TestFindByRollNo(t *testing.T) {
	env := newFeeTestEnv(t)
	createRecord(t, env, 101, 1000, 0, 100)

	record, err := env.svc.FindByRollNo(context.Background(), 101)
	require.NoError(t, err)
	assert.Equal(t, uint(101), record.RollNo)

	_, err = env.svc.FindByRollNo(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSummary(t *testing.T) {
	env := newFeeTestEnv(t)
	createRecord(t, env, 101, 1000, 0, 1000)

	_, err := env.svc.Create(context.Background(), CreateFeeInput{
		RollNo:           102,
		TotalFees:        2000,
		FirstInstallment: installment(500, "RCPT-060"),
	}, accountant())
	require.NoError(t, err)

	summary, err := env.svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1500.0, summary.TotalCollected)
	assert.Equal(t, 1500.0, summary.TotalPending)
	assert.Equal(t, int64(1), summary.PaidCount)
	assert.Equal(t, int64(1), summary.PartialCount)
}

func TestRecordInstallmentUnknownRecord(t *testing.T) {
	env := newFeeTestEnv(t)

	_, err := env.svc.RecordInstallment(context.Background(), 999, installment(100, "RCPT-070"), 0, accountant())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordInstallmentInvalidInput(t *testing.T) {
	env := newFeeTestEnv(t)
	createRecord(t, env, 101, 1000, 0, 100)
	ctx := context.Background()

	_, err := env.svc.RecordInstallment(ctx, 101, installment(-50, "RCPT-080"), 0, accountant())
	assert.ErrorIs(t, err, ErrInvalidAmount)

	bad := installment(50, "RCPT-081")
	bad.Mode = "barter"
	_, err = env.svc.RecordInstallment(ctx, 101, bad, 0, accountant())
	assert.ErrorIs(t, err, ErrInvalidMode)

	// Failed validation must leave the ledger untouched
	assert.Equal(t, 100.0, env.feeRepo.stored(101).PaidAmount)
}
