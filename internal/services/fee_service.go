package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/coachdesk/coachdesk-api/internal/feeledger"
	"github.com/coachdesk/coachdesk-api/internal/jobs"
	"github.com/coachdesk/coachdesk-api/internal/models"
	"github.com/coachdesk/coachdesk-api/internal/repository"
	"github.com/coachdesk/coachdesk-api/internal/statemachine"
	"github.com/coachdesk/coachdesk-api/pkg/logger"
)

var validate = validator.New()

// Actor identifies the staff member performing an operation. Role comes in
// explicitly with every call instead of being read from ambient state, so
// gating is testable.
type Actor struct {
	UserID    uint
	Name      string
	Role      string
	IP        string
	UserAgent string
}

// CanCollectFees reports whether the actor may record payments
func (a Actor) CanCollectFees() bool {
	return a.Role == models.RoleAdmin || a.Role == models.RoleAccountant
}

// InstallmentInput is one validated payment to record
type InstallmentInput struct {
	Amount        float64   `validate:"required"`
	Mode          string    `validate:"required"`
	DateOfReceipt time.Time `validate:"required"`
	ReceiptNumber string    `validate:"required"`
	UTR           *string
}

// CreateFeeInput creates a fee record together with its mandatory first
// installment.
type CreateFeeInput struct {
	RollNo           uint `validate:"required"`
	TotalFees        float64
	Discount         float64
	ApprovedBy       string
	DueDate          time.Time
	FirstInstallment InstallmentInput `validate:"required"`
}

// FeeService owns the fee ledger: all fee record mutations and derivations
// go through here.
type FeeService struct {
	repo            repository.FeeRepository
	studentRepo     repository.StudentRepository
	notificationSvc *NotificationService
	emailSvc        *EmailService
	auditSvc        *AuditService
	worker          *jobs.Worker

	// Per-roll-number locks serialize read-modify-write on a record so two
	// concurrent installments cannot both pass the overpayment check against
	// the same stale pending balance.
	mu        sync.Mutex
	rollLocks map[uint]*sync.Mutex
}

// NewFeeService creates a new fee service
func NewFeeService(
	repo repository.FeeRepository,
	studentRepo repository.StudentRepository,
	notificationSvc *NotificationService,
	emailSvc *EmailService,
	auditSvc *AuditService,
	worker *jobs.Worker,
) *FeeService {
	return &FeeService{
		repo:            repo,
		studentRepo:     studentRepo,
		notificationSvc: notificationSvc,
		emailSvc:        emailSvc,
		auditSvc:        auditSvc,
		worker:          worker,
		rollLocks:       make(map[uint]*sync.Mutex),
	}
}

func (s *FeeService) lockRoll(rollNo uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rollLocks[rollNo]
	if !ok {
		m = &sync.Mutex{}
		s.rollLocks[rollNo] = m
	}
	return m
}

// validateInstallmentInput checks the locally-detectable parts of an
// installment before any persistence call is attempted.
func validateInstallmentInput(in InstallmentInput) error {
	if in.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !feeledger.ValidMode(in.Mode) {
		return ErrInvalidMode
	}
	if in.ReceiptNumber == "" {
		return fmt.Errorf("%w: receipt number is required", ErrInvalidAmount)
	}
	return nil
}

// Create opens the fee ledger for a student: one record per roll number,
// created atomically with its first installment. All domain validation
// happens before the persistence call.
func (s *FeeService) Create(ctx context.Context, in CreateFeeInput, actor Actor) (*models.FeeRecord, error) {
	if !actor.CanCollectFees() {
		return nil, ErrUnauthorized
	}
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	finalFees, err := feeledger.ComputeFinalFees(in.TotalFees, in.Discount)
	if err != nil {
		return nil, err
	}

	first := in.FirstInstallment
	if err := validateInstallmentInput(first); err != nil {
		return nil, err
	}
	// The first installment is bounded by the final fees; exceeding them is
	// an invalid amount at creation time, not an overpayment on an existing
	// balance.
	if first.Amount > finalFees {
		return nil, ErrInvalidAmount
	}

	student, err := s.studentRepo.FindByRollNo(ctx, in.RollNo)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: no student with roll number %d", ErrNotFound, in.RollNo)
		}
		return nil, err
	}

	if _, err := s.repo.FindByRollNo(ctx, in.RollNo); err == nil {
		return nil, ErrDuplicate
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	paid := feeledger.Round2(first.Amount)
	record := &models.FeeRecord{
		RollNo:     in.RollNo,
		TotalFees:  feeledger.Round2(in.TotalFees),
		Discount:   feeledger.Round2(in.Discount),
		FinalFees:  finalFees,
		PaidAmount: paid,
		Status:     string(feeledger.DeriveStatus(finalFees, paid)),
		DueDate:    in.DueDate,
		ApprovedBy: in.ApprovedBy,
	}
	submission := &models.FeeSubmission{
		Amount:        paid,
		Mode:          feeledger.NormalizeMode(first.Mode),
		DateOfReceipt: first.DateOfReceipt,
		ReceiptNumber: first.ReceiptNumber,
		UTR:           first.UTR,
		RecordedBy:    actor.Name,
	}

	if err := s.repo.CreateWithSubmission(ctx, record, submission); err != nil {
		// The unique index on roll_no is the authoritative guard; the
		// pre-read above only avoids the round-trip in the common case.
		if repository.IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	record.Student = *student

	s.auditSvc.Log(ctx, actor.UserID, "CREATE", "FeeRecord", record.ID,
		fmt.Sprintf("Fee record opened for roll no %d, final fees %.2f, first installment %.2f", record.RollNo, record.FinalFees, paid),
		actor.IP, actor.UserAgent)

	s.afterCollection(record, submission, student)

	return record, nil
}

// RecordInstallment appends a payment to an existing fee record. Not
// idempotent: replaying the same installment records it twice; callers that
// need retry-safety must de-duplicate on receipt number, which the unique
// index enforces. expectedVersion, when non-zero, is compared against the
// record's current version and a mismatch fails with ErrConflict.
func (s *FeeService) RecordInstallment(ctx context.Context, rollNo uint, in InstallmentInput, expectedVersion uint, actor Actor) (*models.FeeRecord, error) {
	if !actor.CanCollectFees() {
		return nil, ErrUnauthorized
	}
	if err := validateInstallmentInput(in); err != nil {
		return nil, err
	}

	lock := s.lockRoll(rollNo)
	lock.Lock()
	defer lock.Unlock()

	record, err := s.repo.FindByRollNoWithSubmissions(ctx, rollNo)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if expectedVersion != 0 && expectedVersion != record.Version {
		return nil, ErrConflict
	}

	pending := record.PendingAmount()
	if err := feeledger.ValidateInstallment(in.Amount, pending); err != nil {
		return nil, err
	}

	amount := feeledger.Round2(in.Amount)
	nextPaid := feeledger.Round2(record.PaidAmount + amount)
	nextStatus := feeledger.DeriveStatus(record.FinalFees, nextPaid)

	fsm := statemachine.NewFeeStatusFSM(record.DerivedStatus())
	if err := fsm.Advance(ctx, nextStatus); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	submission := &models.FeeSubmission{
		Amount:        amount,
		Mode:          feeledger.NormalizeMode(in.Mode),
		DateOfReceipt: in.DateOfReceipt,
		ReceiptNumber: in.ReceiptNumber,
		UTR:           in.UTR,
		RecordedBy:    actor.Name,
	}

	record.PaidAmount = nextPaid
	record.Status = string(nextStatus)

	if err := s.repo.AppendSubmission(ctx, record, submission); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: receipt number %s already recorded", ErrDuplicate, in.ReceiptNumber)
		}
		if err == gorm.ErrRecordNotFound {
			return nil, ErrConflict
		}
		return nil, err
	}
	record.Submissions = append(record.Submissions, *submission)

	s.auditSvc.Log(ctx, actor.UserID, "COLLECT", "FeeRecord", record.ID,
		fmt.Sprintf("Installment of %.2f (receipt %s) for roll no %d, pending %.2f", amount, in.ReceiptNumber, rollNo, record.PendingAmount()),
		actor.IP, actor.UserAgent)

	s.afterCollection(record, submission, &record.Student)

	return record, nil
}

// afterCollection fans out receipt email and settlement notification without
// holding up the request.
func (s *FeeService) afterCollection(record *models.FeeRecord, submission *models.FeeSubmission, student *models.Student) {
	settled := record.DerivedStatus() == feeledger.StatusPaid
	s.worker.EnqueueAsync(func(ctx context.Context) error {
		if settled {
			if err := s.notificationSvc.NotifyAdmins(ctx,
				"Fees settled",
				fmt.Sprintf("Roll no %d has paid fees in full", record.RollNo),
				models.NotificationTypeFeeSettled); err != nil {
				return err
			}
		}
		return s.emailSvc.SendReceiptConfirmation(ctx, student, record, submission)
	})
}

// UpdateFees revises the total fees and discount of an existing record.
// Admin only. Final fees may never drop below what is already collected.
func (s *FeeService) UpdateFees(ctx context.Context, rollNo uint, totalFees, discount float64, actor Actor) (*models.FeeRecord, error) {
	if actor.Role != models.RoleAdmin {
		return nil, ErrUnauthorized
	}

	finalFees, err := feeledger.ComputeFinalFees(totalFees, discount)
	if err != nil {
		return nil, err
	}

	lock := s.lockRoll(rollNo)
	lock.Lock()
	defer lock.Unlock()

	record, err := s.repo.FindByRollNoWithSubmissions(ctx, rollNo)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if finalFees < record.PaidAmount {
		return nil, fmt.Errorf("%w: final fees %.2f below collected amount %.2f", ErrInvalidAmount, finalFees, record.PaidAmount)
	}

	nextStatus := feeledger.DeriveStatus(finalFees, record.PaidAmount)
	current := record.DerivedStatus()
	if current == feeledger.StatusPaid && nextStatus != feeledger.StatusPaid {
		// Raising fees after settlement reopens the record.
		fsm := statemachine.NewFeeStatusFSM(current)
		if err := fsm.Reopen(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
		}
	}

	record.TotalFees = feeledger.Round2(totalFees)
	record.Discount = feeledger.Round2(discount)
	record.FinalFees = finalFees
	record.Status = string(nextStatus)

	if err := s.repo.Update(ctx, record); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actor.UserID, "REVISE", "FeeRecord", record.ID,
		fmt.Sprintf("Fees revised for roll no %d: total %.2f, discount %.2f", rollNo, record.TotalFees, record.Discount),
		actor.IP, actor.UserAgent)

	return record, nil
}

// FindByRollNo returns a fee record with its full submission history.
// A missing record is ErrNotFound, distinct from transport failures.
func (s *FeeService) FindByRollNo(ctx context.Context, rollNo uint) (*models.FeeRecord, error) {
	record, err := s.repo.FindByRollNoWithSubmissions(ctx, rollNo)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

// List returns a page of fee records ordered by roll number
func (s *FeeService) List(ctx context.Context, query *repository.ListQuery) ([]models.FeeRecord, int64, error) {
	return s.repo.List(ctx, query)
}

// Summary aggregates collected/pending totals and status counts
func (s *FeeService) Summary(ctx context.Context) (*repository.FeeSummary, error) {
	return s.repo.GetSummary(ctx)
}

// FindOverdue lists records with a pending balance past their due date
func (s *FeeService) FindOverdue(ctx context.Context) ([]models.FeeRecord, error) {
	return s.repo.FindOverdue(ctx)
}

// FindSubmissionByReceipt looks up a single payment by receipt number
func (s *FeeService) FindSubmissionByReceipt(ctx context.Context, receiptNumber string) (*models.FeeSubmission, error) {
	submission, err := s.repo.FindSubmissionByReceipt(ctx, receiptNumber)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return submission, nil
}

// SweepOverdueFees notifies admins about records past their due date and
// sends reminder emails to students. Runs from the scheduled worker.
func (s *FeeService) SweepOverdueFees(ctx context.Context) error {
	records, err := s.repo.FindOverdue(ctx)
	if err != nil {
		return fmt.Errorf("find overdue fee records: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	var totalPending float64
	for i := range records {
		totalPending += records[i].PendingAmount()
		if err := s.emailSvc.SendOverdueReminder(ctx, &records[i]); err != nil {
			logger.Warn("Failed to send overdue reminder", "roll_no", records[i].RollNo, "error", err)
		}
	}

	msg := fmt.Sprintf("%d student(s) have overdue fees, total pending %.2f", len(records), totalPending)
	return s.notificationSvc.NotifyAdmins(ctx, "Overdue fees", msg, models.NotificationTypeFeeOverdue)
}
