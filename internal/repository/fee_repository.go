package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/coachdesk/coachdesk-api/internal/models"
)

// FeeRepository defines the interface for fee ledger data access
type FeeRepository interface {
	FindByRollNo(ctx context.Context, rollNo uint) (*models.FeeRecord, error)
	FindByRollNoWithSubmissions(ctx context.Context, rollNo uint) (*models.FeeRecord, error)
	CreateWithSubmission(ctx context.Context, record *models.FeeRecord, first *models.FeeSubmission) error
	AppendSubmission(ctx context.Context, record *models.FeeRecord, submission *models.FeeSubmission) error
	Update(ctx context.Context, record *models.FeeRecord) error
	List(ctx context.Context, query *ListQuery) ([]models.FeeRecord, int64, error)
	FindOverdue(ctx context.Context) ([]models.FeeRecord, error)
	FindSubmissionByReceipt(ctx context.Context, receiptNumber string) (*models.FeeSubmission, error)
	GetSummary(ctx context.Context) (*FeeSummary, error)
}

// FeeSummary aggregates the ledger for the dashboard
type FeeSummary struct {
	TotalCollected float64 `json:"total_collected"`
	TotalPending   float64 `json:"total_pending"`
	PaidCount      int64   `json:"paid_count"`
	PartialCount   int64   `json:"partial_count"`
	UnpaidCount    int64   `json:"unpaid_count"`
}

type feeRepository struct {
	db *gorm.DB
}

// NewFeeRepository creates a new fee repository
func NewFeeRepository(db *gorm.DB) FeeRepository {
	return &feeRepository{db: db}
}

func (r *feeRepository) FindByRollNo(ctx context.Context, rollNo uint) (*models.FeeRecord, error) {
	var record models.FeeRecord
	err := r.db.WithContext(ctx).
		Where("roll_no = ?", rollNo).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *feeRepository) FindByRollNoWithSubmissions(ctx context.Context, rollNo uint) (*models.FeeRecord, error) {
	var record models.FeeRecord
	err := r.db.WithContext(ctx).
		Preload("Student.Batch").
		Preload("Submissions", func(db *gorm.DB) *gorm.DB {
			// Insertion order is the ledger order, not the payment date.
			return db.Order("id ASC")
		}).
		Where("roll_no = ?", rollNo).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// CreateWithSubmission creates a fee record and its first installment in one
// transaction; a fee record never exists without at least one submission.
func (r *feeRepository) CreateWithSubmission(ctx context.Context, record *models.FeeRecord, first *models.FeeSubmission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		first.FeeRecordID = record.ID
		if err := tx.Create(first).Error; err != nil {
			return err
		}
		record.Submissions = append(record.Submissions, *first)
		return nil
	})
}

// AppendSubmission persists a new installment together with the updated
// record amounts. The version check in the WHERE clause makes the update a
// compare-and-swap: zero rows affected means a concurrent writer got there
// first and the caller must re-read.
func (r *feeRepository) AppendSubmission(ctx context.Context, record *models.FeeRecord, submission *models.FeeSubmission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		submission.FeeRecordID = record.ID
		if err := tx.Create(submission).Error; err != nil {
			return err
		}

		previousVersion := record.Version
		record.Version++
		res := tx.Model(&models.FeeRecord{}).
			Where("id = ? AND version = ?", record.ID, previousVersion).
			Updates(map[string]interface{}{
				"paid_amount": record.PaidAmount,
				"status":      record.Status,
				"version":     record.Version,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *feeRepository) Update(ctx context.Context, record *models.FeeRecord) error {
	record.Version++
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *feeRepository) List(ctx context.Context, query *ListQuery) ([]models.FeeRecord, int64, error) {
	var records []models.FeeRecord
	var total int64

	db := r.db.WithContext(ctx).Model(&models.FeeRecord{})

	if query.Filters != nil {
		if val, ok := query.Filters["status"]; ok && val != "" {
			db = db.Where("fee_records.status = ?", val)
		}
		if val, ok := query.Filters["batch_id"]; ok && val != "" {
			db = db.Joins("LEFT JOIN students ON students.roll_no = fee_records.roll_no").
				Where("students.batch_id = ?", val)
		}
	}

	if query.Search != "" {
		search := "%" + strings.TrimSpace(query.Search) + "%"
		db = db.Joins("LEFT JOIN students AS s ON s.roll_no = fee_records.roll_no").
			Where("s.name ILIKE ? OR CAST(fee_records.roll_no AS TEXT) LIKE ?", search, search)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Roll number order keeps pages stable for a fixed snapshot.
	err := paginate(db, query).
		Order("fee_records.roll_no ASC").
		Preload("Student").
		Find(&records).Error
	return records, total, err
}

func (r *feeRepository) FindOverdue(ctx context.Context) ([]models.FeeRecord, error) {
	var records []models.FeeRecord
	err := r.db.WithContext(ctx).
		Where("status <> ? AND due_date IS NOT NULL AND due_date < CURRENT_DATE", "paid").
		Preload("Student").
		Order("roll_no ASC").
		Find(&records).Error
	return records, err
}

func (r *feeRepository) FindSubmissionByReceipt(ctx context.Context, receiptNumber string) (*models.FeeSubmission, error) {
	var submission models.FeeSubmission
	err := r.db.WithContext(ctx).
		Preload("FeeRecord.Student").
		Where("receipt_number = ?", receiptNumber).
		First(&submission).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *feeRepository) GetSummary(ctx context.Context) (*FeeSummary, error) {
	var summary FeeSummary

	err := r.db.WithContext(ctx).
		Model(&models.FeeRecord{}).
		Select("COALESCE(SUM(paid_amount), 0) AS total_collected, COALESCE(SUM(final_fees - paid_amount), 0) AS total_pending").
		Scan(&summary).Error
	if err != nil {
		return nil, err
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var counts []statusCount
	err = r.db.WithContext(ctx).
		Model(&models.FeeRecord{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}

	for _, c := range counts {
		switch c.Status {
		case "paid":
			summary.PaidCount = c.Count
		case "partial":
			summary.PartialCount = c.Count
		case "unpaid":
			summary.UnpaidCount = c.Count
		}
	}

	return &summary, nil
}
