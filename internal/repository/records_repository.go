package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/coachdesk/coachdesk-api/internal/models"
)

// AttendanceRepository defines the interface for attendance data access
type AttendanceRepository interface {
	Upsert(ctx context.Context, record *models.AttendanceRecord) error
	FindByRollNo(ctx context.Context, rollNo uint, from, to time.Time) ([]models.AttendanceRecord, error)
	FindByBatchAndDate(ctx context.Context, batchID uint, date time.Time) ([]models.AttendanceRecord, error)
	List(ctx context.Context, query *ListQuery) ([]models.AttendanceRecord, int64, error)
}

type attendanceRepository struct {
	db *gorm.DB
}

// NewAttendanceRepository creates a new attendance repository
func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

// Upsert writes a student's attendance for a date, replacing an existing
// mark for the same day so re-marking corrects rather than duplicates.
func (r *attendanceRepository) Upsert(ctx context.Context, record *models.AttendanceRecord) error {
	var existing models.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("roll_no = ? AND date = ?", record.RollNo, record.Date).
		First(&existing).Error

	if err == nil {
		existing.Status = record.Status
		existing.MarkedBy = record.MarkedBy
		return r.db.WithContext(ctx).Save(&existing).Error
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *attendanceRepository) FindByRollNo(ctx context.Context, rollNo uint, from, to time.Time) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	db := r.db.WithContext(ctx).Where("roll_no = ?", rollNo)
	if !from.IsZero() {
		db = db.Where("date >= ?", from)
	}
	if !to.IsZero() {
		db = db.Where("date <= ?", to)
	}
	err := db.Order("date ASC").Find(&records).Error
	return records, err
}

func (r *attendanceRepository) FindByBatchAndDate(ctx context.Context, batchID uint, date time.Time) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("batch_id = ? AND date = ?", batchID, date).
		Preload("Student").
		Order("roll_no ASC").
		Find(&records).Error
	return records, err
}

func (r *attendanceRepository) List(ctx context.Context, query *ListQuery) ([]models.AttendanceRecord, int64, error) {
	var records []models.AttendanceRecord
	var total int64

	db := r.db.WithContext(ctx).Model(&models.AttendanceRecord{})

	if query.Filters != nil {
		if val, ok := query.Filters["date"]; ok && val != "" {
			db = db.Where("date = ?", val)
		}
		if val, ok := query.Filters["batch_id"]; ok && val != "" {
			db = db.Where("batch_id = ?", val)
		}
		if val, ok := query.Filters["status"]; ok && val != "" {
			db = db.Where("status = ?", val)
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginate(db, query).
		Order("date DESC, roll_no ASC").
		Preload("Student").
		Find(&records).Error
	return records, total, err
}

// TestReportRepository defines the interface for test report data access
type TestReportRepository interface {
	FindByID(ctx context.Context, id uint) (*models.TestReport, error)
	FindByRollNo(ctx context.Context, rollNo uint) ([]models.TestReport, error)
	Create(ctx context.Context, report *models.TestReport) error
	Update(ctx context.Context, report *models.TestReport) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query *ListQuery) ([]models.TestReport, int64, error)
}

type testReportRepository struct {
	db *gorm.DB
}

// NewTestReportRepository creates a new test report repository
func NewTestReportRepository(db *gorm.DB) TestReportRepository {
	return &testReportRepository{db: db}
}

func (r *testReportRepository) FindByID(ctx context.Context, id uint) (*models.TestReport, error) {
	var report models.TestReport
	err := r.db.WithContext(ctx).Preload("Student").First(&report, id).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *testReportRepository) FindByRollNo(ctx context.Context, rollNo uint) ([]models.TestReport, error) {
	var reports []models.TestReport
	err := r.db.WithContext(ctx).
		Where("roll_no = ?", rollNo).
		Order("test_date DESC").
		Find(&reports).Error
	return reports, err
}

func (r *testReportRepository) Create(ctx context.Context, report *models.TestReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *testReportRepository) Update(ctx context.Context, report *models.TestReport) error {
	return r.db.WithContext(ctx).Save(report).Error
}

func (r *testReportRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.TestReport{}, id).Error
}

func (r *testReportRepository) List(ctx context.Context, query *ListQuery) ([]models.TestReport, int64, error) {
	var reports []models.TestReport
	var total int64

	db := r.db.WithContext(ctx).Model(&models.TestReport{})

	if query.Filters != nil {
		if val, ok := query.Filters["test_name"]; ok && val != "" {
			db = db.Where("test_name = ?", val)
		}
		if val, ok := query.Filters["roll_no"]; ok && val != "" {
			db = db.Where("roll_no = ?", val)
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginate(db, query).
		Order("test_date DESC, roll_no ASC").
		Preload("Student").
		Find(&reports).Error
	return reports, total, err
}
