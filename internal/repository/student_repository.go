package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/coachdesk/coachdesk-api/internal/models"
)

// StudentRepository defines the interface for student data access
type StudentRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Student, error)
	FindByRollNo(ctx context.Context, rollNo uint) (*models.Student, error)
	FindByBatch(ctx context.Context, batchID uint) ([]models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	SoftDelete(ctx context.Context, id uint) error
	List(ctx context.Context, query *ListQuery) ([]models.Student, int64, error)
	NextRollNo(ctx context.Context) (uint, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) FindByID(ctx context.Context, id uint) (*models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).
		Where("discarded_at IS NULL").
		Preload("Batch").
		First(&student, id).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepository) FindByRollNo(ctx context.Context, rollNo uint) (*models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).
		Where("roll_no = ? AND discarded_at IS NULL", rollNo).
		Preload("Batch").
		Preload("FeeRecord").
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepository) FindByBatch(ctx context.Context, batchID uint) ([]models.Student, error) {
	var students []models.Student
	err := r.db.WithContext(ctx).
		Where("batch_id = ? AND discarded_at IS NULL", batchID).
		Order("roll_no ASC").
		Find(&students).Error
	return students, err
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepository) Update(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Save(student).Error
}

func (r *studentRepository) SoftDelete(ctx context.Context, id uint) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.Student{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"discarded_at": &now, "active": false}).Error
}

func (r *studentRepository) List(ctx context.Context, query *ListQuery) ([]models.Student, int64, error) {
	var students []models.Student
	var total int64

	db := r.db.WithContext(ctx).
		Model(&models.Student{}).
		Where("students.discarded_at IS NULL")

	if query.Filters != nil {
		if val, ok := query.Filters["batch_id"]; ok && val != "" {
			db = db.Where("students.batch_id = ?", val)
		}
		if val, ok := query.Filters["class"]; ok && val != "" {
			db = db.Where("students.class = ?", val)
		}
		if val, ok := query.Filters["active"]; ok && val != "" {
			db = db.Where("students.active = ?", val == "true")
		}
	}

	if query.Search != "" {
		search := "%" + strings.TrimSpace(query.Search) + "%"
		db = db.Where("students.name ILIKE ? OR students.phone LIKE ? OR CAST(students.roll_no AS TEXT) LIKE ?",
			search, search, search)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginate(db, query).
		Order("students.roll_no ASC").
		Preload("Batch").
		Find(&students).Error
	return students, total, err
}

// NextRollNo returns one past the highest roll number ever assigned. Roll
// numbers are never reused, so soft-deleted students still count.
func (r *studentRepository) NextRollNo(ctx context.Context) (uint, error) {
	var result struct {
		Max uint
	}
	err := r.db.WithContext(ctx).
		Model(&models.Student{}).
		Select("COALESCE(MAX(roll_no), 0) AS max").
		Scan(&result).Error
	if err != nil {
		return 0, err
	}
	return result.Max + 1, nil
}
