package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/coachdesk/coachdesk-api/internal/models"
)

// BatchRepository defines the interface for batch data access
type BatchRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Batch, error)
	Create(ctx context.Context, batch *models.Batch) error
	Update(ctx context.Context, batch *models.Batch) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query *ListQuery) ([]models.Batch, int64, error)
}

type batchRepository struct {
	db *gorm.DB
}

// NewBatchRepository creates a new batch repository
func NewBatchRepository(db *gorm.DB) BatchRepository {
	return &batchRepository{db: db}
}

func (r *batchRepository) FindByID(ctx context.Context, id uint) (*models.Batch, error) {
	var batch models.Batch
	err := r.db.WithContext(ctx).
		Preload("Students", "discarded_at IS NULL").
		First(&batch, id).Error
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *batchRepository) Create(ctx context.Context, batch *models.Batch) error {
	return r.db.WithContext(ctx).Create(batch).Error
}

func (r *batchRepository) Update(ctx context.Context, batch *models.Batch) error {
	return r.db.WithContext(ctx).Save(batch).Error
}

func (r *batchRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Batch{}, id).Error
}

func (r *batchRepository) List(ctx context.Context, query *ListQuery) ([]models.Batch, int64, error) {
	var batches []models.Batch
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Batch{})

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("name ILIKE ? OR subject ILIKE ?", search, search)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginate(db, query).
		Order("name ASC").
		Preload("Students", "discarded_at IS NULL").
		Find(&batches).Error
	return batches, total, err
}

// KitRepository defines the interface for kit data access
type KitRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Kit, error)
	Create(ctx context.Context, kit *models.Kit) error
	Update(ctx context.Context, kit *models.Kit) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query *ListQuery) ([]models.Kit, int64, error)
	CreateIssue(ctx context.Context, issue *models.KitIssue) error
	FindIssuesByRollNo(ctx context.Context, rollNo uint) ([]models.KitIssue, error)
}

type kitRepository struct {
	db *gorm.DB
}

// NewKitRepository creates a new kit repository
func NewKitRepository(db *gorm.DB) KitRepository {
	return &kitRepository{db: db}
}

func (r *kitRepository) FindByID(ctx context.Context, id uint) (*models.Kit, error) {
	var kit models.Kit
	err := r.db.WithContext(ctx).First(&kit, id).Error
	if err != nil {
		return nil, err
	}
	return &kit, nil
}

func (r *kitRepository) Create(ctx context.Context, kit *models.Kit) error {
	return r.db.WithContext(ctx).Create(kit).Error
}

func (r *kitRepository) Update(ctx context.Context, kit *models.Kit) error {
	return r.db.WithContext(ctx).Save(kit).Error
}

func (r *kitRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Kit{}, id).Error
}

func (r *kitRepository) List(ctx context.Context, query *ListQuery) ([]models.Kit, int64, error) {
	var kits []models.Kit
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Kit{})

	if query.Search != "" {
		db = db.Where("name ILIKE ?", "%"+query.Search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginate(db, query).Order("name ASC").Find(&kits).Error
	return kits, total, err
}

func (r *kitRepository) CreateIssue(ctx context.Context, issue *models.KitIssue) error {
	return r.db.WithContext(ctx).Create(issue).Error
}

func (r *kitRepository) FindIssuesByRollNo(ctx context.Context, rollNo uint) ([]models.KitIssue, error) {
	var issues []models.KitIssue
	err := r.db.WithContext(ctx).
		Where("roll_no = ?", rollNo).
		Preload("Kit").
		Order("issued_at ASC").
		Find(&issues).Error
	return issues, err
}
