package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/coachdesk/coachdesk-api/internal/models"
	"github.com/coachdesk/coachdesk-api/internal/repository"
)

// BatchInput carries the fields for creating or updating a batch
type BatchInput struct {
	Name     string `validate:"required"`
	Subject  string
	Timing   string
	Capacity int `validate:"min=0"`
	Active   *bool
}

// KitInput carries the fields for creating or updating a kit
type KitInput struct {
	Name        string `validate:"required"`
	Description *string
	Price       float64 `validate:"min=0"`
	Active      *bool
}

// CatalogService manages batches and study-material kits
type CatalogService struct {
	batchRepo   repository.BatchRepository
	kitRepo     repository.KitRepository
	studentRepo repository.StudentRepository
	auditSvc    *AuditService
}

// NewCatalogService creates a new catalog service
func NewCatalogService(batchRepo repository.BatchRepository, kitRepo repository.KitRepository, studentRepo repository.StudentRepository, auditSvc *AuditService) *CatalogService {
	return &CatalogService{batchRepo: batchRepo, kitRepo: kitRepo, studentRepo: studentRepo, auditSvc: auditSvc}
}

// CreateBatch adds a new batch
func (s *CatalogService) CreateBatch(ctx context.Context, in BatchInput, actor Actor) (*models.Batch, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	batch := &models.Batch{
		Name:     in.Name,
		Subject:  in.Subject,
		Timing:   in.Timing,
		Capacity: in.Capacity,
		Active:   true,
	}
	if in.Active != nil {
		batch.Active = *in.Active
	}
	if err := s.batchRepo.Create(ctx, batch); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: batch %q already exists", ErrDuplicate, in.Name)
		}
		return nil, err
	}
	s.auditSvc.Log(ctx, actor.UserID, "CREATE", "Batch", batch.ID,
		fmt.Sprintf("Batch %s created", batch.Name), actor.IP, actor.UserAgent)
	return batch, nil
}

// UpdateBatch modifies an existing batch
func (s *CatalogService) UpdateBatch(ctx context.Context, id uint, in BatchInput, actor Actor) (*models.Batch, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	batch, err := s.batchRepo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	batch.Name = in.Name
	batch.Subject = in.Subject
	batch.Timing = in.Timing
	batch.Capacity = in.Capacity
	if in.Active != nil {
		batch.Active = *in.Active
	}
	if err := s.batchRepo.Update(ctx, batch); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: batch %q already exists", ErrDuplicate, in.Name)
		}
		return nil, err
	}
	return batch, nil
}

// DeleteBatch removes an empty batch. Batches with enrolled students cannot
// be deleted.
func (s *CatalogService) DeleteBatch(ctx context.Context, id uint, actor Actor) error {
	if actor.Role != models.RoleAdmin {
		return ErrUnauthorized
	}
	batch, err := s.batchRepo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		return err
	}
	if len(batch.Students) > 0 {
		return fmt.Errorf("%w: batch has %d enrolled student(s)", ErrInvalidState, len(batch.Students))
	}
	if err := s.batchRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.auditSvc.Log(ctx, actor.UserID, "DELETE", "Batch", id,
		fmt.Sprintf("Batch %s deleted", batch.Name), actor.IP, actor.UserAgent)
	return nil
}

// FindBatch fetches a batch with its students
func (s *CatalogService) FindBatch(ctx context.Context, id uint) (*models.Batch, error) {
	batch, err := s.batchRepo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return batch, nil
}

// ListBatches returns a page of batches
func (s *CatalogService) ListBatches(ctx context.Context, query *repository.ListQuery) ([]models.Batch, int64, error) {
	return s.batchRepo.List(ctx, query)
}

// CreateKit adds a new kit
func (s *CatalogService) CreateKit(ctx context.Context, in KitInput, actor Actor) (*models.Kit, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	kit := &models.Kit{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Active:      true,
	}
	if in.Active != nil {
		kit.Active = *in.Active
	}
	if err := s.kitRepo.Create(ctx, kit); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: kit %q already exists", ErrDuplicate, in.Name)
		}
		return nil, err
	}
	return kit, nil
}

// UpdateKit modifies an existing kit
func (s *CatalogService) UpdateKit(ctx context.Context, id uint, in KitInput, actor Actor) (*models.Kit, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	kit, err := s.kitRepo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	kit.Name = in.Name
	kit.Description = in.Description
	kit.Price = in.Price
	if in.Active != nil {
		kit.Active = *in.Active
	}
	if err := s.kitRepo.Update(ctx, kit); err != nil {
		return nil, err
	}
	return kit, nil
}

// DeleteKit removes a kit
func (s *CatalogService) DeleteKit(ctx context.Context, id uint, actor Actor) error {
	if actor.Role != models.RoleAdmin {
		return ErrUnauthorized
	}
	if _, err := s.kitRepo.FindByID(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		return err
	}
	return s.kitRepo.Delete(ctx, id)
}

// ListKits returns a page of kits
func (s *CatalogService) ListKits(ctx context.Context, query *repository.ListQuery) ([]models.Kit, int64, error) {
	return s.kitRepo.List(ctx, query)
}

// IssueKit hands a kit to a student
func (s *CatalogService) IssueKit(ctx context.Context, kitID, rollNo uint, issuedAt time.Time, actor Actor) (*models.KitIssue, error) {
	kit, err := s.kitRepo.FindByID(ctx, kitID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: kit %d", ErrNotFound, kitID)
		}
		return nil, err
	}
	if _, err := s.studentRepo.FindByRollNo(ctx, rollNo); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: no student with roll number %d", ErrNotFound, rollNo)
		}
		return nil, err
	}

	if issuedAt.IsZero() {
		issuedAt = time.Now()
	}
	issue := &models.KitIssue{
		KitID:    kitID,
		RollNo:   rollNo,
		IssuedAt: issuedAt,
		IssuedBy: actor.Name,
	}
	if err := s.kitRepo.CreateIssue(ctx, issue); err != nil {
		return nil, err
	}
	issue.Kit = *kit

	s.auditSvc.Log(ctx, actor.UserID, "ISSUE", "Kit", kitID,
		fmt.Sprintf("Kit %s issued to roll no %d", kit.Name, rollNo),
		actor.IP, actor.UserAgent)

	return issue, nil
}

// KitIssuesForStudent lists the kits a student has received
func (s *CatalogService) KitIssuesForStudent(ctx context.Context, rollNo uint) ([]models.KitIssue, error) {
	return s.kitRepo.FindIssuesByRollNo(ctx, rollNo)
}
