package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"time"

	"gorm.io/gorm"

	"github.com/coachdesk/coachdesk-api/internal/models"
	"github.com/coachdesk/coachdesk-api/internal/repository"
	"github.com/coachdesk/coachdesk-api/internal/storage"
)

// CreateStudentInput carries the fields for enrolling a student
type CreateStudentInput struct {
	Name          string `validate:"required"`
	FatherName    string
	Phone         string `validate:"required"`
	GuardianPhone string
	Email         *string `validate:"omitempty,email"`
	Address       *string
	School        string
	Class         string
	BatchID       *uint
	AdmissionDate time.Time
}

// UpdateStudentInput carries the mutable fields of a student
type UpdateStudentInput struct {
	Name          *string
	FatherName    *string
	Phone         *string
	GuardianPhone *string
	Email         *string `validate:"omitempty,email"`
	Address       *string
	School        *string
	Class         *string
	BatchID       *uint
	Active        *bool
}

// StudentService manages student enrollment and profiles
type StudentService struct {
	repo      repository.StudentRepository
	batchRepo repository.BatchRepository
	storage   storage.Storage
	auditSvc  *AuditService
}

// NewStudentService creates a new student service
func NewStudentService(repo repository.StudentRepository, batchRepo repository.BatchRepository, store storage.Storage, auditSvc *AuditService) *StudentService {
	return &StudentService{repo: repo, batchRepo: batchRepo, storage: store, auditSvc: auditSvc}
}

// Create enrolls a student. The roll number is assigned by the institute
// and never reused, even after the student leaves.
func (s *StudentService) Create(ctx context.Context, in CreateStudentInput, actor Actor) (*models.Student, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if in.BatchID != nil {
		if _, err := s.batchRepo.FindByID(ctx, *in.BatchID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, fmt.Errorf("%w: batch %d", ErrNotFound, *in.BatchID)
			}
			return nil, err
		}
	}

	rollNo, err := s.repo.NextRollNo(ctx)
	if err != nil {
		return nil, err
	}

	admission := in.AdmissionDate
	if admission.IsZero() {
		admission = time.Now()
	}

	student := &models.Student{
		RollNo:        rollNo,
		Name:          in.Name,
		FatherName:    in.FatherName,
		Phone:         in.Phone,
		GuardianPhone: in.GuardianPhone,
		Email:         in.Email,
		Address:       in.Address,
		School:        in.School,
		Class:         in.Class,
		BatchID:       in.BatchID,
		AdmissionDate: admission,
		Active:        true,
	}

	if err := s.repo.Create(ctx, student); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: roll number %d already taken", ErrDuplicate, rollNo)
		}
		return nil, err
	}

	s.auditSvc.Log(ctx, actor.UserID, "CREATE", "Student", student.ID,
		fmt.Sprintf("Student %s enrolled with roll no %d", student.Name, student.RollNo),
		actor.IP, actor.UserAgent)

	return student, nil
}

// Update modifies a student profile. Roll number is immutable.
func (s *StudentService) Update(ctx context.Context, id uint, in UpdateStudentInput, actor Actor) (*models.Student, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if in.BatchID != nil {
		if _, err := s.batchRepo.FindByID(ctx, *in.BatchID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, fmt.Errorf("%w: batch %d", ErrNotFound, *in.BatchID)
			}
			return nil, err
		}
		student.BatchID = in.BatchID
	}
	if in.Name != nil {
		student.Name = *in.Name
	}
	if in.FatherName != nil {
		student.FatherName = *in.FatherName
	}
	if in.Phone != nil {
		student.Phone = *in.Phone
	}
	if in.GuardianPhone != nil {
		student.GuardianPhone = *in.GuardianPhone
	}
	if in.Email != nil {
		student.Email = in.Email
	}
	if in.Address != nil {
		student.Address = in.Address
	}
	if in.School != nil {
		student.School = *in.School
	}
	if in.Class != nil {
		student.Class = *in.Class
	}
	if in.Active != nil {
		student.Active = *in.Active
	}

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actor.UserID, "UPDATE", "Student", student.ID,
		fmt.Sprintf("Student %d profile updated", student.RollNo),
		actor.IP, actor.UserAgent)

	return student, nil
}

// Remove soft-deletes a student. Admin only; the fee ledger and history are
// kept for audit.
func (s *StudentService) Remove(ctx context.Context, id uint, actor Actor) error {
	if actor.Role != models.RoleAdmin {
		return ErrUnauthorized
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.auditSvc.Log(ctx, actor.UserID, "DELETE", "Student", id,
		fmt.Sprintf("Student %d removed", student.RollNo),
		actor.IP, actor.UserAgent)
	return nil
}

// UploadPhoto stores a student photo and records its path
func (s *StudentService) UploadPhoto(ctx context.Context, id uint, file *multipart.FileHeader, actor Actor) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	path, err := s.storage.Save(ctx, file, "students")
	if err != nil {
		return nil, fmt.Errorf("save student photo: %w", err)
	}

	if student.PhotoPath != nil && *student.PhotoPath != "" {
		_ = s.storage.Delete(ctx, *student.PhotoPath)
	}
	student.PhotoPath = &path
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, err
	}
	return student, nil
}

// PhotoPath resolves the stored photo file for serving
func (s *StudentService) PhotoPath(ctx context.Context, id uint) (string, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", ErrNotFound
		}
		return "", err
	}
	if student.PhotoPath == nil || *student.PhotoPath == "" {
		return "", ErrNotFound
	}
	return s.storage.FullPath(*student.PhotoPath), nil
}

// FindByID fetches a student with batch preloaded
func (s *StudentService) FindByID(ctx context.Context, id uint) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return student, nil
}

// FindByRollNo fetches a student with batch and fee record preloaded
func (s *StudentService) FindByRollNo(ctx context.Context, rollNo uint) (*models.Student, error) {
	student, err := s.repo.FindByRollNo(ctx, rollNo)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return student, nil
}

// List returns a page of students ordered by roll number
func (s *StudentService) List(ctx context.Context, query *repository.ListQuery) ([]models.Student, int64, error) {
	return s.repo.List(ctx, query)
}
