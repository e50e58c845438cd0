package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/coachdesk/coachdesk-api/internal/jobs"
	"github.com/coachdesk/coachdesk-api/internal/models"
	"github.com/coachdesk/coachdesk-api/internal/repository"
	"github.com/coachdesk/coachdesk-api/pkg/logger"
)

// CreateUserInput carries the fields for creating a staff account
type CreateUserInput struct {
	FullName string `validate:"required"`
	Email    string `validate:"required,email"`
	Phone    string
	Password string `validate:"required,min=8"`
	Role     string `validate:"required,oneof=admin accountant teacher"`
}

// UpdateUserInput carries the mutable fields of a staff account
type UpdateUserInput struct {
	FullName *string
	Phone    *string
	Role     *string `validate:"omitempty,oneof=admin accountant teacher"`
	Active   *bool
}

// UserService manages staff accounts. Creation, role changes and removal
// are admin-only; the checks live here so every surface gets them.
type UserService struct {
	repo     repository.UserRepository
	emailSvc *EmailService
	auditSvc *AuditService
	worker   *jobs.Worker
}

// NewUserService creates a new user service
func NewUserService(repo repository.UserRepository, emailSvc *EmailService, auditSvc *AuditService, worker *jobs.Worker) *UserService {
	return &UserService{repo: repo, emailSvc: emailSvc, auditSvc: auditSvc, worker: worker}
}

// Create registers a staff account and mails the credentials
func (s *UserService) Create(ctx context.Context, in CreateUserInput, actor Actor) (*models.User, error) {
	if actor.Role != models.RoleAdmin {
		return nil, ErrUnauthorized
	}
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if _, err := s.repo.FindByEmail(ctx, in.Email); err == nil {
		return nil, fmt.Errorf("%w: email %s already registered", ErrDuplicate, in.Email)
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	user := &models.User{
		FullName: in.FullName,
		Email:    in.Email,
		Phone:    in.Phone,
		Role:     in.Role,
		Active:   true,
	}
	if err := user.SetPassword(in.Password); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: email %s already registered", ErrDuplicate, in.Email)
		}
		return nil, err
	}

	s.auditSvc.Log(ctx, actor.UserID, "CREATE", "User", user.ID,
		fmt.Sprintf("Staff account created for %s with role %s", user.Email, user.Role),
		actor.IP, actor.UserAgent)

	password := in.Password
	s.worker.EnqueueAsync(func(jobCtx context.Context) error {
		if err := s.emailSvc.SendWelcome(jobCtx, user, password); err != nil {
			logger.Warn("Failed to send welcome email", "email", user.Email, "error", err)
		}
		return nil
	})

	return user, nil
}

// Update modifies a staff account. Role and active changes are admin-only;
// users may update their own name and phone.
func (s *UserService) Update(ctx context.Context, id uint, in UpdateUserInput, actor Actor) (*models.User, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if actor.Role != models.RoleAdmin && actor.UserID != id {
		return nil, ErrUnauthorized
	}
	if (in.Role != nil || in.Active != nil) && actor.Role != models.RoleAdmin {
		return nil, ErrUnauthorized
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if in.FullName != nil {
		user.FullName = *in.FullName
	}
	if in.Phone != nil {
		user.Phone = *in.Phone
	}
	if in.Role != nil {
		user.Role = *in.Role
	}
	if in.Active != nil {
		user.Active = *in.Active
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actor.UserID, "UPDATE", "User", user.ID,
		fmt.Sprintf("Staff account %s updated", user.Email),
		actor.IP, actor.UserAgent)

	return user, nil
}

// ChangePassword sets a new password after verifying the current one
func (s *UserService) ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidPassword)
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		return err
	}
	if !user.CheckPassword(currentPassword) {
		return ErrInvalidPassword
	}
	if err := user.SetPassword(newPassword); err != nil {
		return err
	}
	return s.repo.Update(ctx, user)
}

// Deactivate soft-deletes a staff account. Admins cannot remove themselves.
func (s *UserService) Deactivate(ctx context.Context, id uint, actor Actor) error {
	if actor.Role != models.RoleAdmin {
		return ErrUnauthorized
	}
	if actor.UserID == id {
		return fmt.Errorf("%w: cannot deactivate your own account", ErrUnauthorized)
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.auditSvc.Log(ctx, actor.UserID, "DELETE", "User", id, "Staff account deactivated", actor.IP, actor.UserAgent)
	return nil
}

// FindByID fetches a single active staff account
func (s *UserService) FindByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// List returns a page of staff accounts
func (s *UserService) List(ctx context.Context, query *repository.ListQuery) ([]models.User, int64, error) {
	return s.repo.List(ctx, query)
}
