package services

import (
	"gorm.io/gorm"

	"github.com/coachdesk/coachdesk-api/internal/config"
	"github.com/coachdesk/coachdesk-api/internal/jobs"
	"github.com/coachdesk/coachdesk-api/internal/repository"
	"github.com/coachdesk/coachdesk-api/internal/storage"
)

// Services holds all service instances
type Services struct {
	Auth         *AuthService
	User         *UserService
	Student      *StudentService
	Catalog      *CatalogService
	Records      *RecordsService
	Fee          *FeeService
	Import       *ImportService
	Export       *ExportService
	Report       *ReportService
	Notification *NotificationService
	Email        *EmailService
	Audit        *AuditService
}

// NewServices wires all services with their dependencies
func NewServices(cfg *config.Config, db *gorm.DB, repos *repository.Repositories, store storage.Storage, worker *jobs.Worker) *Services {
	auditSvc := NewAuditService(repos.Audit, worker)
	emailSvc := NewEmailService(cfg.ResendAPIKey, cfg.FromEmail)
	notificationSvc := NewNotificationService(repos.Notification, repos.User)
	feeSvc := NewFeeService(repos.Fee, repos.Student, notificationSvc, emailSvc, auditSvc, worker)

	return &Services{
		Auth:         NewAuthService(repos.User, repos.RefreshToken, cfg.JWTSecret, cfg.JWTExpirationHours),
		User:         NewUserService(repos.User, emailSvc, auditSvc, worker),
		Student:      NewStudentService(repos.Student, repos.Batch, store, auditSvc),
		Catalog:      NewCatalogService(repos.Batch, repos.Kit, repos.Student, auditSvc),
		Records:      NewRecordsService(repos.Attendance, repos.TestReport, repos.Student),
		Fee:          feeSvc,
		Import:       NewImportService(feeSvc, notificationSvc, worker),
		Export:       NewExportService(repos.Fee, repos.Student),
		Report:       NewReportService(repos.Fee, cfg.InstituteName),
		Notification: notificationSvc,
		Email:        emailSvc,
		Audit:        auditSvc,
	}
}
