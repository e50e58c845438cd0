package handlers

import (
	"github.com/coachdesk/coachdesk-api/internal/config"
	"github.com/coachdesk/coachdesk-api/internal/jobs"
	"github.com/coachdesk/coachdesk-api/internal/services"
)

// Handlers holds all HTTP handler instances
type Handlers struct {
	Health       *HealthHandler
	Auth         *AuthHandler
	User         *UserHandler
	Student      *StudentHandler
	Batch        *BatchHandler
	Kit          *KitHandler
	Attendance   *AttendanceHandler
	TestReport   *TestReportHandler
	Fee          *FeeHandler
	Notification *NotificationHandler
	Audit        *AuditHandler
}

// New wires all handlers with their services
func New(cfg *config.Config, svcs *services.Services, worker *jobs.Worker) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(worker),
		Auth:         NewAuthHandler(svcs.Auth, svcs.User),
		User:         NewUserHandler(svcs.User),
		Student:      NewStudentHandler(svcs.Student, svcs.Catalog, svcs.Records),
		Batch:        NewBatchHandler(svcs.Catalog, svcs.Records),
		Kit:          NewKitHandler(svcs.Catalog),
		Attendance:   NewAttendanceHandler(svcs.Records),
		TestReport:   NewTestReportHandler(svcs.Records),
		Fee:          NewFeeHandler(svcs.Fee, svcs.Import, svcs.Export, svcs.Report),
		Notification: NewNotificationHandler(svcs.Notification),
		Audit:        NewAuditHandler(svcs.Audit),
	}
}
