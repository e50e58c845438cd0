package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	User         UserRepository
	Student      StudentRepository
	Batch        BatchRepository
	Kit          KitRepository
	Fee          FeeRepository
	Attendance   AttendanceRepository
	TestReport   TestReportRepository
	Notification NotificationRepository
	RefreshToken RefreshTokenRepository
	Audit        AuditRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Student:      NewStudentRepository(db),
		Batch:        NewBatchRepository(db),
		Kit:          NewKitRepository(db),
		Fee:          NewFeeRepository(db),
		Attendance:   NewAttendanceRepository(db),
		TestReport:   NewTestReportRepository(db),
		Notification: NewNotificationRepository(db),
		RefreshToken: NewRefreshTokenRepository(db),
		Audit:        NewAuditRepository(db),
	}
}
