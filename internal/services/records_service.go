package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/coachdesk/coachdesk-api/internal/models"
	"github.com/coachdesk/coachdesk-api/internal/repository"
)

// MarkAttendanceInput marks one student on one date
type MarkAttendanceInput struct {
	RollNo uint      `validate:"required"`
	Date   time.Time `validate:"required"`
	Status string    `validate:"required,oneof=present absent leave"`
}

// TestReportInput carries the fields for a test report entry
type TestReportInput struct {
	RollNo        uint   `validate:"required"`
	TestName      string `validate:"required"`
	Subject       string
	TestDate      time.Time `validate:"required"`
	MarksObtained float64   `validate:"min=0"`
	TotalMarks    float64   `validate:"required,gt=0"`
	Remarks       *string
}

// RecordsService manages attendance and test reports
type RecordsService struct {
	attendanceRepo repository.AttendanceRepository
	testReportRepo repository.TestReportRepository
	studentRepo    repository.StudentRepository
}

// NewRecordsService creates a new records service
func NewRecordsService(attendanceRepo repository.AttendanceRepository, testReportRepo repository.TestReportRepository, studentRepo repository.StudentRepository) *RecordsService {
	return &RecordsService{
		attendanceRepo: attendanceRepo,
		testReportRepo: testReportRepo,
		studentRepo:    studentRepo,
	}
}

// MarkAttendance records a student's attendance for a date. Marking the same
// student and date again replaces the earlier mark.
func (s *RecordsService) MarkAttendance(ctx context.Context, in MarkAttendanceInput, actor Actor) (*models.AttendanceRecord, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	student, err := s.studentRepo.FindByRollNo(ctx, in.RollNo)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: no student with roll number %d", ErrNotFound, in.RollNo)
		}
		return nil, err
	}

	record := &models.AttendanceRecord{
		RollNo:   in.RollNo,
		Date:     in.Date,
		Status:   in.Status,
		BatchID:  student.BatchID,
		MarkedBy: actor.Name,
	}
	if err := s.attendanceRepo.Upsert(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// MarkBatchAttendance marks a full batch in one call. Per-student failures
// abort the loop and return the error; already-marked students keep their
// marks.
func (s *RecordsService) MarkBatchAttendance(ctx context.Context, batchID uint, date time.Time, marks map[uint]string, actor Actor) (int, error) {
	students, err := s.studentRepo.FindByBatch(ctx, batchID)
	if err != nil {
		return 0, err
	}
	if len(students) == 0 {
		return 0, fmt.Errorf("%w: batch %d has no students", ErrNotFound, batchID)
	}

	marked := 0
	for _, student := range students {
		status, ok := marks[student.RollNo]
		if !ok {
			continue
		}
		in := MarkAttendanceInput{RollNo: student.RollNo, Date: date, Status: status}
		if _, err := s.MarkAttendance(ctx, in, actor); err != nil {
			return marked, fmt.Errorf("mark roll no %d: %w", student.RollNo, err)
		}
		marked++
	}
	return marked, nil
}

// AttendanceForStudent returns a student's marks within an optional range
func (s *RecordsService) AttendanceForStudent(ctx context.Context, rollNo uint, from, to time.Time) ([]models.AttendanceRecord, error) {
	return s.attendanceRepo.FindByRollNo(ctx, rollNo, from, to)
}

// AttendanceForBatch returns a batch's marks for one date
func (s *RecordsService) AttendanceForBatch(ctx context.Context, batchID uint, date time.Time) ([]models.AttendanceRecord, error) {
	return s.attendanceRepo.FindByBatchAndDate(ctx, batchID, date)
}

// ListAttendance returns a page of attendance records
func (s *RecordsService) ListAttendance(ctx context.Context, query *repository.ListQuery) ([]models.AttendanceRecord, int64, error) {
	return s.attendanceRepo.List(ctx, query)
}

// CreateTestReport records a student's marks for a test
func (s *RecordsService) CreateTestReport(ctx context.Context, in TestReportInput, actor Actor) (*models.TestReport, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if in.MarksObtained > in.TotalMarks {
		return nil, fmt.Errorf("%w: marks obtained exceed total marks", ErrValidation)
	}
	if _, err := s.studentRepo.FindByRollNo(ctx, in.RollNo); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: no student with roll number %d", ErrNotFound, in.RollNo)
		}
		return nil, err
	}

	report := &models.TestReport{
		RollNo:        in.RollNo,
		TestName:      in.TestName,
		Subject:       in.Subject,
		TestDate:      in.TestDate,
		MarksObtained: in.MarksObtained,
		TotalMarks:    in.TotalMarks,
		Remarks:       in.Remarks,
	}
	if err := s.testReportRepo.Create(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// UpdateTestReport corrects an existing test report
func (s *RecordsService) UpdateTestReport(ctx context.Context, id uint, in TestReportInput, actor Actor) (*models.TestReport, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if in.MarksObtained > in.TotalMarks {
		return nil, fmt.Errorf("%w: marks obtained exceed total marks", ErrValidation)
	}
	report, err := s.testReportRepo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	report.TestName = in.TestName
	report.Subject = in.Subject
	report.TestDate = in.TestDate
	report.MarksObtained = in.MarksObtained
	report.TotalMarks = in.TotalMarks
	report.Remarks = in.Remarks

	if err := s.testReportRepo.Update(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// DeleteTestReport removes a test report
func (s *RecordsService) DeleteTestReport(ctx context.Context, id uint, actor Actor) error {
	if _, err := s.testReportRepo.FindByID(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		return err
	}
	return s.testReportRepo.Delete(ctx, id)
}

// TestReportsForStudent returns a student's test history, newest first
func (s *RecordsService) TestReportsForStudent(ctx context.Context, rollNo uint) ([]models.TestReport, error) {
	return s.testReportRepo.FindByRollNo(ctx, rollNo)
}

// ListTestReports returns a page of test reports
func (s *RecordsService) ListTestReports(ctx context.Context, query *repository.ListQuery) ([]models.TestReport, int64, error) {
	return s.testReportRepo.List(ctx, query)
}
