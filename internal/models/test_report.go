package models

import (
	"time"
)

// TestReport stores one student's marks for one test
type TestReport struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	RollNo        uint      `gorm:"not null;index" json:"roll_no"`
	TestName      string    `gorm:"not null" json:"test_name"`
	Subject       string    `json:"subject"`
	TestDate      time.Time `gorm:"type:date;index" json:"test_date"`
	MarksObtained float64   `gorm:"type:decimal(6,2);not null" json:"marks_obtained"`
	TotalMarks    float64   `gorm:"type:decimal(6,2);not null" json:"total_marks"`
	Remarks       *string   `gorm:"type:text" json:"remarks"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Associations
	Student Student `gorm:"foreignKey:RollNo;references:RollNo" json:"student,omitempty"`
}

// TableName specifies the table name for TestReport
func (TestReport) TableName() string {
	return "test_reports"
}

// Percentage returns marks as a percentage, zero when total marks is zero.
func (t *TestReport) Percentage() float64 {
	if t.TotalMarks <= 0 {
		return 0
	}
	return t.MarksObtained / t.TotalMarks * 100
}

// TestReportResponse is the JSON response format for test reports
type TestReportResponse struct {
	ID            uint      `json:"id"`
	RollNo        uint      `json:"roll_no"`
	StudentName   string    `json:"student_name,omitempty"`
	TestName      string    `json:"test_name"`
	Subject       string    `json:"subject"`
	TestDate      time.Time `json:"test_date"`
	MarksObtained float64   `json:"marks_obtained"`
	TotalMarks    float64   `json:"total_marks"`
	Percentage    float64   `json:"percentage"`
	Remarks       *string   `json:"remarks"`
}

// ToResponse converts TestReport to TestReportResponse
func (t *TestReport) ToResponse() TestReportResponse {
	resp := TestReportResponse{
		ID:            t.ID,
		RollNo:        t.RollNo,
		TestName:      t.TestName,
		Subject:       t.Subject,
		TestDate:      t.TestDate,
		MarksObtained: t.MarksObtained,
		TotalMarks:    t.TotalMarks,
		Percentage:    t.Percentage(),
		Remarks:       t.Remarks,
	}
	if t.Student.ID != 0 {
		resp.StudentName = t.Student.Name
	}
	return resp
}
