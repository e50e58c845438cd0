package models

import (
	"time"
)

// Attendance status constants
const (
	AttendanceStatusPresent = "present"
	AttendanceStatusAbsent  = "absent"
	AttendanceStatusLeave   = "leave"
)

// AttendanceRecord marks one student on one date. A student has at most one
// row per date, enforced by the composite unique index.
type AttendanceRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RollNo    uint      `gorm:"not null;uniqueIndex:idx_attendance_roll_date" json:"roll_no"`
	Date      time.Time `gorm:"type:date;not null;uniqueIndex:idx_attendance_roll_date;index" json:"date"`
	Status    string    `gorm:"not null" json:"status"`
	BatchID   *uint     `gorm:"index" json:"batch_id"`
	MarkedBy  string    `json:"marked_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Student Student `gorm:"foreignKey:RollNo;references:RollNo" json:"student,omitempty"`
}

// TableName specifies the table name for AttendanceRecord
func (AttendanceRecord) TableName() string {
	return "attendance_records"
}

// AttendanceResponse is the JSON response format for attendance
type AttendanceResponse struct {
	ID          uint      `json:"id"`
	RollNo      uint      `json:"roll_no"`
	StudentName string    `json:"student_name,omitempty"`
	Date        time.Time `json:"date"`
	Status      string    `json:"status"`
	BatchID     *uint     `json:"batch_id"`
	MarkedBy    string    `json:"marked_by"`
}

// ToResponse converts AttendanceRecord to AttendanceResponse
func (a *AttendanceRecord) ToResponse() AttendanceResponse {
	resp := AttendanceResponse{
		ID:       a.ID,
		RollNo:   a.RollNo,
		Date:     a.Date,
		Status:   a.Status,
		BatchID:  a.BatchID,
		MarkedBy: a.MarkedBy,
	}
	if a.Student.ID != 0 {
		resp.StudentName = a.Student.Name
	}
	return resp
}
