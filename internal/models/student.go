package models

import (
	"time"
)

// Student represents an enrolled student
type Student struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	RollNo        uint       `gorm:"not null;uniqueIndex" json:"roll_no"`
	Name          string     `gorm:"not null" json:"name"`
	FatherName    string     `json:"father_name"`
	Phone         string     `json:"phone"`
	GuardianPhone string     `json:"guardian_phone"`
	Email         *string    `json:"email"`
	Address       *string    `gorm:"type:text" json:"address"`
	School        string     `json:"school"`
	Class         string     `json:"class"`
	BatchID       *uint      `gorm:"index" json:"batch_id"`
	PhotoPath     *string    `json:"-"`
	AdmissionDate time.Time  `gorm:"type:date" json:"admission_date"`
	Active        bool       `gorm:"default:true;index" json:"active"`
	DiscardedAt   *time.Time `gorm:"index" json:"-"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Associations
	Batch     Batch      `gorm:"foreignKey:BatchID" json:"batch,omitempty"`
	FeeRecord *FeeRecord `gorm:"foreignKey:RollNo;references:RollNo" json:"fee_record,omitempty"`
}

// TableName specifies the table name for Student
func (Student) TableName() string {
	return "students"
}

// StudentResponse is the JSON response format for students
type StudentResponse struct {
	ID            uint      `json:"id"`
	RollNo        uint      `json:"roll_no"`
	Name          string    `json:"name"`
	FatherName    string    `json:"father_name"`
	Phone         string    `json:"phone"`
	GuardianPhone string    `json:"guardian_phone"`
	Email         *string   `json:"email"`
	Address       *string   `json:"address"`
	School        string    `json:"school"`
	Class         string    `json:"class"`
	BatchID       *uint     `json:"batch_id"`
	BatchName     string    `json:"batch_name,omitempty"`
	HasPhoto      bool      `json:"has_photo"`
	AdmissionDate time.Time `json:"admission_date"`
	Active        bool      `json:"active"`
	FeeStatus     string    `json:"fee_status,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ToResponse converts Student to StudentResponse
func (s *Student) ToResponse() StudentResponse {
	resp := StudentResponse{
		ID:            s.ID,
		RollNo:        s.RollNo,
		Name:          s.Name,
		FatherName:    s.FatherName,
		Phone:         s.Phone,
		GuardianPhone: s.GuardianPhone,
		Email:         s.Email,
		Address:       s.Address,
		School:        s.School,
		Class:         s.Class,
		BatchID:       s.BatchID,
		HasPhoto:      s.PhotoPath != nil && *s.PhotoPath != "",
		AdmissionDate: s.AdmissionDate,
		Active:        s.Active,
		CreatedAt:     s.CreatedAt,
	}

	if s.Batch.ID != 0 {
		resp.BatchName = s.Batch.Name
	}
	if s.FeeRecord != nil && s.FeeRecord.ID != 0 {
		resp.FeeStatus = string(s.FeeRecord.DerivedStatus())
	}

	return resp
}
