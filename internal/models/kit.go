package models

import (
	"time"
)

// Kit represents a study-material kit handed out to students
type Kit struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null;uniqueIndex" json:"name"`
	Description *string   `gorm:"type:text" json:"description"`
	Price       float64   `gorm:"type:decimal(10,2);default:0" json:"price"`
	Active      bool      `gorm:"default:true;index" json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for Kit
func (Kit) TableName() string {
	return "kits"
}

// KitIssue records a kit handed to a specific student
type KitIssue struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	KitID     uint      `gorm:"not null;index" json:"kit_id"`
	RollNo    uint      `gorm:"not null;index" json:"roll_no"`
	IssuedAt  time.Time `gorm:"type:date;not null" json:"issued_at"`
	IssuedBy  string    `json:"issued_by"`
	CreatedAt time.Time `json:"created_at"`

	// Associations
	Kit     Kit     `gorm:"foreignKey:KitID" json:"kit,omitempty"`
	Student Student `gorm:"foreignKey:RollNo;references:RollNo" json:"student,omitempty"`
}

// TableName specifies the table name for KitIssue
func (KitIssue) TableName() string {
	return "kit_issues"
}

// KitResponse is the JSON response format for kits
type KitResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       float64   `json:"price"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToResponse converts Kit to KitResponse
func (k *Kit) ToResponse() KitResponse {
	return KitResponse{
		ID:          k.ID,
		Name:        k.Name,
		Description: k.Description,
		Price:       k.Price,
		Active:      k.Active,
		CreatedAt:   k.CreatedAt,
	}
}

// KitIssueResponse is the JSON response format for kit issues
type KitIssueResponse struct {
	ID          uint      `json:"id"`
	KitID       uint      `json:"kit_id"`
	KitName     string    `json:"kit_name,omitempty"`
	RollNo      uint      `json:"roll_no"`
	StudentName string    `json:"student_name,omitempty"`
	IssuedAt    time.Time `json:"issued_at"`
	IssuedBy    string    `json:"issued_by"`
}

// ToResponse converts KitIssue to KitIssueResponse
func (i *KitIssue) ToResponse() KitIssueResponse {
	resp := KitIssueResponse{
		ID:       i.ID,
		KitID:    i.KitID,
		RollNo:   i.RollNo,
		IssuedAt: i.IssuedAt,
		IssuedBy: i.IssuedBy,
	}
	if i.Kit.ID != 0 {
		resp.KitName = i.Kit.Name
	}
	if i.Student.ID != 0 {
		resp.StudentName = i.Student.Name
	}
	return resp
}
