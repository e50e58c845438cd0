package models

import (
	"time"
)

// Batch represents a class batch students are assigned to
type Batch struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null;uniqueIndex" json:"name"`
	Subject   string    `json:"subject"`
	Timing    string    `json:"timing"`
	Capacity  int       `gorm:"default:0" json:"capacity"`
	Active    bool      `gorm:"default:true;index" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Students []Student `gorm:"foreignKey:BatchID" json:"students,omitempty"`
}

// TableName specifies the table name for Batch
func (Batch) TableName() string {
	return "batches"
}

// BatchResponse is the JSON response format for batches
type BatchResponse struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Subject      string    `json:"subject"`
	Timing       string    `json:"timing"`
	Capacity     int       `json:"capacity"`
	Active       bool      `json:"active"`
	StudentCount int       `json:"student_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToResponse converts Batch to BatchResponse
func (b *Batch) ToResponse() BatchResponse {
	return BatchResponse{
		ID:           b.ID,
		Name:         b.Name,
		Subject:      b.Subject,
		Timing:       b.Timing,
		Capacity:     b.Capacity,
		Active:       b.Active,
		StudentCount: len(b.Students),
		CreatedAt:    b.CreatedAt,
	}
}
