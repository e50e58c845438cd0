package models

import (
	"time"
)

// AuditLog records who changed what. Every fee mutation writes one row so
// collections can be traced back to the staff member who recorded them.
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"index" json:"user_id"`
	Action     string    `gorm:"not null;index" json:"action"`
	EntityType string    `gorm:"not null;index" json:"entity_type"`
	EntityID   uint      `gorm:"index" json:"entity_id"`
	Detail     string    `gorm:"type:text" json:"detail"`
	IP         string    `json:"ip"`
	UserAgent  string    `json:"user_agent"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`

	// Associations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}

// AuditLogResponse is the JSON response format for audit entries
type AuditLogResponse struct {
	ID         uint      `json:"id"`
	UserID     uint      `json:"user_id"`
	UserName   string    `json:"user_name,omitempty"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   uint      `json:"entity_id"`
	Detail     string    `json:"detail"`
	IP         string    `json:"ip"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToResponse converts AuditLog to AuditLogResponse
func (a *AuditLog) ToResponse() AuditLogResponse {
	resp := AuditLogResponse{
		ID:         a.ID,
		UserID:     a.UserID,
		Action:     a.Action,
		EntityType: a.EntityType,
		EntityID:   a.EntityID,
		Detail:     a.Detail,
		IP:         a.IP,
		CreatedAt:  a.CreatedAt,
	}
	if a.User.ID != 0 {
		resp.UserName = a.User.FullName
	}
	return resp
}
