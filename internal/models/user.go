package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User represents a staff member of the institute
type User struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	FullName          string     `gorm:"not null" json:"full_name"`
	Email             string     `gorm:"not null;uniqueIndex" json:"email"`
	Phone             string     `json:"phone"`
	EncryptedPassword string     `gorm:"not null" json:"-"`
	Role              string     `gorm:"default:teacher;not null;index" json:"role"`
	Active            bool       `gorm:"default:true;index" json:"active"`
	LastSignInAt      *time.Time `json:"last_sign_in_at"`
	DiscardedAt       *time.Time `gorm:"index" json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// Staff role constants
const (
	RoleAdmin      = "admin"
	RoleAccountant = "accountant"
	RoleTeacher    = "teacher"
)

// SetPassword hashes and stores a plaintext password
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.EncryptedPassword = string(hash)
	return nil
}

// CheckPassword compares a plaintext password against the stored hash
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.EncryptedPassword), []byte(password)) == nil
}

// IsAdmin returns true for admin users
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanCollectFees returns true for roles allowed to record fee payments
func (u *User) CanCollectFees() bool {
	return u.Role == RoleAdmin || u.Role == RoleAccountant
}

// UserResponse is the JSON response format for users
type UserResponse struct {
	ID           uint       `json:"id"`
	FullName     string     `json:"full_name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	Role         string     `json:"role"`
	Active       bool       `json:"active"`
	LastSignInAt *time.Time `json:"last_sign_in_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:           u.ID,
		FullName:     u.FullName,
		Email:        u.Email,
		Phone:        u.Phone,
		Role:         u.Role,
		Active:       u.Active,
		LastSignInAt: u.LastSignInAt,
		CreatedAt:    u.CreatedAt,
	}
}

// RefreshToken represents a JWT refresh token
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Associations
	User User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName specifies the table name for RefreshToken
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// IsExpired returns true if the refresh token has expired
func (r *RefreshToken) IsExpired() bool {
	if r.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*r.ExpiresAt)
}
