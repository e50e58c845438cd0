package models

import (
	"time"

	"github.com/coachdesk/coachdesk-api/internal/feeledger"
)

// FeeRecord is the per-student fee ledger entry. There is exactly one record
// per roll number; FinalFees, PaidAmount and Status are owned by the fee
// service and always recomputed through the feeledger package, never written
// by collaborators directly.
type FeeRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	RollNo     uint      `gorm:"not null;uniqueIndex" json:"roll_no"`
	TotalFees  float64   `gorm:"type:decimal(12,2);not null" json:"total_fees"`
	Discount   float64   `gorm:"type:decimal(12,2);default:0" json:"discount"`
	FinalFees  float64   `gorm:"type:decimal(12,2);not null" json:"final_fees"`
	PaidAmount float64   `gorm:"type:decimal(12,2);default:0" json:"paid_amount"`
	Status     string    `gorm:"default:unpaid;not null;index" json:"status"`
	DueDate    time.Time `gorm:"type:date" json:"due_date"`
	ApprovedBy string    `json:"approved_by"`
	// Version is the optimistic concurrency token: bumped on every mutation,
	// checked by RecordInstallment when the caller supplies the version it read.
	Version   uint      `gorm:"default:1;not null" json:"version"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Student     Student         `gorm:"foreignKey:RollNo;references:RollNo" json:"student,omitempty"`
	Submissions []FeeSubmission `gorm:"foreignKey:FeeRecordID" json:"submissions,omitempty"`
}

// TableName specifies the table name for FeeRecord
func (FeeRecord) TableName() string {
	return "fee_records"
}

// PendingAmount is always derived, never stored.
func (f *FeeRecord) PendingAmount() float64 {
	return feeledger.ComputeRemaining(f.FinalFees, f.PaidAmount)
}

// DerivedStatus recomputes the tri-state status from the current amounts.
// Display surfaces use this instead of trusting the persisted Status column,
// which may be stale relative to the submissions sequence.
func (f *FeeRecord) DerivedStatus() feeledger.Status {
	return feeledger.DeriveStatus(f.FinalFees, f.PaidAmount)
}

// IsOverdue returns true when a balance is pending past the due date.
func (f *FeeRecord) IsOverdue() bool {
	return f.PendingAmount() > 0 && !f.DueDate.IsZero() && time.Now().After(f.DueDate)
}

// FeeSubmission is one recorded payment event belonging to a FeeRecord.
// Submissions are append-only; insertion order is the chronological order of
// recording, which need not match the payment date.
type FeeSubmission struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	FeeRecordID   uint      `gorm:"not null;index" json:"fee_record_id"`
	Amount        float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	Mode          string    `gorm:"not null" json:"mode"`
	DateOfReceipt time.Time `gorm:"type:date;not null" json:"date_of_receipt"`
	ReceiptNumber string    `gorm:"not null;uniqueIndex" json:"receipt_number"`
	UTR           *string   `json:"utr,omitempty"`
	RecordedBy    string    `json:"recorded_by"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`

	// Associations
	FeeRecord FeeRecord `gorm:"foreignKey:FeeRecordID" json:"-"`
}

// TableName specifies the table name for FeeSubmission
func (FeeSubmission) TableName() string {
	return "fee_submissions"
}

// FeeSubmissionResponse is the JSON response format for submissions
type FeeSubmissionResponse struct {
	ID            uint      `json:"id"`
	Amount        float64   `json:"amount"`
	Mode          string    `json:"mode"`
	DateOfReceipt time.Time `json:"date_of_receipt"`
	ReceiptNumber string    `json:"receipt_number"`
	UTR           *string   `json:"utr,omitempty"`
	RecordedBy    string    `json:"recorded_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ToResponse converts FeeSubmission to FeeSubmissionResponse
func (s *FeeSubmission) ToResponse() FeeSubmissionResponse {
	return FeeSubmissionResponse{
		ID:            s.ID,
		Amount:        s.Amount,
		Mode:          s.Mode,
		DateOfReceipt: s.DateOfReceipt,
		ReceiptNumber: s.ReceiptNumber,
		UTR:           s.UTR,
		RecordedBy:    s.RecordedBy,
		CreatedAt:     s.CreatedAt,
	}
}

// FeeRecordResponse is the JSON response format for fee records
type FeeRecordResponse struct {
	ID            uint                    `json:"id"`
	RollNo        uint                    `json:"roll_no"`
	StudentName   string                  `json:"student_name,omitempty"`
	BatchName     string                  `json:"batch_name,omitempty"`
	TotalFees     float64                 `json:"total_fees"`
	Discount      float64                 `json:"discount"`
	FinalFees     float64                 `json:"final_fees"`
	PaidAmount    float64                 `json:"paid_amount"`
	PendingAmount float64                 `json:"pending_amount"`
	Status        string                  `json:"status"`
	DueDate       time.Time               `json:"due_date"`
	ApprovedBy    string                  `json:"approved_by"`
	Version       uint                    `json:"version"`
	Overdue       bool                    `json:"overdue"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
	Submissions   []FeeSubmissionResponse `json:"submissions,omitempty"`
}

// ToResponse converts FeeRecord to FeeRecordResponse. Pending amount and
// status are recomputed here so every display surface shares one derivation.
func (f *FeeRecord) ToResponse() FeeRecordResponse {
	resp := FeeRecordResponse{
		ID:            f.ID,
		RollNo:        f.RollNo,
		TotalFees:     f.TotalFees,
		Discount:      f.Discount,
		FinalFees:     f.FinalFees,
		PaidAmount:    f.PaidAmount,
		PendingAmount: f.PendingAmount(),
		Status:        string(f.DerivedStatus()),
		DueDate:       f.DueDate,
		ApprovedBy:    f.ApprovedBy,
		Version:       f.Version,
		Overdue:       f.IsOverdue(),
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}

	if f.Student.ID != 0 {
		resp.StudentName = f.Student.Name
		if f.Student.Batch.ID != 0 {
			resp.BatchName = f.Student.Batch.Name
		}
	}

	for _, sub := range f.Submissions {
		resp.Submissions = append(resp.Submissions, sub.ToResponse())
	}

	return resp
}
