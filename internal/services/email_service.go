package services

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"

	"github.com/coachdesk/coachdesk-api/internal/models"
	"github.com/coachdesk/coachdesk-api/pkg/logger"
)

// EmailService sends transactional email through Resend. With no API key
// configured it degrades to logging, so development setups work offline.
type EmailService struct {
	client    *resend.Client
	fromEmail string
	enabled   bool
}

// NewEmailService creates a new email service
func NewEmailService(apiKey, fromEmail string) *EmailService {
	svc := &EmailService{fromEmail: fromEmail}
	if apiKey != "" {
		svc.client = resend.NewClient(apiKey)
		svc.enabled = true
	}
	return svc
}

func (s *EmailService) send(to, subject, html string) error {
	if !s.enabled {
		logger.Info("Email sending disabled, skipping", "to", to, "subject", subject)
		return nil
	}
	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}
	if _, err := s.client.Emails.Send(params); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	return nil
}

// SendReceiptConfirmation mails the student a confirmation of a recorded
// installment. Students without an email on file are skipped.
func (s *EmailService) SendReceiptConfirmation(ctx context.Context, student *models.Student, record *models.FeeRecord, submission *models.FeeSubmission) error {
	if student == nil || student.Email == nil || *student.Email == "" {
		return nil
	}
	subject := fmt.Sprintf("Payment received, receipt %s", submission.ReceiptNumber)
	html := fmt.Sprintf(`
		<h2>Payment Received</h2>
		<p>Dear %s,</p>
		<p>We have received your payment of <strong>%.2f</strong> (%s) on %s.</p>
		<p>Receipt number: <strong>%s</strong></p>
		<p>Remaining balance: <strong>%.2f</strong></p>
		<p>Thank you.</p>`,
		student.Name,
		submission.Amount,
		submission.Mode,
		submission.DateOfReceipt.Format("02 Jan 2006"),
		submission.ReceiptNumber,
		record.PendingAmount(),
	)
	return s.send(*student.Email, subject, html)
}

// SendOverdueReminder mails the student about a pending balance past its
// due date.
func (s *EmailService) SendOverdueReminder(ctx context.Context, record *models.FeeRecord) error {
	student := record.Student
	if student.Email == nil || *student.Email == "" {
		return nil
	}
	subject := "Fee payment reminder"
	html := fmt.Sprintf(`
		<h2>Fee Payment Reminder</h2>
		<p>Dear %s,</p>
		<p>Your fee balance of <strong>%.2f</strong> was due on %s.</p>
		<p>Please visit the office to clear the pending amount.</p>`,
		student.Name,
		record.PendingAmount(),
		record.DueDate.Format("02 Jan 2006"),
	)
	return s.send(*student.Email, subject, html)
}

// SendWelcome mails credentials to a newly created staff user
func (s *EmailService) SendWelcome(ctx context.Context, user *models.User, tempPassword string) error {
	subject := "Your CoachDesk account"
	html := fmt.Sprintf(`
		<h2>Welcome to CoachDesk</h2>
		<p>Hi %s,</p>
		<p>An account has been created for you with the role <strong>%s</strong>.</p>
		<p>Temporary password: <strong>%s</strong></p>
		<p>Please sign in and change it right away.</p>`,
		user.FullName, user.Role, tempPassword,
	)
	return s.send(user.Email, subject, html)
}
