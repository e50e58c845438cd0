package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	wkhtmltopdf "github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/jung-kurt/gofpdf"
	"gorm.io/gorm"

	"github.com/coachdesk/coachdesk-api/internal/models"
	"github.com/coachdesk/coachdesk-api/internal/repository"
)

// ReportService renders receipts and fee statements as PDF
type ReportService struct {
	feeRepo       repository.FeeRepository
	instituteName string
}

// NewReportService creates a new report service
func NewReportService(feeRepo repository.FeeRepository, instituteName string) *ReportService {
	if instituteName == "" {
		instituteName = "CoachDesk Institute"
	}
	return &ReportService{feeRepo: feeRepo, instituteName: instituteName}
}

// ReceiptPDF renders a single payment receipt. Receipts are compact and
// generated inline with gofpdf; no external renderer is needed.
func (s *ReportService) ReceiptPDF(ctx context.Context, receiptNumber string) ([]byte, error) {
	submission, err := s.feeRepo.FindSubmissionByReceipt(ctx, receiptNumber)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	record := submission.FeeRecord
	student := record.Student

	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, s.instituteName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Fee Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	line := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(45, 7, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 7, value, "", 1, "L", false, 0, "")
	}

	line("Receipt No:", submission.ReceiptNumber)
	line("Date:", submission.DateOfReceipt.Format("02 Jan 2006"))
	line("Roll No:", fmt.Sprintf("%d", record.RollNo))
	if student.ID != 0 {
		line("Student:", student.Name)
		if student.FatherName != "" {
			line("Father's Name:", student.FatherName)
		}
	}
	pdf.Ln(2)

	line("Amount Paid:", fmt.Sprintf("%.2f", submission.Amount))
	line("Payment Mode:", submission.Mode)
	if submission.UTR != nil && *submission.UTR != "" {
		line("UTR / Ref:", *submission.UTR)
	}
	pdf.Ln(2)

	line("Total Fees:", fmt.Sprintf("%.2f", record.FinalFees))
	line("Paid So Far:", fmt.Sprintf("%.2f", record.PaidAmount))
	line("Balance:", fmt.Sprintf("%.2f", record.PendingAmount()))
	line("Status:", string(record.DerivedStatus()))

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(0, 5, fmt.Sprintf("Recorded by %s. Generated on %s.",
		submission.RecordedBy, time.Now().Format("02 Jan 2006 15:04")), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// StatementPDF renders a student's full fee statement. Statements carry the
// whole submission table, so they go through wkhtmltopdf from an HTML layout.
func (s *ReportService) StatementPDF(ctx context.Context, rollNo uint) ([]byte, error) {
	record, err := s.feeRepo.FindByRollNoWithSubmissions(ctx, rollNo)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	html := s.statementHTML(record)

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("init pdf generator: %w", err)
	}
	pdfg.Dpi.Set(96)
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA4)

	page := wkhtmltopdf.NewPageReader(strings.NewReader(html))
	page.EnableLocalFileAccess.Set(false)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("render statement pdf: %w", err)
	}
	return pdfg.Bytes(), nil
}

func (s *ReportService) statementHTML(record *models.FeeRecord) string {
	var b strings.Builder

	b.WriteString(`<html><head><style>
		body { font-family: Helvetica, Arial, sans-serif; font-size: 12px; color: #222; }
		h1 { font-size: 20px; margin-bottom: 0; }
		h2 { font-size: 14px; color: #555; margin-top: 4px; }
		table { border-collapse: collapse; width: 100%; margin-top: 12px; }
		th, td { border: 1px solid #bbb; padding: 6px 8px; text-align: left; }
		th { background: #305496; color: #fff; }
		.summary td { border: none; padding: 3px 8px; }
		.right { text-align: right; }
	</style></head><body>`)

	fmt.Fprintf(&b, "<h1>%s</h1><h2>Fee Statement</h2>", s.instituteName)

	fmt.Fprintf(&b, `<table class="summary">
		<tr><td><b>Roll No:</b> %d</td><td><b>Student:</b> %s</td></tr>
		<tr><td><b>Total Fees:</b> %.2f</td><td><b>Discount:</b> %.2f</td></tr>
		<tr><td><b>Final Fees:</b> %.2f</td><td><b>Paid:</b> %.2f</td></tr>
		<tr><td><b>Pending:</b> %.2f</td><td><b>Status:</b> %s</td></tr>
	</table>`,
		record.RollNo, record.Student.Name,
		record.TotalFees, record.Discount,
		record.FinalFees, record.PaidAmount,
		record.PendingAmount(), string(record.DerivedStatus()))

	b.WriteString(`<table><tr><th>#</th><th>Receipt No</th><th>Date</th><th>Mode</th><th class="right">Amount</th><th>Recorded By</th></tr>`)
	for i, sub := range record.Submissions {
		fmt.Fprintf(&b, `<tr><td>%d</td><td>%s</td><td>%s</td><td>%s</td><td class="right">%.2f</td><td>%s</td></tr>`,
			i+1, sub.ReceiptNumber, sub.DateOfReceipt.Format("02 Jan 2006"), sub.Mode, sub.Amount, sub.RecordedBy)
	}
	b.WriteString("</table>")

	fmt.Fprintf(&b, `<p style="margin-top:16px;font-size:10px;color:#777;">Generated on %s.</p>`,
		time.Now().Format("02 Jan 2006 15:04"))
	b.WriteString("</body></html>")

	return b.String()
}
