package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/coachdesk/coachdesk-api/internal/models"
	"github.com/coachdesk/coachdesk-api/internal/repository"
)

// ExportService renders fee and student data as downloadable files
type ExportService struct {
	feeRepo     repository.FeeRepository
	studentRepo repository.StudentRepository
}

// NewExportService creates a new export service
func NewExportService(feeRepo repository.FeeRepository, studentRepo repository.StudentRepository) *ExportService {
	return &ExportService{feeRepo: feeRepo, studentRepo: studentRepo}
}

var feeExportHeader = []string{
	"Roll No", "Student", "Batch", "Total Fees", "Discount", "Final Fees",
	"Paid", "Pending", "Status", "Due Date",
}

// collectFeeRecords pages through the repository so exports are not capped
// by the API page size.
func (s *ExportService) collectFeeRecords(ctx context.Context, filters map[string]string) ([]models.FeeRecord, error) {
	var all []models.FeeRecord
	for page := 1; ; page++ {
		query := &repository.ListQuery{Page: page, PerPage: 100, Filters: filters}
		records, total, err := s.feeRepo.List(ctx, query)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
		if int64(len(all)) >= total || len(records) == 0 {
			return all, nil
		}
	}
}

func feeExportRow(record *models.FeeRecord) []string {
	batchName := ""
	if record.Student.Batch.ID != 0 {
		batchName = record.Student.Batch.Name
	}
	dueDate := ""
	if !record.DueDate.IsZero() {
		dueDate = record.DueDate.Format("2006-01-02")
	}
	return []string{
		strconv.FormatUint(uint64(record.RollNo), 10),
		record.Student.Name,
		batchName,
		fmt.Sprintf("%.2f", record.TotalFees),
		fmt.Sprintf("%.2f", record.Discount),
		fmt.Sprintf("%.2f", record.FinalFees),
		fmt.Sprintf("%.2f", record.PaidAmount),
		fmt.Sprintf("%.2f", record.PendingAmount()),
		string(record.DerivedStatus()),
		dueDate,
	}
}

// FeeRecordsCSV exports the fee ledger as CSV
func (s *ExportService) FeeRecordsCSV(ctx context.Context, filters map[string]string) ([]byte, error) {
	records, err := s.collectFeeRecords(ctx, filters)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(feeExportHeader); err != nil {
		return nil, err
	}
	for i := range records {
		if err := w.Write(feeExportRow(&records[i])); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FeeRecordsXLSX exports the fee ledger as a styled spreadsheet
func (s *ExportService) FeeRecordsXLSX(ctx context.Context, filters map[string]string) ([]byte, error) {
	records, err := s.collectFeeRecords(ctx, filters)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Fee Records"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"305496"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}

	for col, title := range feeExportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, title)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for i := range records {
		for col, value := range feeExportRow(&records[i]) {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(sheet, cell, value)
		}
	}
	f.SetColWidth(sheet, "A", "J", 16)

	summaryRow := len(records) + 3
	var collected, pending float64
	for i := range records {
		collected += records[i].PaidAmount
		pending += records[i].PendingAmount()
	}
	cell, _ := excelize.CoordinatesToCellName(1, summaryRow)
	f.SetCellValue(sheet, cell, fmt.Sprintf("Generated %s. Collected %.2f, pending %.2f.",
		time.Now().Format("02 Jan 2006"), collected, pending))

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// StudentsXLSX exports the student register as a spreadsheet
func (s *ExportService) StudentsXLSX(ctx context.Context, filters map[string]string) ([]byte, error) {
	var all []models.Student
	for page := 1; ; page++ {
		query := &repository.ListQuery{Page: page, PerPage: 100, Filters: filters}
		students, total, err := s.studentRepo.List(ctx, query)
		if err != nil {
			return nil, err
		}
		all = append(all, students...)
		if int64(len(all)) >= total || len(students) == 0 {
			break
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Students"
	f.SetSheetName(f.GetSheetName(0), sheet)

	header := []string{"Roll No", "Name", "Father's Name", "Phone", "Class", "School", "Batch", "Admission Date", "Active"}
	for col, title := range header {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, title)
	}

	for i := range all {
		student := &all[i]
		batchName := ""
		if student.Batch.ID != 0 {
			batchName = student.Batch.Name
		}
		row := []interface{}{
			student.RollNo,
			student.Name,
			student.FatherName,
			student.Phone,
			student.Class,
			student.School,
			batchName,
			student.AdmissionDate.Format("2006-01-02"),
			student.Active,
		}
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(sheet, cell, value)
		}
	}
	f.SetColWidth(sheet, "A", "I", 16)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
