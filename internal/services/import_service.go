package services

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/coachdesk/coachdesk-api/internal/feeledger"
	"github.com/coachdesk/coachdesk-api/internal/jobs"
	"github.com/coachdesk/coachdesk-api/internal/models"
	"github.com/coachdesk/coachdesk-api/pkg/logger"
)

// importColumns is the expected header row of an installment sheet
var importColumns = []string{"roll_no", "amount", "mode", "date_of_receipt", "receipt_number", "utr"}

// ImportRowError describes why one row of a bulk import was rejected
type ImportRowError struct {
	Row     int    `json:"row"`
	RollNo  uint   `json:"roll_no,omitempty"`
	Message string `json:"message"`
}

// ImportResult summarizes a bulk installment import. Failed rows never stop
// the run; each is reported and the rest continue.
type ImportResult struct {
	Total    int              `json:"total"`
	Imported int              `json:"imported"`
	Failed   int              `json:"failed"`
	Errors   []ImportRowError `json:"errors,omitempty"`
}

// ImportService loads fee installments in bulk from spreadsheets
type ImportService struct {
	feeSvc          *FeeService
	notificationSvc *NotificationService
	worker          *jobs.Worker
}

// NewImportService creates a new import service
func NewImportService(feeSvc *FeeService, notificationSvc *NotificationService, worker *jobs.Worker) *ImportService {
	return &ImportService{feeSvc: feeSvc, notificationSvc: notificationSvc, worker: worker}
}

// ImportInstallments reads an XLSX sheet of installments and records each row
// through the regular collection path, so every ledger rule applies per row.
func (s *ImportService) ImportInstallments(ctx context.Context, r io.Reader, actor Actor) (*ImportResult, error) {
	if !actor.CanCollectFees() {
		return nil, ErrUnauthorized
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: not a valid XLSX file: %v", ErrValidation, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: sheet has no data rows", ErrValidation)
	}
	if err := checkHeader(rows[0]); err != nil {
		return nil, err
	}

	result := &ImportResult{Total: len(rows) - 1}
	for i, row := range rows[1:] {
		rowNum := i + 2
		rollNo, in, err := parseImportRow(row)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, RollNo: rollNo, Message: err.Error()})
			continue
		}
		if _, err := s.feeSvc.RecordInstallment(ctx, rollNo, in, 0, actor); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, RollNo: rollNo, Message: err.Error()})
			continue
		}
		result.Imported++
	}

	return result, nil
}

// ImportInstallmentsAsync runs an import in the background and notifies the
// actor when it finishes. The file content must already be buffered since
// the request body is gone by the time the job runs.
func (s *ImportService) ImportInstallmentsAsync(r io.Reader, actor Actor) {
	s.worker.EnqueueAsync(func(ctx context.Context) error {
		result, err := s.ImportInstallments(ctx, r, actor)
		if err != nil {
			logger.Error("Bulk installment import failed", "user_id", actor.UserID, "error", err)
			return s.notificationSvc.Notify(ctx, actor.UserID,
				"Import failed", err.Error(), models.NotificationTypeImportFinished)
		}
		msg := fmt.Sprintf("Imported %d of %d installments, %d failed", result.Imported, result.Total, result.Failed)
		return s.notificationSvc.Notify(ctx, actor.UserID,
			"Import finished", msg, models.NotificationTypeImportFinished)
	})
}

func checkHeader(header []string) error {
	if len(header) < len(importColumns)-1 {
		return fmt.Errorf("%w: expected columns %s", ErrValidation, strings.Join(importColumns, ", "))
	}
	for i, want := range importColumns[:5] {
		got := strings.ToLower(strings.TrimSpace(header[i]))
		if got != want {
			return fmt.Errorf("%w: column %d must be %q, got %q", ErrValidation, i+1, want, got)
		}
	}
	return nil
}

func parseImportRow(row []string) (uint, InstallmentInput, error) {
	var in InstallmentInput

	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	rollNo64, err := strconv.ParseUint(cell(0), 10, 32)
	if err != nil {
		return 0, in, fmt.Errorf("invalid roll number %q", cell(0))
	}
	rollNo := uint(rollNo64)

	amount, err := feeledger.ParseAmount(cell(1))
	if err != nil {
		return rollNo, in, fmt.Errorf("invalid amount %q", cell(1))
	}

	mode := feeledger.NormalizeMode(cell(2))
	if !feeledger.ValidMode(mode) {
		return rollNo, in, fmt.Errorf("unknown payment mode %q", cell(2))
	}

	date, err := parseImportDate(cell(3))
	if err != nil {
		return rollNo, in, err
	}

	receipt := cell(4)
	if receipt == "" {
		return rollNo, in, fmt.Errorf("receipt number is required")
	}

	in = InstallmentInput{
		Amount:        amount,
		Mode:          mode,
		DateOfReceipt: date,
		ReceiptNumber: receipt,
	}
	if utr := cell(5); utr != "" {
		in.UTR = &utr
	}
	return rollNo, in, nil
}

// parseImportDate accepts the formats office spreadsheets commonly use
func parseImportDate(raw string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "02/01/2006", "02-01-2006", "01-02-06"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD or DD/MM/YYYY", raw)
}
