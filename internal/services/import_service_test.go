package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildImportSheet(t *testing.T, header []string, rows [][]interface{}) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, col := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, col))
	}
	for r, row := range rows {
		for c, val := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, val))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func importHeader() []string {
	return []string{"roll_no", "amount", "mode", "date_of_receipt", "receipt_number", "utr"}
}

func newImportTestEnv(t *testing.T) (*ImportService, *feeTestEnv) {
	t.Helper()
	env := newFeeTestEnv(t)
	createRecord(t, env, 101, 10000, 0, 1000)
	svc := NewImportService(env.svc, NewNotificationService(&mockNotificationRepo{}, &mockUserRepo{}), env.worker)
	return svc, env
}

func TestImportInstallments(t *testing.T) {
	svc, env := newImportTestEnv(t)

	sheet := buildImportSheet(t, importHeader(), [][]interface{}{
		{"101", "2000", "cash", "2026-04-15", "IMP-001", ""},
		{"101", "500.50", "Online", "20/04/2026", "IMP-002", "UTR123456"},
	})

	result, err := svc.ImportInstallments(context.Background(), sheet, accountant())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, result.Errors)

	stored := env.feeRepo.stored(101)
	assert.Equal(t, 3500.50, stored.PaidAmount)
	assert.Len(t, stored.Submissions, 3)
	require.NotNil(t, stored.Submissions[2].UTR)
	assert.Equal(t, "UTR123456", *stored.Submissions[2].UTR)
}

func TestImportInstallmentsBadRowsContinue(t *testing.T) {
	svc, env := newImportTestEnv(t)

	sheet := buildImportSheet(t, importHeader(), [][]interface{}{
		{"abc", "100", "cash", "2026-04-15", "IMP-010", ""},      // bad roll number
		{"101", "-50", "cash", "2026-04-15", "IMP-011", ""},      // bad amount
		{"101", "100", "barter", "2026-04-15", "IMP-012", ""},    // bad mode
		{"101", "100", "cash", "someday", "IMP-013", ""},         // bad date
		{"101", "100", "cash", "2026-04-15", "", ""},             // missing receipt
		{"999", "100", "cash", "2026-04-15", "IMP-014", ""},      // unknown ledger
		{"101", "999999", "cash", "2026-04-15", "IMP-015", ""},   // overpayment
		{"101", "250", "cash", "2026-04-15", "IMP-016", ""},      // good
	})

	result, err := svc.ImportInstallments(context.Background(), sheet, accountant())
	require.NoError(t, err)
	assert.Equal(t, 8, result.Total)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 7, result.Failed)
	assert.Len(t, result.Errors, 7)

	// Row numbers are 1-based sheet rows, offset by the header
	assert.Equal(t, 2, result.Errors[0].Row)
	assert.Equal(t, uint(101), result.Errors[1].RollNo)

	assert.Equal(t, 1250.0, env.feeRepo.stored(101).PaidAmount)
}

func TestImportInstallmentsDuplicateReceipt(t *testing.T) {
	svc, env := newImportTestEnv(t)

	sheet := buildImportSheet(t, importHeader(), [][]interface{}{
		{"101", "100", "cash", "2026-04-15", "IMP-020", ""},
		{"101", "100", "cash", "2026-04-15", "IMP-020", ""},
	})

	result, err := svc.ImportInstallments(context.Background(), sheet, accountant())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1100.0, env.feeRepo.stored(101).PaidAmount)
}

func TestImportInstallmentsHeaderMismatch(t *testing.T) {
	svc, _ := newImportTestEnv(t)

	sheet := buildImportSheet(t, []string{"roll", "amount", "mode", "date", "receipt"}, [][]interface{}{
		{"101", "100", "cash", "2026-04-15", "IMP-030"},
	})

	_, err := svc.ImportInstallments(context.Background(), sheet, accountant())
	assert.ErrorIs(t, err, ErrValidation)
}

func TestImportInstallmentsEmptySheet(t *testing.T) {
	svc, _ := newImportTestEnv(t)

	sheet := buildImportSheet(t, importHeader(), nil)
	_, err := svc.ImportInstallments(context.Background(), sheet, accountant())
	assert.ErrorIs(t, err, ErrValidation)
}

func TestImportInstallmentsNotASpreadsheet(t *testing.T) {
	svc, _ := newImportTestEnv(t)

	_, err := svc.ImportInstallments(context.Background(), bytes.NewReader([]byte("roll_no,amount\n101,100\n")), accountant())
	assert.ErrorIs(t, err, ErrValidation)
}

func TestImportInstallmentsRoleGate(t *testing.T) {
	svc, _ := newImportTestEnv(t)

	sheet := buildImportSheet(t, importHeader(), [][]interface{}{
		{"101", "100", "cash", "2026-04-15", "IMP-040", ""},
	})
	_, err := svc.ImportInstallments(context.Background(), sheet, Actor{UserID: 3, Role: "teacher"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestParseImportDateFormats(t *testing.T) {
	for _, raw := range []string{"2026-04-15", "15/04/2026", "15-04-2026"} {
		got, err := parseImportDate(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, 2026, got.Year(), raw)
		assert.Equal(t, time.April, got.Month(), raw)
		assert.Equal(t, 15, got.Day(), raw)
	}

	_, err := parseImportDate("April 15")
	assert.Error(t, err)
}
