package feeledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeFinalFees(t *testing.T) {
	tests := []struct {
		name     string
		total    float64
		discount float64
		want     float64
		wantErr  error
	}{
		{"no discount", 50000, 0, 50000, nil},
		{"with discount", 50000, 5000, 45000, nil},
		{"full discount", 5000, 5000, 0, nil},
		{"rounding", 1000.005, 0.001, 1000, nil},
		{"discount exceeds total", 5000, 6000, 0, ErrInvalidDiscount},
		{"negative total", -1, 0, 0, ErrInvalidAmount},
		{"negative discount", 1000, -5, 0, ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeFinalFees(tt.total, tt.discount)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveStatus(t *testing.T) {
	assert.Equal(t, StatusUnpaid, DeriveStatus(45000, 0))
	assert.Equal(t, StatusPartial, DeriveStatus(45000, 20000))
	assert.Equal(t, StatusPaid, DeriveStatus(45000, 45000))

	// Zero-fee students owe nothing and count as paid.
	assert.Equal(t, StatusPaid, DeriveStatus(0, 0))
}

func TestDeriveStatusIsDeterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		assert.Equal(t, DeriveStatus(1000, 400), DeriveStatus(1000, 400))
	}
}

func TestComputeRemaining(t *testing.T) {
	assert.Equal(t, 25000.0, ComputeRemaining(45000, 20000))
	assert.Equal(t, 0.0, ComputeRemaining(45000, 45000))

	// Clamped at zero if an upstream violation ever slips through.
	assert.Equal(t, 0.0, ComputeRemaining(45000, 50000))
}

func TestValidateInstallment(t *testing.T) {
	assert.NoError(t, ValidateInstallment(200, 500))
	assert.NoError(t, ValidateInstallment(500, 500))
	assert.ErrorIs(t, ValidateInstallment(0, 500), ErrInvalidAmount)
	assert.ErrorIs(t, ValidateInstallment(-10, 500), ErrInvalidAmount)
	assert.ErrorIs(t, ValidateInstallment(300, 200), ErrOverpayment)

	// 1000 due, 800 paid: a 300 payment must be rejected, not clipped.
	assert.ErrorIs(t, ValidateInstallment(300, ComputeRemaining(1000, 800)), ErrOverpayment)
}

func TestStatusNeverRegressesAcrossInstallments(t *testing.T) {
	finalFees := 45000.0
	paid := 0.0
	installments := []float64{20000, 15000, 10000}

	rank := map[Status]int{StatusUnpaid: 0, StatusPartial: 1, StatusPaid: 2}
	prev := DeriveStatus(finalFees, paid)

	for _, amt := range installments {
		assert.NoError(t, ValidateInstallment(amt, ComputeRemaining(finalFees, paid)))
		paid += amt
		next := DeriveStatus(finalFees, paid)
		assert.GreaterOrEqual(t, rank[next], rank[prev])
		prev = next
	}
	assert.Equal(t, StatusPaid, prev)
	assert.Equal(t, 0.0, ComputeRemaining(finalFees, paid))
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw     string
		want    float64
		wantErr bool
	}{
		{"20000", 20000, false},
		{" 1,50,000 ", 150000, false},
		{"99.999", 100, false},
		{"", 0, true},
		{"abc", 0, true},
		{"-500", 0, true},
		{"NaN", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.raw)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidAmount, tt.raw)
			continue
		}
		assert.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestValidMode(t *testing.T) {
	assert.True(t, ValidMode("cash"))
	assert.True(t, ValidMode(" ONLINE "))
	assert.True(t, ValidMode("Cheque"))
	assert.True(t, ValidMode("card"))
	assert.False(t, ValidMode("upi-mandate"))
	assert.False(t, ValidMode(""))
}
