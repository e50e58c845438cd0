// Package feeledger contains the pure fee reconciliation rules: final fee
// computation, remaining balance, and payment status derivation. Everything
// here is side-effect free; persistence and HTTP layers call into this
// package instead of re-deriving amounts themselves.
package feeledger

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Status classifies a fee record by payment completeness.
type Status string

const (
	StatusPaid    Status = "paid"
	StatusPartial Status = "partial"
	StatusUnpaid  Status = "unpaid"
)

// Payment mode constants
const (
	ModeCash   = "cash"
	ModeOnline = "online"
	ModeCheque = "cheque"
	ModeCard   = "card"
)

// Domain errors raised by ledger validation. These are checked before any
// persistence call is made.
var (
	ErrInvalidAmount   = errors.New("amount is zero, negative or not a number")
	ErrInvalidDiscount = errors.New("discount exceeds total fees")
	ErrOverpayment     = errors.New("payment exceeds remaining balance")
)

// Round2 rounds a monetary value half-up to 2 decimal places. All derived
// amounts pass through this so no fractional paise survives a computation.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// ComputeFinalFees returns totalFees - discount rounded to 2 decimal places.
func ComputeFinalFees(totalFees, discount float64) (float64, error) {
	if totalFees < 0 || discount < 0 {
		return 0, ErrInvalidAmount
	}
	if discount > totalFees {
		return 0, ErrInvalidDiscount
	}
	return Round2(totalFees - discount), nil
}

// DeriveStatus is total over its domain: a zero final fee counts as paid,
// since a zero-fee student owes nothing.
func DeriveStatus(finalFees, paidAmount float64) Status {
	switch {
	case ComputeRemaining(finalFees, paidAmount) == 0:
		return StatusPaid
	case paidAmount > 0:
		return StatusPartial
	default:
		return StatusUnpaid
	}
}

// ComputeRemaining returns the pending balance, clamped at zero. The clamp
// guards the display layer against an upstream invariant violation; writes
// are still validated independently by ValidateInstallment.
func ComputeRemaining(finalFees, paidAmount float64) float64 {
	remaining := Round2(finalFees - paidAmount)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ValidateInstallment checks an installment amount against the current
// pending balance. Overpayment fails loudly rather than being clipped; the
// UI may pre-clip as an affordance but the ledger never does.
func ValidateInstallment(amount, pending float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if Round2(amount) > Round2(pending) {
		return ErrOverpayment
	}
	return nil
}

// ValidMode reports whether a payment mode string is one of the accepted
// modes. Matching is case-insensitive since values arrive from form inputs.
func ValidMode(mode string) bool {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ModeCash, ModeOnline, ModeCheque, ModeCard:
		return true
	}
	return false
}

// NormalizeMode lowercases and trims a form-supplied mode string.
func NormalizeMode(mode string) string {
	return strings.ToLower(strings.TrimSpace(mode))
}

// ParseAmount converts a raw form string into a monetary value. This is the
// validation boundary between free-text input and the domain model: empty
// strings, garbage and negative values all come back as ErrInvalidAmount.
func ParseAmount(raw string) (float64, error) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if raw == "" {
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, ErrInvalidAmount
	}
	return Round2(v), nil
}
