package statemachine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coachdesk/coachdesk-api/internal/feeledger"
)

func TestFeeStatusProgression(t *testing.T) {
	ctx := context.Background()
	m := NewFeeStatusFSM(feeledger.StatusUnpaid)

	assert.NoError(t, m.Advance(ctx, feeledger.StatusPartial))
	assert.Equal(t, feeledger.StatusPartial, m.Current())

	// Further partial collections stay in partial.
	assert.NoError(t, m.Advance(ctx, feeledger.StatusPartial))
	assert.Equal(t, feeledger.StatusPartial, m.Current())

	assert.NoError(t, m.Advance(ctx, feeledger.StatusPaid))
	assert.Equal(t, feeledger.StatusPaid, m.Current())
}

func TestUnpaidCanSettleDirectly(t *testing.T) {
	m := NewFeeStatusFSM(feeledger.StatusUnpaid)
	assert.NoError(t, m.Advance(context.Background(), feeledger.StatusPaid))
	assert.Equal(t, feeledger.StatusPaid, m.Current())
}

func TestPaidIsTerminal(t *testing.T) {
	ctx := context.Background()
	m := NewFeeStatusFSM(feeledger.StatusPaid)

	assert.Error(t, m.Advance(ctx, feeledger.StatusPartial))
	assert.Error(t, m.Advance(ctx, feeledger.StatusUnpaid))
	assert.Equal(t, feeledger.StatusPaid, m.Current())
}

func TestReopenAfterFeeRevision(t *testing.T) {
	ctx := context.Background()
	m := NewFeeStatusFSM(feeledger.StatusPaid)

	assert.NoError(t, m.Reopen(ctx))
	assert.Equal(t, feeledger.StatusPartial, m.Current())

	// Reopen is only valid from paid.
	assert.Error(t, m.Reopen(ctx))
}

func TestNoRegressionToUnpaid(t *testing.T) {
	m := NewFeeStatusFSM(feeledger.StatusPartial)
	assert.Error(t, m.Advance(context.Background(), feeledger.StatusUnpaid))
}
