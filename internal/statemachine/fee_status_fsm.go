package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/coachdesk/coachdesk-api/internal/feeledger"
)

// FeeStatusFSM guards the monotonic progression of a fee record's payment
// status: unpaid → partial → paid, with paid as the terminal state. The
// status itself is derived from amounts; the machine exists so a recompute
// that would regress an already-settled record fails loudly instead of
// silently overwriting it.
type FeeStatusFSM struct {
	fsm *fsm.FSM
}

// NewFeeStatusFSM creates a status machine seeded with the current status
func NewFeeStatusFSM(current feeledger.Status) *FeeStatusFSM {
	return &FeeStatusFSM{
		fsm: fsm.NewFSM(
			string(current),
			fsm.Events{
				// unpaid → partial (first installment below final fees)
				{Name: "collect", Src: []string{string(feeledger.StatusUnpaid)}, Dst: string(feeledger.StatusPartial)},

				// unpaid/partial → paid (balance reaches zero)
				{Name: "settle", Src: []string{string(feeledger.StatusUnpaid), string(feeledger.StatusPartial)}, Dst: string(feeledger.StatusPaid)},

				// partial → partial (further installments while balance remains)
				{Name: "collect_more", Src: []string{string(feeledger.StatusPartial)}, Dst: string(feeledger.StatusPartial)},

				// paid → partial/unpaid only via an explicit fee revision (admin
				// raising total fees after settlement)
				{Name: "reopen", Src: []string{string(feeledger.StatusPaid)}, Dst: string(feeledger.StatusPartial)},
			},
			fsm.Callbacks{},
		),
	}
}

// Advance transitions the machine to the status newly derived from the
// amounts. It picks the event matching the direction of travel and returns
// an error for any regression that is not an explicit reopen.
func (m *FeeStatusFSM) Advance(ctx context.Context, next feeledger.Status) error {
	current := feeledger.Status(m.fsm.Current())
	if current == next {
		if current == feeledger.StatusPartial {
			return m.fsm.Event(ctx, "collect_more")
		}
		return nil
	}

	var event string
	switch {
	case next == feeledger.StatusPaid:
		event = "settle"
	case current == feeledger.StatusUnpaid && next == feeledger.StatusPartial:
		event = "collect"
	default:
		return fmt.Errorf("fee status cannot move from %s to %s", current, next)
	}

	if err := m.fsm.Event(ctx, event); err != nil {
		return fmt.Errorf("fee status transition failed: %w", err)
	}
	return nil
}

// Reopen moves a settled record back to partial after a fee revision raised
// the final fees above the amount already collected.
func (m *FeeStatusFSM) Reopen(ctx context.Context) error {
	if err := m.fsm.Event(ctx, "reopen"); err != nil {
		return fmt.Errorf("fee record cannot be reopened: %w", err)
	}
	return nil
}

// Current returns the machine's current status
func (m *FeeStatusFSM) Current() feeledger.Status {
	return feeledger.Status(m.fsm.Current())
}

// Can checks if a transition is possible
func (m *FeeStatusFSM) Can(event string) bool {
	return m.fsm.Can(event)
}
