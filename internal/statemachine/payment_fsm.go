package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/glotta/agency-api/internal/models"
)

// PaymentFSM wraps a payment record with its state machine
type PaymentFSM struct {
	record *models.PaymentRecord
	fsm    *fsm.FSM
}

// NewPaymentFSM creates a new payment record state machine
func NewPaymentFSM(record *models.PaymentRecord) *PaymentFSM {
	pfsm := &PaymentFSM{
		record: record,
	}

	pfsm.fsm = fsm.NewFSM(
		record.Status,
		fsm.Events{
			// pending → confirmed (designated receiver countersigns)
			{Name: "confirm", Src: []string{models.RecordStatusPending}, Dst: models.RecordStatusConfirmed},

			// pending → rejected
			{Name: "reject", Src: []string{models.RecordStatusPending}, Dst: models.RecordStatusRejected},

			// confirmed → approved (finance review marker)
			{Name: "approve", Src: []string{models.RecordStatusConfirmed}, Dst: models.RecordStatusApproved},
		},
		fsm.Callbacks{},
	)

	return pfsm
}

// Confirm transitions the record to confirmed state
func (p *PaymentFSM) Confirm(ctx context.Context) error {
	if !p.record.MayConfirm() {
		return fmt.Errorf("payment record cannot be confirmed in current state: %s", p.record.Status)
	}

	if err := p.fsm.Event(ctx, "confirm"); err != nil {
		return fmt.Errorf("failed to confirm payment record: %w", err)
	}

	p.record.Status = p.fsm.Current()
	return nil
}

// Reject transitions the record to rejected state
func (p *PaymentFSM) Reject(ctx context.Context) error {
	if !p.record.MayConfirm() {
		return fmt.Errorf("payment record cannot be rejected in current state: %s", p.record.Status)
	}

	if err := p.fsm.Event(ctx, "reject"); err != nil {
		return fmt.Errorf("failed to reject payment record: %w", err)
	}

	p.record.Status = p.fsm.Current()
	return nil
}

// Approve advances a confirmed record to approved after finance review.
// The amount was already counted at confirmation, so this transition never
// changes the project aggregate.
func (p *PaymentFSM) Approve(ctx context.Context) error {
	if !p.record.MayReview() {
		return fmt.Errorf("payment record cannot be approved in current state: %s", p.record.Status)
	}

	if err := p.fsm.Event(ctx, "approve"); err != nil {
		return fmt.Errorf("failed to approve payment record: %w", err)
	}

	p.record.Status = p.fsm.Current()
	return nil
}

// Current returns the current state
func (p *PaymentFSM) Current() string {
	return p.fsm.Current()
}

// Can checks if a transition is possible
func (p *PaymentFSM) Can(event string) bool {
	return p.fsm.Can(event)
}
