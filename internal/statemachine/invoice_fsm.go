package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/glotta/agency-api/internal/models"
)

// InvoiceFSM wraps an invoice with its state machine
type InvoiceFSM struct {
	invoice *models.Invoice
	fsm     *fsm.FSM
}

// NewInvoiceFSM creates a new invoice state machine
func NewInvoiceFSM(invoice *models.Invoice) *InvoiceFSM {
	ifsm := &InvoiceFSM{
		invoice: invoice,
	}

	ifsm.fsm = fsm.NewFSM(
		invoice.Status,
		fsm.Events{
			// issued → paid (matched against a payment record)
			{Name: "pay", Src: []string{models.InvoiceStatusIssued}, Dst: models.InvoiceStatusPaid},

			// issued/paid → void. Once void, an invoice leaves the ledger cap
			// for good; there is no un-void event.
			{Name: "void", Src: []string{models.InvoiceStatusIssued, models.InvoiceStatusPaid}, Dst: models.InvoiceStatusVoid},
		},
		fsm.Callbacks{},
	)

	return ifsm
}

// Pay marks an issued invoice as paid
func (i *InvoiceFSM) Pay(ctx context.Context) error {
	if err := i.fsm.Event(ctx, "pay"); err != nil {
		return fmt.Errorf("failed to mark invoice paid: %w", err)
	}

	i.invoice.Status = i.fsm.Current()
	return nil
}

// Void voids an invoice
func (i *InvoiceFSM) Void(ctx context.Context) error {
	if err := i.fsm.Event(ctx, "void"); err != nil {
		return fmt.Errorf("failed to void invoice: %w", err)
	}

	i.invoice.Status = i.fsm.Current()
	return nil
}

// Current returns the current state
func (i *InvoiceFSM) Current() string {
	return i.fsm.Current()
}
