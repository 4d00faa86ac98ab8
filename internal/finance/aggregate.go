// Package finance holds the pure money arithmetic behind the project payment
// aggregate. Everything here is side-effect free; callers persist the results.
package finance

import (
	"github.com/shopspring/decimal"

	"github.com/glotta/agency-api/internal/models"
)

// Epsilon is the tolerance used when comparing money amounts. Amounts are
// stored as decimal(12,2) columns but travel through float64, so "fully paid"
// and "balanced" checks must absorb sub-cent rounding noise.
const Epsilon = 0.01

// Aggregate is the derived payment summary stored on a project
type Aggregate struct {
	ReceivedAmount  float64
	RemainingAmount float64
	PaymentStatus   string
	IsFullyPaid     bool
}

// Recompute derives the payment aggregate from a project's total amount and
// the sum of its confirmed payment amounts. It is used both incrementally
// (caller adds or subtracts one record's amount from the running total before
// calling) and as a full re-sum by repair tooling; the two call styles agree
// for the same confirmed set because the derivation only depends on the sum.
func Recompute(projectAmount, confirmedSum float64) Aggregate {
	total := decimal.NewFromFloat(projectAmount)
	received := decimal.NewFromFloat(confirmedSum)

	remaining := total.Sub(received)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	agg := Aggregate{
		ReceivedAmount:  confirmedSum,
		RemainingAmount: remaining.InexactFloat64(),
		PaymentStatus:   models.PaymentStatusUnpaid,
	}

	// A zero-amount project is always unpaid regardless of receipts.
	if !total.IsPositive() {
		agg.RemainingAmount = 0
		return agg
	}

	eps := decimal.NewFromFloat(Epsilon)
	if received.GreaterThanOrEqual(total.Sub(eps)) {
		agg.PaymentStatus = models.PaymentStatusPaid
		agg.IsFullyPaid = true
		agg.RemainingAmount = 0
	} else if received.IsPositive() {
		agg.PaymentStatus = models.PaymentStatusPartiallyPaid
	}

	return agg
}

// SumConfirmed adds up the amounts of records that count toward the
// aggregate (confirmed or approved), using decimal arithmetic so the full
// re-sum path matches the incremental path exactly.
func SumConfirmed(records []models.PaymentRecord) float64 {
	sum := decimal.Zero
	for i := range records {
		if records[i].CountsTowardAggregate() {
			sum = sum.Add(decimal.NewFromFloat(records[i].Amount))
		}
	}
	return sum.InexactFloat64()
}

// AmountsEqual reports whether two money amounts match within Epsilon
func AmountsEqual(a, b float64) bool {
	diff := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Abs()
	return diff.LessThan(decimal.NewFromFloat(Epsilon))
}

// Headroom returns how much can still be invoiced against a project given
// the sum of its existing non-void invoice amounts. Never negative.
func Headroom(projectAmount, invoicedSum float64) float64 {
	h := decimal.NewFromFloat(projectAmount).Sub(decimal.NewFromFloat(invoicedSum))
	if h.IsNegative() {
		return 0
	}
	return h.InexactFloat64()
}
