package repository

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/clause"

	"github.com/glotta/agency-api/internal/finance"
)

func TestPaymentDeltaAssignmentsCoverAllAggregateColumns(t *testing.T) {
	assigns := paymentDeltaAssignments(400)

	for _, column := range []string{"received_amount", "remaining_amount", "payment_status", "is_fully_paid"} {
		assert.Contains(t, assigns, column)
	}
}

func TestPaymentDeltaClampsRemainingInsideEpsilonWindow(t *testing.T) {
	assigns := paymentDeltaAssignments(400)

	remaining := assigns["remaining_amount"].(clause.Expr)
	status := assigns["payment_status"].(clause.Expr)
	fullyPaid := assigns["is_fully_paid"].(clause.Expr)

	// remaining_amount must zero out on the same condition that flips
	// payment_status to paid. Without the clamp, an underpayment within the
	// tolerance would be reported paid while leaving a sub-cent residue that
	// a full recompute would not produce.
	paidCond := "received_amount + ? >= amount - ?"
	assert.Contains(t, status.SQL, paidCond)
	assert.Contains(t, fullyPaid.SQL, paidCond)
	assert.Contains(t, remaining.SQL, paidCond)
	assert.True(t, strings.HasPrefix(remaining.SQL, "CASE WHEN"))
	assert.Contains(t, remaining.SQL, "THEN 0")

	// Zero-amount projects also report zero remaining, like the recompute.
	assert.Contains(t, remaining.SQL, "amount <= 0")

	assert.Equal(t, []interface{}{float64(400), finance.Epsilon, float64(400)}, remaining.Vars)
}
