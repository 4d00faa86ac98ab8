// Package authz defines the role policy for finance operations as a typed
// function instead of a permission-string table.
package authz

import (
	"github.com/glotta/agency-api/internal/models"
)

// Action is a finance capability a role may hold
type Action string

// Finance actions
const (
	ActionRecordPayment   Action = "payment.record"   // direct finance entry
	ActionInitiatePayment Action = "payment.initiate" // sales-initiated pending entry
	ActionReviewPayment   Action = "payment.review"
	ActionDeletePayment   Action = "payment.delete"
	ActionManageInvoice   Action = "invoice.manage"
	ActionViewInvoices    Action = "invoice.view"
	ActionViewReceivables Action = "report.receivables"
	ActionViewAudits      Action = "audit.view"
)

// Scope answers how far a permission reaches
type Scope int

// Scopes, narrowest to widest
const (
	ScopeNone Scope = iota
	ScopeSelf       // only resources tied to projects the user created
	ScopeAll
)

// Can returns the scope a role holds for an action. Unknown roles and unknown
// actions get ScopeNone.
func Can(role string, action Action) Scope {
	switch role {
	case models.RoleAdmin, models.RoleFinance:
		return ScopeAll
	case models.RoleSales:
		switch action {
		case ActionInitiatePayment:
			return ScopeSelf
		case ActionViewInvoices, ActionViewReceivables:
			return ScopeSelf
		}
		return ScopeNone
	case models.RolePM:
		switch action {
		case ActionInitiatePayment, ActionViewReceivables:
			return ScopeSelf
		}
		return ScopeNone
	}
	return ScopeNone
}

// Allowed reports whether the role holds the action at any scope
func Allowed(role string, action Action) bool {
	return Can(role, action) != ScopeNone
}
