package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/glotta/agency-api/internal/models"
)

func TestCan(t *testing.T) {
	tests := []struct {
		role   string
		action Action
		want   Scope
	}{
		{models.RoleAdmin, ActionRecordPayment, ScopeAll},
		{models.RoleFinance, ActionDeletePayment, ScopeAll},
		{models.RoleFinance, ActionViewReceivables, ScopeAll},
		{models.RoleSales, ActionInitiatePayment, ScopeSelf},
		{models.RoleSales, ActionRecordPayment, ScopeNone},
		{models.RoleSales, ActionViewReceivables, ScopeSelf},
		{models.RolePM, ActionInitiatePayment, ScopeSelf},
		{models.RolePM, ActionManageInvoice, ScopeNone},
		{"intern", ActionViewReceivables, ScopeNone},
		{models.RoleAdmin, Action("unknown"), ScopeAll},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Can(tt.role, tt.action), "role=%s action=%s", tt.role, tt.action)
	}
}

func TestAllowed(t *testing.T) {
	assert.True(t, Allowed(models.RoleFinance, ActionRecordPayment))
	assert.True(t, Allowed(models.RoleSales, ActionInitiatePayment))
	assert.False(t, Allowed(models.RoleSales, ActionDeletePayment))
	assert.False(t, Allowed("", ActionRecordPayment))
}
