package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveApprovers_EmptySelectionReturnsGatekeepers(t *testing.T) {
	c := New()

	chain := c.ResolveApprovers(nil)

	require.Len(t, chain, 2)
	assert.Equal(t, BusinessApproverID, chain[0].ID)
	assert.Equal(t, TechnicalApproverID, chain[1].ID)
}

func TestResolveApprovers_PermissionAddsItsApprovers(t *testing.T) {
	c := New()

	chain := c.ResolveApprovers([]string{"Mail.ReadWrite"})

	require.Len(t, chain, 3)
	assert.Equal(t, "exchange-team", chain[2].ID)
}

func TestResolveApprovers_DeduplicatesByIdentity(t *testing.T) {
	c := New()

	// Mail.Read and Mail.ReadWrite both pin the exchange team; it must
	// appear once.
	chain := c.ResolveApprovers([]string{"Mail.Read", "Mail.ReadWrite"})

	counts := map[string]int{}
	for _, a := range chain {
		counts[a.ID]++
	}
	for id, n := range counts {
		assert.Equal(t, 1, n, "approver %s appears %d times", id, n)
	}
}

func TestResolveApprovers_SharedRoleDistinctApproversBothAppear(t *testing.T) {
	c := New()

	// exchange-team and sharepoint-team share the "Implementation Team"
	// role label but are distinct approvers.
	chain := c.ResolveApprovers([]string{"Mail.Read", "Sites.Read.All"})

	ids := make([]string, 0, len(chain))
	for _, a := range chain {
		ids = append(ids, a.ID)
	}
	assert.Contains(t, ids, "exchange-team")
	assert.Contains(t, ids, "sharepoint-team")
}

func TestResolveApprovers_StrictlyAscendingOrder(t *testing.T) {
	c := New()

	chain := c.ResolveApprovers([]string{"User.ReadWrite.All", "Mail.Send", "Sites.ReadWrite.All"})

	for i := 1; i < len(chain); i++ {
		assert.Greater(t, chain[i].Order, chain[i-1].Order,
			"order must strictly increase: %v", chain)
	}
}

func TestResolveApprovers_IdempotentUnderReordering(t *testing.T) {
	c := New()

	first := c.ResolveApprovers([]string{"Mail.Send", "Files.ReadWrite.All", "User.Read"})
	second := c.ResolveApprovers([]string{"User.Read", "Files.ReadWrite.All", "Mail.Send"})

	assert.Equal(t, first, second)
}

func TestResolveApprovers_UnknownPermissionIgnored(t *testing.T) {
	c := New()

	chain := c.ResolveApprovers([]string{"Totally.Bogus.Permission"})

	require.Len(t, chain, 2)
}

func TestNextApprover(t *testing.T) {
	c := New()
	perms := []string{"Mail.ReadWrite"}

	tests := []struct {
		name      string
		current   string
		wantID    string
		wantFound bool
	}{
		{"business to technical", BusinessApproverID, TechnicalApproverID, true},
		{"technical to exchange team", TechnicalApproverID, "exchange-team", true},
		{"last approver has no next", "exchange-team", "", false},
		{"stranger has no next", "security-team", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, found := c.NextApprover(perms, tt.current)
			assert.Equal(t, tt.wantFound, found)
			if tt.wantFound {
				assert.Equal(t, tt.wantID, next.ID)
			}
		})
	}
}

func TestLookups(t *testing.T) {
	c := New()

	a, ok := c.ApproverByID(TechnicalApproverID)
	require.True(t, ok)
	assert.Equal(t, 2, a.Order)

	a, ok = c.ApproverByOrder(1)
	require.True(t, ok)
	assert.Equal(t, BusinessApproverID, a.ID)

	_, ok = c.ApproverByID("nobody")
	assert.False(t, ok)

	_, ok = c.Permission("Mail.Read")
	assert.True(t, ok)

	_, ok = c.Permission("Nope")
	assert.False(t, ok)

	impl := c.ApproversByRole("Implementation Team")
	assert.GreaterOrEqual(t, len(impl), 2, "role labels are shared across approvers")
}
