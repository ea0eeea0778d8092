package catalog

import (
	"sort"

	"github.com/graphreq/permission-workflow/internal/domain/entity"
)

// ResolveApprovers computes the ordered, deduplicated approver chain required
// for a set of requested permissions. Both gatekeepers are always included;
// each permission contributes its additional approvers. Deduplication is by
// approver identity, not role. Unknown permission names contribute nothing.
// The result is strictly ascending by Order.
func (c *Catalog) ResolveApprovers(permissionNames []string) []entity.Approver {
	seen := make(map[string]bool, 4)
	var chain []entity.Approver

	add := func(id string) {
		if seen[id] {
			return
		}
		a, ok := c.byID[id]
		if !ok {
			return
		}
		seen[id] = true
		chain = append(chain, a)
	}

	add(BusinessApproverID)
	add(TechnicalApproverID)

	for _, name := range permissionNames {
		def, ok := c.permissions[name]
		if !ok {
			continue
		}
		for _, id := range def.RequiredApproverIDs {
			add(id)
		}
	}

	sort.Slice(chain, func(i, j int) bool { return chain[i].Order < chain[j].Order })
	return chain
}

// FirstApprover returns the head of every approval chain.
func (c *Catalog) FirstApprover() entity.Approver {
	return c.byID[BusinessApproverID]
}

// NextApprover returns the approver following current in the resolved chain
// for the given permissions, and false when current is the last approver (or
// not part of the chain).
func (c *Catalog) NextApprover(permissionNames []string, currentID string) (entity.Approver, bool) {
	chain := c.ResolveApprovers(permissionNames)
	for i, a := range chain {
		if a.ID == currentID && i+1 < len(chain) {
			return chain[i+1], true
		}
	}
	return entity.Approver{}, false
}
