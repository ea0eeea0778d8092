// Package catalog holds the static reference data of the approval workflow:
// the approver directory and the permission catalog. Both are immutable after
// New; lookups never mutate and are safe for concurrent use.
package catalog

import (
	"fmt"
	"sort"

	"github.com/graphreq/permission-workflow/internal/domain/entity"
)

// Catalog is the read-only registry of approvers and permission definitions.
type Catalog struct {
	byID        map[string]entity.Approver
	byOrder     map[int]entity.Approver
	ordered     []entity.Approver
	permissions map[string]entity.PermissionDefinition
}

// New builds the catalog from the built-in tables. Panics on table defects
// (duplicate IDs or orders, dangling approver references); these are
// programmer errors, not runtime conditions.
func New() *Catalog {
	c := &Catalog{
		byID:        make(map[string]entity.Approver, len(defaultApprovers)),
		byOrder:     make(map[int]entity.Approver, len(defaultApprovers)),
		permissions: make(map[string]entity.PermissionDefinition, len(defaultPermissions)),
	}

	for _, a := range defaultApprovers {
		if _, dup := c.byID[a.ID]; dup {
			panic(fmt.Sprintf("catalog: duplicate approver id %q", a.ID))
		}
		if _, dup := c.byOrder[a.Order]; dup {
			panic(fmt.Sprintf("catalog: duplicate approver order %d", a.Order))
		}
		c.byID[a.ID] = a
		c.byOrder[a.Order] = a
		c.ordered = append(c.ordered, a)
	}
	sort.Slice(c.ordered, func(i, j int) bool { return c.ordered[i].Order < c.ordered[j].Order })

	for _, p := range defaultPermissions {
		for _, id := range p.RequiredApproverIDs {
			if _, ok := c.byID[id]; !ok {
				panic(fmt.Sprintf("catalog: permission %q references unknown approver %q", p.Name, id))
			}
		}
		c.permissions[p.Name] = p
	}

	return c
}

// ApproverByID looks up an approver by stable identity.
func (c *Catalog) ApproverByID(id string) (entity.Approver, bool) {
	a, ok := c.byID[id]
	return a, ok
}

// ApproverByOrder looks up an approver by its sequence rank.
func (c *Catalog) ApproverByOrder(order int) (entity.Approver, bool) {
	a, ok := c.byOrder[order]
	return a, ok
}

// ApproversByRole returns every approver carrying the given role label. Role
// labels are not unique; callers must not assume a single match.
func (c *Catalog) ApproversByRole(role string) []entity.Approver {
	var out []entity.Approver
	for _, a := range c.ordered {
		if a.Role == role {
			out = append(out, a)
		}
	}
	return out
}

// Approvers returns the full directory in ascending order rank.
func (c *Catalog) Approvers() []entity.Approver {
	return append([]entity.Approver(nil), c.ordered...)
}

// Permission looks up a permission definition by catalog name.
func (c *Catalog) Permission(name string) (entity.PermissionDefinition, bool) {
	p, ok := c.permissions[name]
	return p, ok
}

// Permissions returns every catalog permission name, sorted.
func (c *Catalog) Permissions() []string {
	names := make([]string, 0, len(c.permissions))
	for name := range c.permissions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
