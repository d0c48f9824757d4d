package auth

import (
	"sort"
	"strings"
)

// Role is the user's role
type Role string

const (
	// RoleAdmin manages users, catalog, orders and issues
	RoleAdmin Role = "admin"
	// RoleSupplier manages the catalog
	RoleSupplier Role = "supplier"
	// RoleCustomer places orders and opens issues
	RoleCustomer Role = "customer"
	// RoleSupport works on issues
	RoleSupport Role = "support"
)

// DefaultRole is assigned when registration does not specify one
const DefaultRole = RoleCustomer

// Roles lists every valid role
func Roles() []Role {
	return []Role{RoleAdmin, RoleSupplier, RoleCustomer, RoleSupport}
}

// IsValid checks if the role is one of the predefined valid roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleSupplier, RoleCustomer, RoleSupport:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// ParseRole normalizes s and reports whether it names a valid role.
func ParseRole(s string) (Role, bool) {
	r := Role(normalizeRole(s))
	return r, r.IsValid()
}

func normalizeRole(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// RoleSet is the set of roles allowed on a route
type RoleSet map[Role]struct{}

func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		if r.IsValid() {
			set[r] = struct{}{}
		}
	}
	return set
}

// Contains reports whether r is a member of the set
func (s RoleSet) Contains(r Role) bool {
	_, ok := s[r]
	return ok
}

func (s RoleSet) Slice() []Role {
	out := make([]Role, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// roleValues is used by ozzo validation.In
func roleValues() []any {
	roles := Roles()
	out := make([]any, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
