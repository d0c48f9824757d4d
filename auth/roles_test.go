package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/goliatone/go-storefront/auth"
)

func TestParseRole(t *testing.T) {
	for _, r := range auth.Roles() {
		got, ok := auth.ParseRole(r.String())
		assert.True(t, ok)
		assert.Equal(t, r, got)
	}

	_, ok := auth.ParseRole("owner")
	assert.False(t, ok)

	assert.False(t, auth.Role("").IsValid())
	assert.Equal(t, auth.RoleCustomer, auth.DefaultRole)
}

func TestRoleSet(t *testing.T) {
	set := auth.NewRoleSet(auth.RoleCustomer, auth.RoleAdmin)

	assert.True(t, set.Contains(auth.RoleAdmin))
	assert.True(t, set.Contains(auth.RoleCustomer))
	assert.False(t, set.Contains(auth.RoleSupport))
	assert.ElementsMatch(t, []auth.Role{auth.RoleAdmin, auth.RoleCustomer}, set.Slice())

	customer := &auth.User{Role: auth.RoleCustomer}
	support := &auth.User{Role: auth.RoleSupport}
	assert.True(t, customer.IsRole(set))
	assert.False(t, support.IsRole(set))

	var nobody *auth.User
	assert.False(t, nobody.IsRole(set))
}
