package uia

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestEveryUserRoleMapsToAtLeastOneUnderlyingRole(t *testing.T) {
	properties := gopter.NewProperties(nil)

	roles := UserRoles()
	properties.Property("every user role round-trips through the table", prop.ForAll(
		func(i int) bool {
			name := roles[i%len(roles)]
			underlying, ok := MapUserRole(name)
			return ok && len(underlying) > 0
		},
		gen.IntRange(0, len(roles)*3),
	))

	properties.TestingRun(t)
}

func TestRoleMatchesIsCaseInsensitive(t *testing.T) {
	assert.True(t, RoleMatches("checkbox", "Check Box"))
	assert.True(t, RoleMatches("checkbox", "check box"))
	assert.False(t, RoleMatches("checkbox", "edit"))
}

func TestUnknownUserRoleDoesNotMatch(t *testing.T) {
	assert.False(t, RoleMatches("not-a-real-role", "button"))
}
