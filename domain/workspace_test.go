package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleAtLeast(t *testing.T) {
	assert.True(t, RoleOwner.AtLeast(RoleAdmin))
	assert.True(t, RoleMember.AtLeast(RoleMember))
	assert.True(t, RoleViewer.AtLeast(RoleViewer))
	assert.False(t, RoleViewer.AtLeast(RoleMember))

	// Unknown roles rank below every known role.
	assert.False(t, Role("").AtLeast(RoleViewer))
	assert.False(t, Role("superuser").AtLeast(RoleViewer))
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleOwner.Valid())
	assert.False(t, Role("").Valid())
}
