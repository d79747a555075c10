package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUser_IsLocked(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	future := now.Add(time.Minute)
	past := now.Add(-time.Minute)

	assert.False(t, (&User{}).IsLocked(now))
	assert.True(t, (&User{LockUntil: &future}).IsLocked(now))
	assert.False(t, (&User{LockUntil: &past}).IsLocked(now))
	assert.False(t, (&User{LockUntil: &now}).IsLocked(now))
}

func TestRoleAndVerificationLevel_IsValid(t *testing.T) {
	assert.True(t, RoleOrganizer.IsValid())
	assert.False(t, Role("organizer").IsValid())
	assert.True(t, RoleAdmin.IsValid())
	assert.True(t, VerificationFull.IsValid())
	assert.False(t, VerificationLevel("PARTIAL").IsValid())
}

func TestRole_SelfAssignable(t *testing.T) {
	assert.True(t, RoleOrganizer.SelfAssignable())
	assert.True(t, RoleTraveler.SelfAssignable())
	assert.False(t, RoleAdmin.SelfAssignable())
	assert.False(t, Role("PILOT").SelfAssignable())
}
