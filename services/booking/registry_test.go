package booking

import (
	"testing"
	"time"

	"campusbook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var otherStaff = models.AuthContext{UserID: "u-2", Role: models.RoleStaff, AuthToken: "tok-2"}

func newTestRegistry(idle time.Duration) *Registry {
	return NewRegistry(testDeps(&mockAvailability{}, &mockSubmitter{}, nil), idle)
}

func mustOpen(t *testing.T, reg *Registry, owner models.AuthContext, resourceID string, res *models.Resource) *Session {
	t.Helper()
	s, err := reg.Open(owner, resourceID, res)
	require.NoError(t, err)
	return s
}

func TestRegistry_OpenGetDiscard(t *testing.T) {
	reg := newTestRegistry(time.Minute)

	s := mustOpen(t, reg, staff, "room-101", &models.Resource{ID: "room-101"})
	require.NotEmpty(t, s.ID)
	assert.Equal(t, staff.UserID, s.Owner)
	assert.Equal(t, models.RoleStaff, s.OwnerRole)
	assert.Equal(t, 1, reg.Len())

	got, err := reg.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, models.StateEditing, got.State())
	assert.Equal(t, models.VerdictUnknown, got.Verdict())
	assert.Equal(t, models.SingleDay, got.Draft().DurationMode)

	assert.True(t, reg.Discard(s.ID))
	assert.False(t, reg.Discard(s.ID))
	_, err = reg.Get(s.ID)
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestRegistry_LookupIsOwnerOnly(t *testing.T) {
	reg := newTestRegistry(time.Minute)
	s := mustOpen(t, reg, staff, "room-101", nil)

	got, err := reg.Lookup(s.ID, staff.UserID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = reg.Lookup(s.ID, otherStaff.UserID)
	assert.ErrorIs(t, err, ErrDraftNotFound)
	_, err = reg.Lookup("missing", staff.UserID)
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestRegistry_DraftLimitPerUser(t *testing.T) {
	reg := newTestRegistry(time.Minute)
	reg.MaxDraftsPerUser = 2

	first := mustOpen(t, reg, staff, "room-101", nil)
	mustOpen(t, reg, staff, "room-102", nil)
	_, err := reg.Open(staff, "room-103", nil)
	assert.ErrorIs(t, err, ErrTooManyDrafts)

	// Other users are counted separately.
	mustOpen(t, reg, otherStaff, "room-103", nil)

	// Renewing replaces a draft, so it fits under the cap.
	_, err = reg.Renew(first.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, reg.Len())
}

func TestRegistry_Renew(t *testing.T) {
	reg := newTestRegistry(time.Minute)
	old := mustOpen(t, reg, staff, "room-101", &models.Resource{ID: "room-101", Name: "Room 101"})
	_, err := old.Edit(fillEdit())
	require.NoError(t, err)

	next, err := reg.Renew(old.ID)
	require.NoError(t, err)
	assert.NotEqual(t, old.ID, next.ID)
	assert.Equal(t, staff.UserID, next.Owner)
	assert.Equal(t, "room-101", next.ResourceID())
	assert.Equal(t, "Room 101", next.Resource().Name)
	assert.Empty(t, next.Draft().Purpose)

	_, err = reg.Get(old.ID)
	assert.ErrorIs(t, err, ErrDraftNotFound)
	assert.Equal(t, 1, reg.Len())

	_, err = reg.Renew("missing")
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestRegistry_Sweep(t *testing.T) {
	reg := newTestRegistry(10 * time.Minute)
	mustOpen(t, reg, staff, "room-101", nil)
	mustOpen(t, reg, otherStaff, "room-102", nil)

	assert.Equal(t, 0, reg.Sweep(testNow.Add(5*time.Minute)))
	assert.Equal(t, 2, reg.Len())

	assert.Equal(t, 2, reg.Sweep(testNow.Add(10*time.Minute)))
	assert.Equal(t, 0, reg.Len())
}
