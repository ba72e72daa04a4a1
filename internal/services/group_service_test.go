package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroups(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	groups := NewGroupService(db)

	_, err := groups.Create(ctx, GroupInput{Name: ""})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = groups.Create(ctx, GroupInput{Name: "Crew", ProfileID: uintPtr(7)})
	assert.ErrorIs(t, err, ErrNotFound)

	p, err := NewProfileService(db).Create(ctx, ProfileInput{Name: "Default"})
	require.NoError(t, err)

	g, err := groups.Create(ctx, GroupInput{Name: " Crew ", ProfileID: &p.ID})
	require.NoError(t, err)
	assert.Equal(t, "Crew", g.Name)
	require.NotNil(t, g.Profile)
	assert.Equal(t, "Default", g.Profile.Name)

	_, err = groups.Create(ctx, GroupInput{Name: "Crew"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = groups.Create(ctx, GroupInput{Name: "Alpha"})
	require.NoError(t, err)

	list, err := groups.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alpha", list[0].Name)
	assert.Nil(t, list[0].Profile)
}

func TestRoles(t *testing.T) {
	roles := NewRoleService(newTestDB(t))
	ctx := context.Background()

	_, err := roles.Create(ctx, RoleInput{Name: "supervisor"})
	require.NoError(t, err)
	_, err = roles.Create(ctx, RoleInput{Name: "supervisor"})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = roles.Create(ctx, RoleInput{})
	assert.ErrorIs(t, err, ErrValidation)

	list, err := roles.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "supervisor", list[0].Name)
}
