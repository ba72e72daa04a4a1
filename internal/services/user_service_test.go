package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"field_tracker/internal/models"
)

const defaultPassword = "qqqqqq"

func newUserService(t *testing.T) (*UserService, *DeviceService) {
	t.Helper()
	db := newTestDB(t)
	return NewUserService(db, defaultPassword, bcrypt.MinCost), NewDeviceService(db)
}

func TestListUsersFiltersSortsAndWindows(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	depts := []string{"Engineering", "eng support", "Sales", "Field ENG", "Finance"}
	for i := 0; i < 25; i++ {
		_, err := svc.Create(ctx, CreateUserInput{
			Email:    fmt.Sprintf("user%02d@example.com", i),
			LastName: fmt.Sprintf("Surname%02d", 24-i),
			Dept:     depts[i%len(depts)],
		})
		require.NoError(t, err)
	}

	q, err := ParseUserQuery(url.Values{
		"start": {"0"}, "limit": {"10"}, "sortf": {"last_name"}, "department": {"eng"},
	})
	require.NoError(t, err)

	page, err := svc.List(ctx, q)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(page.Users), 10)
	assert.Len(t, page.Users, 10)
	for i, u := range page.Users {
		assert.Contains(t, strings.ToLower(u.Dept), "eng")
		if i > 0 {
			assert.LessOrEqual(t, page.Users[i-1].LastName, u.LastName)
		}
	}
	assert.EqualValues(t, 25, page.UsersCount, "users_count reports the unfiltered total")
	assert.EqualValues(t, 15, page.MatchedCount)
	assert.Equal(t, map[string]any{"dept__icontains": "eng"}, page.QSFilter)

	q.Start = 10
	rest, err := svc.List(ctx, q)
	require.NoError(t, err)
	assert.Len(t, rest.Users, 5)
	assert.Less(t, page.Users[9].LastName, rest.Users[0].LastName)
}

func TestListUsersExactFilterAndDescendingSort(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()
	groups := NewGroupService(svc.db)

	field, err := groups.Create(ctx, GroupInput{Name: "Field"})
	require.NoError(t, err)
	office, err := groups.Create(ctx, GroupInput{Name: "Office"})
	require.NoError(t, err)

	for i, g := range []uint{field.ID, office.ID, field.ID, field.ID} {
		_, err := svc.Create(ctx, CreateUserInput{
			Email:     fmt.Sprintf("u%d@example.com", i),
			FirstName: fmt.Sprintf("Name%d", i),
			GroupID:   uintPtr(g),
		})
		require.NoError(t, err)
	}

	q, err := ParseUserQuery(url.Values{
		"start": {"0"}, "limit": {"50"}, "group": {fmt.Sprint(field.ID)}, "sortf": {"first_name"}, "sortt": {"1"},
	})
	require.NoError(t, err)
	page, err := svc.List(ctx, q)
	require.NoError(t, err)

	require.Len(t, page.Users, 3)
	assert.Equal(t, []string{"Name3", "Name2", "Name0"},
		[]string{page.Users[0].FirstName, page.Users[1].FirstName, page.Users[2].FirstName})
	require.NotNil(t, page.Users[0].Group)
	assert.Equal(t, "Field", page.Users[0].Group.Name)
	assert.EqualValues(t, 4, page.UsersCount)
}

func TestListUsersEscapesWildcards(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	for i, dept := range []string{"50% crew", "500 crew", "a_b", "axb"} {
		_, err := svc.Create(ctx, CreateUserInput{Email: fmt.Sprintf("w%d@example.com", i), Dept: dept})
		require.NoError(t, err)
	}

	for term, want := range map[string]string{"50%": "50% crew", "a_b": "a_b"} {
		q, err := ParseUserQuery(url.Values{"start": {"0"}, "limit": {"10"}, "dept": {term}})
		require.NoError(t, err)
		page, err := svc.List(ctx, q)
		require.NoError(t, err)
		require.Len(t, page.Users, 1, term)
		assert.Equal(t, want, page.Users[0].Dept)
	}
}

func TestCreateUserAlwaysUsesDefaultPassword(t *testing.T) {
	svc, _ := newUserService(t)

	user, err := svc.Create(context.Background(), CreateUserInput{
		Email:    "new@example.com",
		Password: "chosen-by-caller",
	})
	require.NoError(t, err)

	var stored models.User
	require.NoError(t, svc.db.First(&stored, user.ID).Error)
	assert.True(t, passwordMatches(stored.PasswordHash, defaultPassword))
	assert.False(t, passwordMatches(stored.PasswordHash, "chosen-by-caller"))
	assert.NotEqual(t, defaultPassword, stored.PasswordHash)
}

func TestCreateUserErrors(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateUserInput{Email: "dup@example.com"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateUserInput{Email: "dup@example.com"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Create(ctx, CreateUserInput{Email: "not-an-email"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, CreateUserInput{Email: "orphan@example.com", GroupID: uintPtr(42)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPatchUser(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	group, err := NewGroupService(svc.db).Create(ctx, GroupInput{Name: "Field"})
	require.NoError(t, err)
	user, err := svc.Create(ctx, CreateUserInput{Email: "p@example.com", FirstName: "Ann", Dept: "Ops"})
	require.NoError(t, err)

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Patch(ctx, user.ID+100, PatchUserInput{FirstName: strPtr("X")})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown group leaves user untouched", func(t *testing.T) {
		_, err := svc.Patch(ctx, user.ID, PatchUserInput{FirstName: strPtr("Changed"), GroupID: uintPtr(group.ID + 100)})
		assert.ErrorIs(t, err, ErrNotFound)

		got, err := svc.Get(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ann", got.FirstName)
		assert.Nil(t, got.GroupID)
	})

	t.Run("partial update", func(t *testing.T) {
		got, err := svc.Patch(ctx, user.ID, PatchUserInput{GroupID: uintPtr(group.ID), Dept: strPtr("Field Ops")})
		require.NoError(t, err)
		assert.Equal(t, "Ann", got.FirstName)
		assert.Equal(t, "Field Ops", got.Dept)
		require.NotNil(t, got.Group)
		assert.Equal(t, group.ID, got.Group.ID)
	})

	t.Run("password change", func(t *testing.T) {
		_, err := svc.Patch(ctx, user.ID, PatchUserInput{Password: strPtr("brand-new-pass")})
		require.NoError(t, err)

		var stored models.User
		require.NoError(t, svc.db.First(&stored, user.ID).Error)
		assert.True(t, passwordMatches(stored.PasswordHash, "brand-new-pass"))
	})

	t.Run("email clash", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateUserInput{Email: "taken@example.com"})
		require.NoError(t, err)
		_, err = svc.Patch(ctx, user.ID, PatchUserInput{Email: strPtr("taken@example.com")})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("invalid email", func(t *testing.T) {
		_, err := svc.Patch(ctx, user.ID, PatchUserInput{Email: strPtr("")})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestDeleteUserRevokesDevice(t *testing.T) {
	svc, devices := newUserService(t)
	ctx := context.Background()
	tracks := NewTrackService(svc.db)

	user, err := svc.Create(ctx, CreateUserInput{Email: "gone@example.com"})
	require.NoError(t, err)

	in := loginInput(user.Email)
	in.Password = defaultPassword
	res, err := devices.Login(ctx, in)
	require.NoError(t, err)
	device, err := devices.Authenticate(ctx, res.DeviceID, res.ClientKey)
	require.NoError(t, err)
	_, err = tracks.ReportLocation(ctx, device, LocationInput{Latitude: floatPtr(1), Longitude: floatPtr(2)})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, user.ID))

	_, err = devices.Authenticate(ctx, res.DeviceID, res.ClientKey)
	assert.ErrorIs(t, err, ErrAuth)

	var remaining int64
	require.NoError(t, svc.db.Model(&models.Track{}).Where("user_id = ?", user.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)

	assert.ErrorIs(t, svc.Delete(ctx, user.ID), ErrNotFound)
}

func TestEnsureAdminAndAuthenticateAdmin(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "admin@example.com", "admin-pass"))
	// idempotent
	require.NoError(t, svc.EnsureAdmin(ctx, "admin@example.com", "ignored-second-time"))

	admin, err := svc.AuthenticateAdmin(ctx, "admin@example.com", "admin-pass")
	require.NoError(t, err)
	require.NotNil(t, admin.Role)
	assert.Equal(t, models.RoleAdmin, admin.Role.Name)

	_, err = svc.AuthenticateAdmin(ctx, "admin@example.com", "ignored-second-time")
	assert.ErrorIs(t, err, ErrAuth)

	_, err = svc.AuthenticateAdmin(ctx, "nobody@example.com", "admin-pass")
	assert.ErrorIs(t, err, ErrAuth)

	worker, err := svc.Create(ctx, CreateUserInput{Email: "worker@example.com"})
	require.NoError(t, err)
	_, err = svc.AuthenticateAdmin(ctx, worker.Email, defaultPassword)
	assert.ErrorIs(t, err, ErrAuth)

	require.NoError(t, svc.EnsureAdmin(ctx, worker.Email, "whatever"))
	_, err = svc.AuthenticateAdmin(ctx, worker.Email, defaultPassword)
	assert.NoError(t, err, "promotion keeps the existing password")

	var roles int64
	require.NoError(t, svc.db.Model(&models.Role{}).Count(&roles).Error)
	assert.EqualValues(t, 1, roles)
}

func TestEnsureAdminNoopWithoutCredentials(t *testing.T) {
	svc, _ := newUserService(t)
	require.NoError(t, svc.EnsureAdmin(context.Background(), "", ""))

	var users int64
	require.NoError(t, svc.db.Model(&models.User{}).Count(&users).Error)
	assert.Zero(t, users)
}
