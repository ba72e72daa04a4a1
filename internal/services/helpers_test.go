package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"field_tracker/internal/dbtest"
	"field_tracker/internal/models"
)

const testPassword = "s3cret-pass"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return dbtest.Open(t)
}

func seedUser(t *testing.T, db *gorm.DB, email string, mutate ...func(*models.User)) *models.User {
	t.Helper()
	hash, err := hashPassword(testPassword, bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{Email: email, PasswordHash: hash}
	for _, m := range mutate {
		m(user)
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func loginInput(email string) LoginInput {
	return LoginInput{
		Email:        email,
		Password:     testPassword,
		PushToken:    "push-token",
		Manufacturer: "Samsung",
		Model:        "A52",
		OSVersion:    "13",
	}
}

func intPtr(v int) *int           { return &v }
func uintPtr(v uint) *uint        { return &v }
func strPtr(v string) *string     { return &v }
func floatPtr(v float64) *float64 { return &v }
