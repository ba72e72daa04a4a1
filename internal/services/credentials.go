package services

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const clientKeyBytes = 32

// newClientKey returns a fresh bearer key for a device and the digest we persist.
func newClientKey() (key, digest string, err error) {
	raw := make([]byte, clientKeyBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("generate client key: %w", err)
	}
	key = base64.RawURLEncoding.EncodeToString(raw)
	return key, hashClientKey(key), nil
}

func hashClientKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func clientKeyMatches(digest, key string) bool {
	if key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(digest), []byte(hashClientKey(key))) == 1
}

func hashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func passwordMatches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// dummyHash is compared against when the email is unknown so a miss costs
// about as much as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("field-tracker-dummy"), bcrypt.DefaultCost)
