package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Error kinds. Every error returned by this package that callers are
// expected to handle matches exactly one of these through errors.Is.
var (
	ErrAuth       = errors.New("unauthorized")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
)

// AuthError never says which half of a credential pair was wrong.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string     { return "auth: " + e.Reason }
func (e *AuthError) Is(err error) bool { return err == ErrAuth }

var (
	ErrInvalidCredentials = &AuthError{Reason: "invalid_credentials"}
	ErrUnauthorized       = &AuthError{Reason: "unauthorized"}
)

// ValidationError carries one message per offending field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(err error) bool { return err == ErrValidation }

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

type NotFoundError struct {
	Resource string
	ID       any
}

func (e *NotFoundError) Error() string {
	if e.ID == nil {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(err error) bool { return err == ErrNotFound }

type ConflictError struct {
	Detail string
	Err    error
}

func (e *ConflictError) Error() string     { return "conflict: " + e.Detail }
func (e *ConflictError) Is(err error) bool { return err == ErrConflict }
func (e *ConflictError) Unwrap() error     { return e.Err }

// writeError turns a failed write into a ConflictError when the database
// rejected it for a uniqueness violation.
func writeError(err error, what string) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return &ConflictError{Detail: what + " already exists", Err: err}
	}
	return fmt.Errorf("write %s: %w", what, err)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// SQLite reports constraint failures only through the message
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func lookupError(err error, resource string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Resource: resource, ID: id}
	}
	return fmt.Errorf("load %s: %w", resource, err)
}
