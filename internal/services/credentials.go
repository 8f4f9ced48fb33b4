package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/medguardian/backend/internal/database"
	"github.com/medguardian/backend/internal/models"
	"github.com/medguardian/backend/pkg/utils"
)

// uniqueViolation is the Postgres error code for a unique constraint breach.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// CreateUser hashes the password and inserts a new user row.
// A duplicate username returns (false, nil) — an expected, user-correctable
// condition, not an error. Any other store failure wraps ErrPersistence.
func CreateUser(ctx context.Context, username, password, fullName, phone string) (bool, error) {
	username = utils.NormalizeUsername(username)

	hash, err := utils.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("create user: hash password: %w", err)
	}

	conn, err := database.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Release()

	// Cheap pre-check; the unique index still backs the race window.
	var existing uuid.UUID
	err = conn.QueryRowContext(ctx,
		`SELECT id FROM users WHERE username = $1`, username).Scan(&existing)
	if err == nil {
		log.Printf("create user: username %q already exists", username)
		return false, nil
	}
	if err != sql.ErrNoRows {
		return false, fmt.Errorf("create user: lookup failed: %v: %w", err, ErrPersistence)
	}

	_, err = conn.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, full_name, phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.New(), username, hash, fullName, phone, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			log.Printf("create user: username %q raced an existing row", username)
			return false, nil
		}
		return false, fmt.Errorf("create user: insert failed: %v: %w", err, ErrPersistence)
	}

	return true, nil
}

// Authenticate looks up a user by username and verifies the password.
// Unknown user and wrong password both return (nil, nil): absence and
// mismatch are the same "no identity" signal to the caller, distinguishable
// only in the audit log.
func Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	username = utils.NormalizeUsername(username)

	conn, err := database.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	var u models.User
	var fullName, phone sql.NullString
	err = conn.QueryRowContext(ctx, `
		SELECT id, username, password_hash, full_name, phone, created_at
		FROM users WHERE username = $1
	`, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &fullName, &phone, &u.CreatedAt)
	if err == sql.ErrNoRows {
		log.Printf("authenticate: unknown username %q", username)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate: lookup failed: %v: %w", err, ErrPersistence)
	}
	u.FullName = fullName.String
	u.Phone = phone.String

	valid, err := utils.VerifyPassword(password, u.PasswordHash)
	if err != nil || !valid {
		log.Printf("authenticate: password mismatch for %q", username)
		return nil, nil
	}

	u.PasswordHash = ""
	return &u, nil
}
