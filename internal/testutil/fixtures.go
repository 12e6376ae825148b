package testutil

import (
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SeedUser inserts a user with password "testpassword" and returns its id.
func SeedUser(t *testing.T, db *sql.DB, username, login string) uuid.UUID {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("testpassword"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	var id uuid.UUID

	err = db.QueryRow(
		`INSERT INTO users (username, login, password_hash) VALUES ($1, $2, $3) RETURNING id`,
		username, login, string(hash),
	).Scan(&id)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	return id
}

// CountRows returns the number of rows in table. table must be a trusted identifier.
func CountRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}

	return n
}
