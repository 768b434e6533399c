package database

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	uniq := &pgconn.PgError{Code: "23505", Message: "duplicate key value"}
	if !IsUniqueViolation(uniq) {
		t.Fatalf("bare unique violation not detected")
	}
	if !IsUniqueViolation(fmt.Errorf("insert user: %w", uniq)) {
		t.Fatalf("wrapped unique violation not detected")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatalf("foreign key violation misread as unique violation")
	}
	// The code appearing in message text is not a violation.
	if IsUniqueViolation(fmt.Errorf("constraint 23505 mentioned in passing")) {
		t.Fatalf("plain error mentioning the code misdetected")
	}
	if IsUniqueViolation(nil) {
		t.Fatalf("nil error misdetected")
	}
}
