package postgres

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL error code for a unique constraint breach
const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique-constraint violation,
// optionally restricted to a named constraint
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// nullText converts an empty string to nil for nullable text columns
func nullText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// textOrEmpty converts a nullable text column back to a string
func textOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// marshalJSON encodes a map for a jsonb column, defaulting to an empty object
func marshalJSON(m map[string]interface{}) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal jsonb: %w", err)
	}
	return b, nil
}

// unmarshalJSON decodes a jsonb column into a map, nil for empty objects
func unmarshalJSON(b []byte) (map[string]interface{}, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("unmarshal jsonb: %w", err)
	}
	if len(m) == 0 {
		return nil, nil
	}
	return m, nil
}
