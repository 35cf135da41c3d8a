package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"pq unique", fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), true},
		{"pq fk", &pq.Error{Code: "23503", Message: "violates foreign key constraint"}, false},
		{"sqlite", errors.New("constraint failed: UNIQUE constraint failed: receipts.receipt_number (1555)"), true},
		{"other", errors.New("connection refused"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUniqueViolation(tc.err); got != tc.want {
				t.Fatalf("IsUniqueViolation(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
