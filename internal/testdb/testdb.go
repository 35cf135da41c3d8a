// Package testdb opens throwaway SQLite databases carrying the bot schema.
// It mirrors migrations/ in SQLite dialect so repository tests run without
// a Postgres server.
package testdb

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE users (
    user_id      INTEGER PRIMARY KEY,
    surname      TEXT,
    name         TEXT,
    address      TEXT,
    phone        TEXT,
    ticket_total INTEGER NOT NULL DEFAULT 0 CHECK (ticket_total >= 0),
    created_at   TIMESTAMP NOT NULL
);
CREATE TABLE receipts (
    receipt_number TEXT PRIMARY KEY,
    user_id        INTEGER NOT NULL,
    amount         INTEGER NOT NULL CHECK (amount >= 0),
    ticket_count   INTEGER NOT NULL CHECK (ticket_count > 0),
    submitted_at   TIMESTAMP NOT NULL,
    UNIQUE (user_id, receipt_number)
);
CREATE TABLE tickets (
    ticket_id      INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id        INTEGER NOT NULL REFERENCES users (user_id) ON DELETE CASCADE,
    receipt_number TEXT NOT NULL REFERENCES receipts (receipt_number),
    created_at     TIMESTAMP NOT NULL
);
CREATE TABLE user_roles (
    user_id    INTEGER NOT NULL,
    role       TEXT NOT NULL,
    granted_at TIMESTAMP NOT NULL,
    PRIMARY KEY (user_id, role)
);
CREATE TABLE conversation_sessions (
    user_id    INTEGER PRIMARY KEY,
    state      TEXT NOT NULL,
    data       TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// New returns a file-backed database in t.TempDir with the schema applied.
// The pool holds a single connection so concurrent callers serialize the
// way row locks would serialize them on Postgres.
func New(t testing.TB) *sqlx.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bot.db")
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}
