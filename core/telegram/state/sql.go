package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLStore persists sessions in the conversation_sessions table.
type SQLStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSQLStore returns a Store backed by db.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

type sessionRow struct {
	UserID    int64     `db:"user_id"`
	State     string    `db:"state"`
	Data      []byte    `db:"data"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Load reads the user's session or returns ErrNoSession.
func (s *SQLStore) Load(ctx context.Context, userID int64) (Session, error) {
	var row sessionRow
	q := s.db.Rebind(`SELECT user_id, state, data, updated_at FROM conversation_sessions WHERE user_id = ?`)
	if err := s.db.GetContext(ctx, &row, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNoSession
		}
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	sess := Session{
		UserID:    row.UserID,
		State:     State(row.State),
		Data:      map[string]string{},
		UpdatedAt: row.UpdatedAt,
	}
	if len(row.Data) > 0 {
		if err := json.Unmarshal(row.Data, &sess.Data); err != nil {
			return Session{}, fmt.Errorf("decode session data: %w", err)
		}
	}
	return sess, nil
}

// Save upserts the session.
func (s *SQLStore) Save(ctx context.Context, sess Session) error {
	data := sess.Data
	if data == nil {
		data = map[string]string{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode session data: %w", err)
	}
	q := s.db.Rebind(`
		INSERT INTO conversation_sessions (user_id, state, data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE
		SET state = excluded.state, data = excluded.data, updated_at = excluded.updated_at`)
	if _, err := s.db.ExecContext(ctx, q, sess.UserID, string(sess.State), string(raw), s.now().UTC()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Delete removes the user's session.
func (s *SQLStore) Delete(ctx context.Context, userID int64) error {
	q := s.db.Rebind(`DELETE FROM conversation_sessions WHERE user_id = ?`)
	if _, err := s.db.ExecContext(ctx, q, userID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
