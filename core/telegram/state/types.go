package state

import (
	"context"
	"errors"
	"time"
)

// State identifies a dialogue step.
type State string

// StateIdle indicates there is no active conversation with the user.
const StateIdle State = "idle"

// ErrNoSession is returned by Store.Load when the user has no stored session.
var ErrNoSession = errors.New("state: no session")

// Session stores conversation state and collected fields for a user.
type Session struct {
	UserID    int64
	State     State
	Data      map[string]string
	UpdatedAt time.Time
}

// Active reports whether the session is in a non-idle step.
func (s Session) Active() bool {
	return s.State != "" && s.State != StateIdle
}

// Value returns a collected field or "" when absent.
func (s Session) Value(key string) string {
	if s.Data == nil {
		return ""
	}
	return s.Data[key]
}

// With returns a copy of the session with key set to value.
func (s Session) With(key, value string) Session {
	s = s.clone()
	s.Data[key] = value
	return s
}

func (s Session) clone() Session {
	data := make(map[string]string, len(s.Data)+1)
	for k, v := range s.Data {
		data[k] = v
	}
	s.Data = data
	return s
}

// Store persists sessions keyed by user id.
type Store interface {
	Load(ctx context.Context, userID int64) (Session, error)
	Save(ctx context.Context, s Session) error
	Delete(ctx context.Context, userID int64) error
}
