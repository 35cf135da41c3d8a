package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/m3rciful/ticketbot/core/logger"
	"github.com/m3rciful/ticketbot/core/telegram/state"
	"github.com/m3rciful/ticketbot/internal/users"
)

var (
	// ErrAlreadyRegistered is returned when the user record already exists.
	ErrAlreadyRegistered = errors.New("registration: already registered")
	// ErrNotInProgress is returned by Advance when no registration is running.
	ErrNotInProgress = errors.New("registration: not in progress")
)

// UserStore is the part of the user repository the flow needs.
type UserStore interface {
	Exists(ctx context.Context, userID int64) (bool, error)
	Create(ctx context.Context, userID int64, p users.Profile) (users.User, error)
}

// Flow drives Transition against persisted sessions.
type Flow struct {
	sessions state.Store
	users    UserStore
}

// NewFlow wires a flow.
func NewFlow(sessions state.Store, us UserStore) *Flow {
	return &Flow{sessions: sessions, users: us}
}

// Start begins (or restarts) registration for userID and returns the first prompt.
func (f *Flow) Start(ctx context.Context, userID int64) (Effect, error) {
	exists, err := f.users.Exists(ctx, userID)
	if err != nil {
		return Effect{}, err
	}
	if exists {
		return Effect{}, ErrAlreadyRegistered
	}
	st, eff := Begin()
	if err := f.sessions.Save(ctx, toSession(userID, st)); err != nil {
		return Effect{}, fmt.Errorf("registration start: %w", err)
	}
	logger.SVCRegistration.InfoContext(ctx, "registration started",
		slog.String("event", "registration.start"),
		slog.Int64("user_id", userID),
		slog.String("step", string(st.Step)),
	)
	return eff, nil
}

// Advance feeds one message into the user's registration. On completion the
// user record is created and the session removed; a record that already
// exists yields ErrAlreadyRegistered and is left untouched.
func (f *Flow) Advance(ctx context.Context, userID int64, text string) (Effect, error) {
	sess, err := f.sessions.Load(ctx, userID)
	if errors.Is(err, state.ErrNoSession) {
		return Effect{}, ErrNotInProgress
	}
	if err != nil {
		return Effect{}, fmt.Errorf("registration load: %w", err)
	}
	st := fromSession(sess)
	if !inProgress(st.Step) {
		return Effect{}, ErrNotInProgress
	}

	next, eff := Transition(st, text)
	switch {
	case eff.Cancelled:
		return eff, f.Cancel(ctx, userID)
	case eff.Rejected:
		logger.SVCRegistration.DebugContext(ctx, "input rejected",
			slog.String("event", "registration.reject"),
			slog.Int64("user_id", userID),
			slog.String("step", string(st.Step)),
			slog.String("reason", eff.Reason),
		)
		return eff, nil
	case eff.Completed:
		return eff, f.complete(ctx, userID, next)
	}

	if err := f.sessions.Save(ctx, toSession(userID, next)); err != nil {
		return Effect{}, fmt.Errorf("registration save: %w", err)
	}
	return eff, nil
}

// Cancel discards the user's registration session.
func (f *Flow) Cancel(ctx context.Context, userID int64) error {
	if err := f.sessions.Delete(ctx, userID); err != nil {
		return fmt.Errorf("registration cancel: %w", err)
	}
	logger.SVCRegistration.InfoContext(ctx, "registration cancelled",
		slog.String("event", "registration.cancel"),
		slog.Int64("user_id", userID),
		slog.String("outcome", "cancelled"),
	)
	return nil
}

func (f *Flow) complete(ctx context.Context, userID int64, st State) error {
	_, err := f.users.Create(ctx, userID, users.Profile{
		Surname: &st.Surname,
		Name:    &st.Name,
		Address: &st.Address,
		Phone:   &st.Phone,
	})
	if err != nil && !errors.Is(err, users.ErrUserExists) {
		// Keep the session so the last answer can be resent.
		return fmt.Errorf("registration complete: %w", err)
	}
	if delErr := f.sessions.Delete(ctx, userID); delErr != nil {
		logger.SVCRegistration.WarnContext(ctx, "session cleanup failed",
			slog.String("event", "registration.complete"),
			slog.Int64("user_id", userID),
			slog.String("err", delErr.Error()),
		)
	}
	if errors.Is(err, users.ErrUserExists) {
		return ErrAlreadyRegistered
	}
	logger.SVCRegistration.InfoContext(ctx, "registration complete",
		slog.String("event", "registration.complete"),
		slog.Int64("user_id", userID),
		slog.String("outcome", "ok"),
	)
	return nil
}
