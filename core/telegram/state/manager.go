package state

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/m3rciful/ticketbot/core/logger"
	tghelpers "github.com/m3rciful/ticketbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Manager dispatches updates to the handler owning the sender's current step.
// Handlers are registered either for an exact State or for a dotted prefix
// ("registration." matches "registration.surname").
type Manager struct {
	store Store

	mu       sync.RWMutex
	exact    map[State]tele.HandlerFunc
	prefixes map[string]tele.HandlerFunc
}

// NewManager wires a manager over store.
func NewManager(store Store) *Manager {
	return &Manager{
		store:    store,
		exact:    make(map[State]tele.HandlerFunc),
		prefixes: make(map[string]tele.HandlerFunc),
	}
}

// Store exposes the underlying session store.
func (m *Manager) Store() Store { return m.store }

// Handle associates a state with its handler.
func (m *Manager) Handle(st State, h tele.HandlerFunc) {
	if h == nil || st == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exact[st] = h
}

// HandlePrefix associates every state starting with prefix with h.
func (m *Manager) HandlePrefix(prefix string, h tele.HandlerFunc) {
	if h == nil || prefix == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefixes[prefix] = h
}

// Get returns the user's session; users without one get an idle session.
func (m *Manager) Get(ctx context.Context, userID int64) (Session, error) {
	sess, err := m.store.Load(ctx, userID)
	if errors.Is(err, ErrNoSession) {
		return Session{UserID: userID, State: StateIdle, Data: map[string]string{}}, nil
	}
	return sess, err
}

// Set stores the session.
func (m *Manager) Set(ctx context.Context, sess Session) error {
	return m.store.Save(ctx, sess)
}

// Clear removes the user's session.
func (m *Manager) Clear(ctx context.Context, userID int64) error {
	return m.store.Delete(ctx, userID)
}

// InProgress reports whether the user is inside a dialogue with a known handler.
// Store failures are logged and treated as "no dialogue".
func (m *Manager) InProgress(ctx context.Context, userID int64) bool {
	sess, err := m.Get(ctx, userID)
	if err != nil {
		logger.Warn(ctx, "tg", "fsm.load_failed",
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return false
	}
	if !sess.Active() {
		return false
	}
	_, ok := m.lookup(sess.State)
	return ok
}

// ManagerHandler executes the handler registered for the user's current state, if any.
func (m *Manager) ManagerHandler(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	userID := c.Sender().ID
	sess, err := m.Get(ctx, userID)
	if err != nil {
		return err
	}
	logger.Debug(ctx, "tg", "fsm.manager",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.String("state", string(sess.State)),
	)
	if handler, ok := m.lookup(sess.State); ok {
		return handler(c)
	}
	return nil
}

func (m *Manager) lookup(st State) (tele.HandlerFunc, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if h, ok := m.exact[st]; ok {
		return h, true
	}
	best := ""
	for prefix := range m.prefixes {
		if strings.HasPrefix(string(st), prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best == "" {
		return nil, false
	}
	return m.prefixes[best], true
}
