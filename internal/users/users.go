// Package users stores raffle participants and reads their ticket history.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/ticketbot/core/database"
	"github.com/m3rciful/ticketbot/core/logger"
)

var (
	// ErrNotFound is returned when no user record exists for the id.
	ErrNotFound = errors.New("users: not found")
	// ErrUserExists is returned when creating a record for an id already taken.
	ErrUserExists = errors.New("users: already exists")
)

// User is a registered raffle participant. Profile fields are nil when an
// administrator created the record and skipped them.
type User struct {
	UserID      int64     `db:"user_id"`
	Surname     *string   `db:"surname"`
	Name        *string   `db:"name"`
	Address     *string   `db:"address"`
	Phone       *string   `db:"phone"`
	TicketTotal int       `db:"ticket_total"`
	CreatedAt   time.Time `db:"created_at"`
}

// FullName joins the known name parts.
func (u User) FullName() string {
	var parts []string
	for _, p := range []*string{u.Surname, u.Name} {
		if p != nil && strings.TrimSpace(*p) != "" {
			parts = append(parts, strings.TrimSpace(*p))
		}
	}
	return strings.Join(parts, " ")
}

// Profile holds the fields collected for a new user.
type Profile struct {
	Surname *string
	Name    *string
	Address *string
	Phone   *string
}

// Ticket is one issued raffle ticket.
type Ticket struct {
	TicketID      int64     `db:"ticket_id"`
	UserID        int64     `db:"user_id"`
	ReceiptNumber string    `db:"receipt_number"`
	CreatedAt     time.Time `db:"created_at"`
}

// Repository is the sqlx-backed user store.
type Repository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewRepository wraps db.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

const userColumns = `user_id, surname, name, address, phone, ticket_total, created_at`

// Get loads a user by Telegram id.
func (r *Repository) Get(ctx context.Context, userID int64) (User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, r.db.Rebind(
		`SELECT `+userColumns+` FROM users WHERE user_id = ?`), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("users get: %w", err)
	}
	return u, nil
}

// Exists reports whether a record for userID exists.
func (r *Repository) Exists(ctx context.Context, userID int64) (bool, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(
		`SELECT COUNT(*) FROM users WHERE user_id = ?`), userID); err != nil {
		return false, fmt.Errorf("users exists: %w", err)
	}
	return n > 0, nil
}

// Create inserts a user with a zero ticket total. A second create for the
// same id fails with ErrUserExists and leaves the first record intact.
func (r *Repository) Create(ctx context.Context, userID int64, p Profile) (User, error) {
	u := User{
		UserID:    userID,
		Surname:   clean(p.Surname),
		Name:      clean(p.Name),
		Address:   clean(p.Address),
		Phone:     clean(p.Phone),
		CreatedAt: r.now().UTC(),
	}
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO users (user_id, surname, name, address, phone, ticket_total, created_at)
		 VALUES (:user_id, :surname, :name, :address, :phone, 0, :created_at)`, u)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return User{}, ErrUserExists
		}
		return User{}, fmt.Errorf("users create: %w", err)
	}
	logger.SVCUsers.InfoContext(ctx, "user created",
		slog.String("event", "users.create"),
		slog.Int64("user_id", userID),
	)
	return u, nil
}

// Delete removes the user and their tickets. Receipt claims are kept so a
// redeemed receipt stays spent.
func (r *Repository) Delete(ctx context.Context, userID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("users delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM tickets WHERE user_id = ?`), userID); err != nil {
		return fmt.Errorf("users delete tickets: %w", err)
	}
	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM users WHERE user_id = ?`), userID)
	if err != nil {
		return fmt.Errorf("users delete: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("users delete: %w", err)
	} else if n == 0 {
		return ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("users delete commit: %w", err)
	}
	logger.SVCUsers.InfoContext(ctx, "user deleted",
		slog.String("event", "users.delete"),
		slog.Int64("user_id", userID),
	)
	return nil
}

// List returns every user ordered by id.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	var out []User
	if err := r.db.SelectContext(ctx, &out,
		`SELECT `+userColumns+` FROM users ORDER BY user_id`); err != nil {
		return nil, fmt.Errorf("users list: %w", err)
	}
	return out, nil
}

// Tickets returns the user's tickets in issue order.
func (r *Repository) Tickets(ctx context.Context, userID int64) ([]Ticket, error) {
	var out []Ticket
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(
		`SELECT ticket_id, user_id, receipt_number, created_at FROM tickets
		 WHERE user_id = ? ORDER BY ticket_id`), userID); err != nil {
		return nil, fmt.Errorf("users tickets: %w", err)
	}
	return out, nil
}

// AllTickets returns every ticket grouped by owner.
func (r *Repository) AllTickets(ctx context.Context) (map[int64][]Ticket, error) {
	var rows []Ticket
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT ticket_id, user_id, receipt_number, created_at FROM tickets ORDER BY user_id, ticket_id`); err != nil {
		return nil, fmt.Errorf("users all tickets: %w", err)
	}
	out := make(map[int64][]Ticket)
	for _, t := range rows {
		out[t.UserID] = append(out[t.UserID], t)
	}
	return out, nil
}

func clean(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
