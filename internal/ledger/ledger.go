// Package ledger issues raffle tickets against payment receipts.
//
// A receipt number can be redeemed exactly once across all users. Issuance
// inserts a claim row for the receipt, the ticket rows and the user's running
// total in a single transaction, so either all of it is visible or none.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/m3rciful/ticketbot/core/database"
	"github.com/m3rciful/ticketbot/core/logger"
)

// DefaultTicketPrice is the amount, in whole currency units, that buys one ticket.
const DefaultTicketPrice int64 = 7900

// DefaultMaxTickets caps the tickets a single receipt can buy.
const DefaultMaxTickets = 1000

// Issuance describes the outcome of a successful Issue call.
type Issuance struct {
	Tickets       int
	ReceiptNumber string
	TicketIDs     []int64
}

// Ledger is safe for concurrent use.
type Ledger struct {
	db         *sqlx.DB
	price      int64
	maxTickets int
	now        func() time.Time
}

// Option customizes a Ledger.
type Option func(*Ledger)

// WithClock overrides the timestamp source for claim and ticket rows.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithMaxTickets sets the per-receipt ticket cap. Non-positive n keeps the default.
func WithMaxTickets(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.maxTickets = n
		}
	}
}

// New returns a ledger selling tickets at price per ticket.
func New(db *sqlx.DB, price int64, opts ...Option) (*Ledger, error) {
	if db == nil {
		return nil, errors.New("ledger: nil database")
	}
	if price <= 0 {
		return nil, fmt.Errorf("ledger: ticket price must be positive, got %d", price)
	}
	l := &Ledger{db: db, price: price, maxTickets: DefaultMaxTickets, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Price returns the configured ticket price.
func (l *Ledger) Price() int64 { return l.price }

// MaxTickets returns the per-receipt ticket cap.
func (l *Ledger) MaxTickets() int { return l.maxTickets }

// Quote returns how many tickets amount buys. Amounts above the cap quote
// maxTickets+1 so callers can tell them apart without overflowing int.
func (l *Ledger) Quote(amount int64) int {
	if amount <= 0 {
		return 0
	}
	n := amount / l.price
	if n > int64(l.maxTickets) {
		return l.maxTickets + 1
	}
	return int(n)
}

// Issue grants floor(amount/price) tickets to userID for receiptNumber.
//
// A receipt worth less than one ticket yields a zero Issuance and is not
// consumed. A receipt seen before yields ErrDuplicateReceipt, or
// ErrReceiptTaken when it belongs to someone else; nothing changes in
// either case. A receipt buying more than the cap yields ErrTooManyTickets
// before any storage is touched.
func (l *Ledger) Issue(ctx context.Context, userID, amount int64, receiptNumber string) (Issuance, error) {
	receiptNumber = strings.TrimSpace(receiptNumber)
	if receiptNumber == "" || amount < 0 {
		return Issuance{}, ErrInvalidReceipt
	}
	if l.Quote(amount) > l.maxTickets {
		l.logRejected(ctx, userID, receiptNumber, ErrTooManyTickets)
		return Issuance{}, ErrTooManyTickets
	}
	start := time.Now()

	ctx, span := otel.Tracer("ledger").Start(ctx, "ledger.issue", trace.WithAttributes(
		attribute.Int64("user.id", userID),
		attribute.Int64("receipt.amount", amount),
	))
	defer span.End()

	iss, err := l.issue(ctx, userID, amount, receiptNumber)
	if err != nil {
		span.RecordError(err)
		l.logRejected(ctx, userID, receiptNumber, err)
		return Issuance{}, err
	}
	span.SetAttributes(attribute.Int("tickets", iss.Tickets))

	logger.SVCLedger.InfoContext(ctx, "tickets issued",
		slog.String("event", "ledger.issue"),
		slog.Int64("user_id", userID),
		slog.String("receipt", receiptNumber),
		slog.Int64("amount", amount),
		slog.Int("tickets", iss.Tickets),
		slog.Duration("duration", logger.Took(start)),
		slog.String("outcome", "ok"),
	)
	return iss, nil
}

func (l *Ledger) issue(ctx context.Context, userID, amount int64, receiptNumber string) (Issuance, error) {
	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return Issuance{}, persistence("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	owner, found, err := claimOwner(ctx, tx, receiptNumber)
	if err != nil {
		return Issuance{}, persistence("lookup receipt", err)
	}
	if found {
		return Issuance{}, ownerError(owner, userID)
	}

	count := l.Quote(amount)
	if count == 0 {
		return Issuance{ReceiptNumber: receiptNumber}, nil
	}
	now := l.now().UTC()

	res, err := tx.ExecContext(ctx, tx.Rebind(
		`UPDATE users SET ticket_total = ticket_total + ? WHERE user_id = ?`), count, userID)
	if err != nil {
		return Issuance{}, persistence("update total", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return Issuance{}, persistence("update total", err)
	} else if n == 0 {
		return Issuance{}, ErrUnknownUser
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(
		`INSERT INTO receipts (receipt_number, user_id, amount, ticket_count, submitted_at)
		 VALUES (?, ?, ?, ?, ?)`), receiptNumber, userID, amount, count, now); err != nil {
		if database.IsUniqueViolation(err) {
			// Lost a race with a concurrent claim.
			_ = tx.Rollback()
			return Issuance{}, l.raceError(ctx, receiptNumber, userID)
		}
		return Issuance{}, persistence("insert receipt", err)
	}

	ids, err := insertTickets(ctx, tx, count, userID, receiptNumber, now)
	if err != nil {
		return Issuance{}, persistence("insert tickets", err)
	}

	if err := tx.Commit(); err != nil {
		if database.IsUniqueViolation(err) {
			return Issuance{}, l.raceError(ctx, receiptNumber, userID)
		}
		return Issuance{}, persistence("commit", err)
	}
	return Issuance{Tickets: count, ReceiptNumber: receiptNumber, TicketIDs: ids}, nil
}

// insertTickets writes count ticket rows in one statement and returns their
// ids in insertion order.
func insertTickets(ctx context.Context, tx *sqlx.Tx, count int, userID int64, receiptNumber string, at time.Time) ([]int64, error) {
	var q strings.Builder
	q.WriteString(`INSERT INTO tickets (user_id, receipt_number, created_at) VALUES `)
	args := make([]any, 0, 3*count)
	for i := 0; i < count; i++ {
		if i > 0 {
			q.WriteString(", ")
		}
		q.WriteString("(?, ?, ?)")
		args = append(args, userID, receiptNumber, at)
	}
	q.WriteString(` RETURNING ticket_id`)

	rows, err := tx.QueryxContext(ctx, tx.Rebind(q.String()), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) != count {
		return nil, fmt.Errorf("inserted %d tickets, want %d", len(ids), count)
	}
	slices.Sort(ids)
	return ids, nil
}

type queryer interface {
	sqlx.QueryerContext
	Rebind(string) string
}

func claimOwner(ctx context.Context, q queryer, receiptNumber string) (int64, bool, error) {
	var owner int64
	err := sqlx.GetContext(ctx, q, &owner, q.Rebind(
		`SELECT user_id FROM receipts WHERE receipt_number = ?`), receiptNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return owner, true, nil
}

func ownerError(owner, userID int64) error {
	if owner == userID {
		return ErrDuplicateReceipt
	}
	return ErrReceiptTaken
}

// raceError classifies a unique violation by reading the committed claim.
func (l *Ledger) raceError(ctx context.Context, receiptNumber string, userID int64) error {
	owner, found, err := claimOwner(ctx, l.db, receiptNumber)
	if err != nil || !found {
		return ErrDuplicateReceipt
	}
	return ownerError(owner, userID)
}

func (l *Ledger) logRejected(ctx context.Context, userID int64, receiptNumber string, err error) {
	outcome := "fail"
	level := slog.LevelError
	switch {
	case errors.Is(err, ErrDuplicateReceipt):
		outcome, level = "duplicate", slog.LevelInfo
	case errors.Is(err, ErrUnknownUser), errors.Is(err, ErrInvalidReceipt):
		outcome, level = "rejected", slog.LevelWarn
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		outcome, level = "cancelled", slog.LevelWarn
	}
	logger.SVCLedger.LogAttrs(ctx, level, "ticket issuance refused",
		slog.String("event", "ledger.issue"),
		slog.Int64("user_id", userID),
		slog.String("receipt", receiptNumber),
		slog.String("outcome", outcome),
		slog.String("err", err.Error()),
	)
}
