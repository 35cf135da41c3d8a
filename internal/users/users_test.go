package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m3rciful/ticketbot/core/telegram/format"
	"github.com/m3rciful/ticketbot/internal/ledger"
	"github.com/m3rciful/ticketbot/internal/testdb"
)

func profile(surname, name, address, phone string) Profile {
	return Profile{
		Surname: format.Optional(surname),
		Name:    format.Optional(name),
		Address: format.Optional(address),
		Phone:   format.Optional(phone),
	}
}

func TestCreateAndGet(t *testing.T) {
	repo := NewRepository(testdb.New(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, 10, profile(" Ivanov ", "Ivan", "City X, St 1", "8 700 000 00 00"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := repo.Get(ctx, 10)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if format.OrDefault(got.Surname, "") != "Ivanov" || format.OrDefault(got.Phone, "") != "8 700 000 00 00" {
		t.Fatalf("unexpected user %+v", got)
	}
	if got.TicketTotal != 0 {
		t.Fatalf("ticket total = %d", got.TicketTotal)
	}
	if got.FullName() != "Ivanov Ivan" || created.FullName() != "Ivanov Ivan" {
		t.Fatalf("full name = %q", got.FullName())
	}
}

func TestCreateDuplicate(t *testing.T) {
	repo := NewRepository(testdb.New(t))
	ctx := context.Background()

	if _, err := repo.Create(ctx, 10, profile("A", "B", "C", "D")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(ctx, 10, profile("X", "Y", "Z", "W")); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	got, _ := repo.Get(ctx, 10)
	if format.OrDefault(got.Surname, "") != "A" {
		t.Fatalf("first record overwritten: %+v", got)
	}
}

func TestCreateSkippedFieldsAreNull(t *testing.T) {
	repo := NewRepository(testdb.New(t))
	ctx := context.Background()

	if _, err := repo.Create(ctx, 11, Profile{Surname: format.Optional("Petrov"), Phone: format.Optional("  ")}); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := repo.Get(ctx, 11)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != nil || got.Address != nil || got.Phone != nil {
		t.Fatalf("expected nil fields, got %+v", got)
	}
	if got.FullName() != "Petrov" {
		t.Fatalf("full name = %q", got.FullName())
	}
}

func TestGetMissing(t *testing.T) {
	repo := NewRepository(testdb.New(t))
	if _, err := repo.Get(context.Background(), 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	ok, err := repo.Exists(context.Background(), 99)
	if err != nil || ok {
		t.Fatalf("exists = %v, %v", ok, err)
	}
}

func TestTicketsAndDelete(t *testing.T) {
	db := testdb.New(t)
	repo := NewRepository(db)
	ctx := context.Background()
	l, err := ledger.New(db, ledger.DefaultTicketPrice, ledger.WithClock(func() time.Time {
		return time.Date(2024, 3, 12, 14, 25, 0, 0, time.UTC)
	}))
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}

	for _, id := range []int64{1, 2} {
		if _, err := repo.Create(ctx, id, profile("S", "N", "A", "P")); err != nil {
			t.Fatalf("create %d: %v", id, err)
		}
	}
	if _, err := l.Issue(ctx, 1, 15800, "QR1000000001"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := l.Issue(ctx, 2, 7900, "QR1000000002"); err != nil {
		t.Fatalf("issue: %v", err)
	}

	tickets, err := repo.Tickets(ctx, 1)
	if err != nil || len(tickets) != 2 {
		t.Fatalf("tickets = %v, %v", tickets, err)
	}
	if tickets[0].ReceiptNumber != "QR1000000001" || tickets[0].TicketID >= tickets[1].TicketID {
		t.Fatalf("unexpected tickets %+v", tickets)
	}

	all, err := repo.AllTickets(ctx)
	if err != nil {
		t.Fatalf("all tickets: %v", err)
	}
	if len(all[1]) != 2 || len(all[2]) != 1 {
		t.Fatalf("grouped tickets = %v", all)
	}

	if err := repo.Delete(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
	if tickets, _ := repo.Tickets(ctx, 1); len(tickets) != 0 {
		t.Fatalf("tickets survived delete: %v", tickets)
	}
	list, err := repo.List(ctx)
	if err != nil || len(list) != 1 || list[0].UserID != 2 {
		t.Fatalf("list = %v, %v", list, err)
	}

	// The receipt stays spent after its owner is removed.
	if _, err := repo.Create(ctx, 1, profile("S", "N", "A", "P")); err != nil {
		t.Fatalf("recreate: %v", err)
	}
	if _, err := l.Issue(ctx, 1, 15800, "QR1000000001"); !errors.Is(err, ledger.ErrDuplicateReceipt) {
		t.Fatalf("expected duplicate after delete, got %v", err)
	}
}
