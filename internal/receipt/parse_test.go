package receipt

import (
	"testing"
	"time"
)

const kaspiReceipt = `ТОО "Магазин"
15 800 ₸
Дата и время 12.03.2024 14:25
Иван И.
№ чека QR1234567890
Спасибо за покупку`

func TestParseFullReceipt(t *testing.T) {
	f := NewParser("", nil).Parse(kaspiReceipt)

	if f.Amount == nil || *f.Amount != 15800 {
		t.Fatalf("amount = %v, want 15800", f.Amount)
	}
	want := time.Date(2024, 3, 12, 14, 25, 0, 0, time.UTC)
	if f.Date == nil || !f.Date.Equal(want) {
		t.Fatalf("date = %v, want %v", f.Date, want)
	}
	if f.DateRaw != "12.03.2024 14:25" {
		t.Fatalf("date raw = %q", f.DateRaw)
	}
	if f.Payer != "Иван И." {
		t.Fatalf("payer = %q", f.Payer)
	}
	if f.Number != "QR1234567890" {
		t.Fatalf("number = %q", f.Number)
	}
	if !f.Complete() || len(f.Missing()) != 0 {
		t.Fatalf("expected complete fields, missing %v", f.Missing())
	}
}

func TestParseAmountVariants(t *testing.T) {
	cases := []struct {
		name string
		text string
		want int64
	}{
		{"plain", "Итого 7900 ₸", 7900},
		{"no space before symbol", "Итого 7900₸", 7900},
		{"grouped", "Итого 1 015 800 ₸", 1015800},
		{"nbsp grouped", "Итого 15\u00a0800 ₸", 15800},
		{"narrow nbsp grouped", "Итого 15\u202f800\u00a0₸", 15800},
		{"fraction dropped", "Итого 15 800,50 ₸", 15800},
		{"first occurrence wins", "7 900 ₸ и 100 ₸", 7900},
		{"unrelated number before", "Позиций 2, сумма 3 000 ₸", 3000},
	}
	p := NewParser("₸", nil)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := p.Parse(tc.text)
			if f.Amount == nil || *f.Amount != tc.want {
				t.Fatalf("amount = %v, want %d", f.Amount, tc.want)
			}
		})
	}
}

func TestParseMissingFields(t *testing.T) {
	f := NewParser("", nil).Parse("Дата 01.02.2024 10:00 без суммы")
	if f.Amount != nil || f.Number != "" {
		t.Fatalf("unexpected fields: %+v", f)
	}
	if f.Complete() {
		t.Fatal("fields must be incomplete")
	}
	missing := f.Missing()
	if len(missing) != 2 || missing[0] != "amount" || missing[1] != "receipt_number" {
		t.Fatalf("missing = %v", missing)
	}
}

func TestParseInvalidCalendarDate(t *testing.T) {
	f := NewParser("", nil).Parse("32.13.2024 25:61")
	if f.Date != nil {
		t.Fatalf("expected nil date, got %v", f.Date)
	}
	if f.DateRaw != "32.13.2024 25:61" {
		t.Fatalf("date raw = %q", f.DateRaw)
	}
}

func TestParseUsesLocation(t *testing.T) {
	loc := time.FixedZone("ALMT", 5*60*60)
	f := NewParser("", loc).Parse("12.03.2024 14:25")
	if f.Date == nil {
		t.Fatal("date not parsed")
	}
	if got := f.Date.UTC().Hour(); got != 9 {
		t.Fatalf("utc hour = %d, want 9", got)
	}
}

func TestParseReceiptNumberFormat(t *testing.T) {
	p := NewParser("", nil)
	if f := p.Parse("№ чека qr1234567890"); f.Number != "" {
		t.Fatalf("lowercase prefix accepted: %q", f.Number)
	}
	if f := p.Parse("№ чека AB123"); f.Number != "" {
		t.Fatalf("short number accepted: %q", f.Number)
	}
	if f := p.Parse("№ чека AB12345678901"); f.Number != "AB1234567890" {
		t.Fatalf("number = %q", f.Number)
	}
}

func TestParseCustomCurrency(t *testing.T) {
	f := NewParser("$", nil).Parse("Total 42 $")
	if f.Amount == nil || *f.Amount != 42 {
		t.Fatalf("amount = %v", f.Amount)
	}
}
