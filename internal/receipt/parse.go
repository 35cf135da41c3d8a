package receipt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultCurrency is the symbol printed after amounts on supported receipts.
const DefaultCurrency = "₸"

// DateLayout is the receipt timestamp format (DD.MM.YYYY HH:MM).
const DateLayout = "02.01.2006 15:04"

// Fields holds the values found in a receipt. Every field is optional.
type Fields struct {
	Amount *int64
	// Date is nil when the timestamp is missing or not a real calendar date;
	// DateRaw keeps the matched text either way.
	Date    *time.Time
	DateRaw string
	Payer   string
	Number  string
}

// Complete reports whether the fields required for ticket issuance are present.
func (f Fields) Complete() bool {
	return f.Amount != nil && f.Number != ""
}

// Missing lists the required fields that were not found.
func (f Fields) Missing() []string {
	var out []string
	if f.Amount == nil {
		out = append(out, "amount")
	}
	if f.Number == "" {
		out = append(out, "receipt_number")
	}
	return out
}

var (
	dateRe   = regexp.MustCompile(`(\d{2}\.\d{2}\.\d{4} \d{2}:\d{2})`)
	payerRe  = regexp.MustCompile(`([А-Яа-яЁё]+\s[А-Яа-яЁё]+\.)`)
	numberRe = regexp.MustCompile(`№\s*чека\s*([A-Z]{2}\d{10})`)

	groupSeparators = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "")
)

// Parser extracts Fields from receipt text by pattern matching.
type Parser struct {
	amountRe *regexp.Regexp
	loc      *time.Location
}

// NewParser builds a parser for amounts suffixed with currency. Dates are
// interpreted in loc (UTC when nil).
func NewParser(currency string, loc *time.Location) *Parser {
	if currency == "" {
		currency = DefaultCurrency
	}
	if loc == nil {
		loc = time.UTC
	}
	// Thousands may be grouped with regular, no-break or narrow no-break
	// spaces. A kopeck-style fraction is accepted and dropped.
	amount := fmt.Sprintf(`(\d{1,3}(?:[ \x{00A0}\x{202F}]\d{3})+|\d+)(?:[.,]\d{1,2})?[ \x{00A0}]?%s`, regexp.QuoteMeta(currency))
	return &Parser{amountRe: regexp.MustCompile(amount), loc: loc}
}

// Parse returns the first match of each field in text.
func (p *Parser) Parse(text string) Fields {
	var f Fields

	if m := p.amountRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseInt(groupSeparators.Replace(m[1]), 10, 64); err == nil {
			f.Amount = &v
		}
	}
	if m := dateRe.FindStringSubmatch(text); m != nil {
		f.DateRaw = m[1]
		if t, err := time.ParseInLocation(DateLayout, m[1], p.loc); err == nil {
			f.Date = &t
		}
	}
	if m := payerRe.FindStringSubmatch(text); m != nil {
		f.Payer = m[1]
	}
	if m := numberRe.FindStringSubmatch(text); m != nil {
		f.Number = m[1]
	}
	return f
}
