// Package export renders participants and their tickets as an XLSX workbook.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/m3rciful/ticketbot/core/logger"
	"github.com/m3rciful/ticketbot/internal/users"
)

const (
	// SheetName is the single worksheet of the report.
	SheetName = "Users and Tickets"
	// FileName is the attachment name used when sending the report.
	FileName = "user_tickets_data.xlsx"
	// MIME is the XLSX content type.
	MIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	dateLayout = "02.01.2006 15:04"
	noTickets  = "Нет билетов"
	noDate     = "N/A"
)

// Header is the first row of the sheet.
var Header = []any{"User ID", "Фамилия", "Имя", "Адрес", "Номер телефона", "Количество билетов", "ID билета", "Дата билета"}

// ErrNoUsers is returned by Exporter.Export when there is nothing to report.
var ErrNoUsers = errors.New("export: no users")

// Source provides the rows of the report.
type Source interface {
	List(ctx context.Context) ([]users.User, error)
	AllTickets(ctx context.Context) (map[int64][]users.Ticket, error)
}

// File is a rendered report.
type File struct {
	Name string
	MIME string
	Data []byte
	Rows int
}

// Exporter builds reports from a Source. Ticket dates are shown in loc.
type Exporter struct {
	src Source
	loc *time.Location
}

// New returns an exporter; loc defaults to UTC.
func New(src Source, loc *time.Location) *Exporter {
	if loc == nil {
		loc = time.UTC
	}
	return &Exporter{src: src, loc: loc}
}

// Export reads every user and ticket and renders the workbook.
func (e *Exporter) Export(ctx context.Context) (File, error) {
	start := time.Now()
	list, err := e.src.List(ctx)
	if err != nil {
		return File{}, err
	}
	if len(list) == 0 {
		return File{}, ErrNoUsers
	}
	tickets, err := e.src.AllTickets(ctx)
	if err != nil {
		return File{}, err
	}
	buf, rows, err := Report(list, tickets, e.loc)
	if err != nil {
		return File{}, err
	}
	logger.SVCExport.InfoContext(ctx, "report built",
		slog.String("event", "export.build"),
		slog.Int("rows", rows),
		slog.Int("size", buf.Len()),
		slog.Duration("duration", logger.Took(start)),
	)
	return File{Name: FileName, MIME: MIME, Data: buf.Bytes(), Rows: rows}, nil
}

// Report writes one row per ticket; users without tickets get a single
// placeholder row. It returns the workbook and the number of data rows.
func Report(list []users.User, tickets map[int64][]users.Ticket, loc *time.Location) (*bytes.Buffer, int, error) {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, 0, fmt.Errorf("export: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &Header); err != nil {
		return nil, 0, fmt.Errorf("export header: %w", err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(SheetName, "A1", "H1", style)
	}
	_ = f.SetColWidth(SheetName, "A", "H", 20)

	row := 1
	for _, u := range list {
		base := []any{u.UserID, deref(u.Surname), deref(u.Name), deref(u.Address), deref(u.Phone), u.TicketTotal}
		owned := tickets[u.UserID]
		if len(owned) == 0 {
			row++
			if err := setRow(f, row, append(base, noTickets, noDate)); err != nil {
				return nil, 0, err
			}
			continue
		}
		for _, t := range owned {
			row++
			values := append(append([]any{}, base...), t.TicketID, t.CreatedAt.In(loc).Format(dateLayout))
			if err := setRow(f, row, values); err != nil {
				return nil, 0, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("export write: %w", err)
	}
	return buf, row - 1, nil
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
		return fmt.Errorf("export row %d: %w", row, err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
