package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/m3rciful/ticketbot/core/logger"
	tghelpers "github.com/m3rciful/ticketbot/core/telegram/helpers"
	"github.com/m3rciful/ticketbot/internal/intake"
	"github.com/m3rciful/ticketbot/internal/ledger"
	"github.com/m3rciful/ticketbot/internal/metrics"
	"github.com/m3rciful/ticketbot/internal/receipt"

	tele "gopkg.in/telebot.v4"
)

// errTooLarge is returned by downloaders when a file exceeds the limit.
var errTooLarge = errors.New("app: file too large")

// Downloader fetches the content of an uploaded document.
type Downloader interface {
	Download(c tele.Context, doc *tele.Document, limit int64) ([]byte, error)
}

type botDownloader struct{}

func (botDownloader) Download(c tele.Context, doc *tele.Document, limit int64) ([]byte, error) {
	rc, err := c.Bot().File(&doc.File)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", doc.FileID, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", doc.FileID, err)
	}
	if int64(len(data)) > limit {
		return nil, errTooLarge
	}
	return data, nil
}

// handleDocument turns an uploaded receipt into tickets.
func (a *App) handleDocument(c tele.Context) error {
	ctx, cancel := opContext(c)
	defer cancel()
	uid := tghelpers.SenderID(c)

	m := c.Message()
	if m == nil || m.Document == nil {
		return tghelpers.SendMD(c, msgReceiptNotPDF)
	}
	doc := m.Document
	in := intake.Document{Name: doc.FileName, MIME: doc.MIME}

	ok, err := a.users.Exists(ctx, uid)
	if err != nil {
		_ = tghelpers.SendText(c, msgTryLater)
		return err
	}
	if !ok {
		return tghelpers.SendText(c, msgNotRegistered)
	}

	if in.IsPDF() {
		limit := a.cfg.Raffle.MaxReceiptBytes
		if size := int64(doc.FileSize); size > limit {
			return a.rejectTooLarge(c, uid, size)
		}
		in.Data, err = a.download.Download(c, doc, limit)
		switch {
		case errors.Is(err, errTooLarge):
			return a.rejectTooLarge(c, uid, int64(doc.FileSize))
		case err != nil:
			_ = tghelpers.SendMD(c, msgReceiptFailed)
			return err
		}
	}

	res, err := a.intake.Submit(ctx, uid, in)
	admin := a.isAdmin(ctx, uid)
	if sendErr := tghelpers.SendMD(c, a.receiptReply(res, err)); sendErr != nil {
		return sendErr
	}
	if err := a.sendBackToMenu(c, admin); err != nil {
		return err
	}
	if isFailure(err) {
		return err
	}
	return nil
}

func (a *App) receiptReply(res intake.Result, err error) string {
	switch {
	case err == nil && res.Issuance.Tickets > 0:
		return msgTicketsIssued(res.Issuance.Tickets)
	case err == nil:
		var amount int64
		if res.Fields.Amount != nil {
			amount = *res.Fields.Amount
		}
		return msgBelowPrice(amount, a.ledger.Price(), a.cfg.Raffle.Currency)
	case errors.Is(err, ledger.ErrReceiptTaken):
		return msgReceiptTaken
	case errors.Is(err, ledger.ErrDuplicateReceipt):
		return msgReceiptDuplicate
	case errors.Is(err, intake.ErrNotPDF):
		return msgReceiptNotPDF
	case errors.Is(err, ledger.ErrTooManyTickets):
		return msgTooManyTickets(a.ledger.MaxTickets())
	case errors.Is(err, receipt.ErrFormat), errors.Is(err, intake.ErrParseIncomplete), errors.Is(err, ledger.ErrInvalidReceipt):
		return msgReceiptBadData
	case errors.Is(err, intake.ErrNotRegistered), errors.Is(err, ledger.ErrUnknownUser):
		return msgNotRegistered
	}
	return msgReceiptFailed
}

// isFailure separates infrastructure failures, which propagate to the router,
// from rejected receipts that are fully answered in chat.
func isFailure(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, ledger.ErrDuplicateReceipt),
		errors.Is(err, intake.ErrNotPDF),
		errors.Is(err, receipt.ErrFormat),
		errors.Is(err, intake.ErrParseIncomplete),
		errors.Is(err, ledger.ErrInvalidReceipt),
		errors.Is(err, intake.ErrNotRegistered),
		errors.Is(err, ledger.ErrUnknownUser):
		return false
	}
	return true
}

func (a *App) rejectTooLarge(c tele.Context, uid, size int64) error {
	ctx := tghelpers.BuildContext(c)
	metrics.ObserveReceipt(metrics.OutcomeRejected, 0)
	logger.SVCIntake.InfoContext(ctx, "receipt too large",
		slog.String("event", "receipt.submit"),
		slog.String("outcome", "rejected"),
		slog.Int64("user_id", uid),
		slog.Int64("size", size),
		slog.Int64("limit", a.cfg.Raffle.MaxReceiptBytes),
	)
	return tghelpers.SendText(c, msgReceiptTooLarge)
}
