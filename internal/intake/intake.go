// Package intake turns an uploaded receipt document into raffle tickets:
// document -> text -> fields -> ledger.
package intake

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/m3rciful/ticketbot/core/logger"
	"github.com/m3rciful/ticketbot/internal/ledger"
	"github.com/m3rciful/ticketbot/internal/metrics"
	"github.com/m3rciful/ticketbot/internal/receipt"
)

// PDFMime is the only document type accepted.
const PDFMime = "application/pdf"

var (
	// ErrNotPDF is returned for documents that are not PDF files.
	ErrNotPDF = errors.New("intake: document is not a PDF")
	// ErrParseIncomplete is returned when the amount or receipt number is missing.
	ErrParseIncomplete = errors.New("intake: receipt fields missing")
	// ErrNotRegistered is returned for senders without a user record.
	ErrNotRegistered = errors.New("intake: sender is not registered")
)

// Document is an uploaded file.
type Document struct {
	Name string
	MIME string
	Data []byte
}

// IsPDF reports whether the declared type or the file name says PDF.
func (d Document) IsPDF() bool {
	if strings.EqualFold(strings.TrimSpace(d.MIME), PDFMime) {
		return true
	}
	return strings.EqualFold(path.Ext(d.Name), ".pdf")
}

// Result describes a submission. SubmissionID and Digest (hex BLAKE3 of the
// upload) are always set; Fields is set once the text was parsed; Issuance
// only on success.
type Result struct {
	SubmissionID string
	Digest       string
	Fields       receipt.Fields
	Issuance     ledger.Issuance
}

// Extractor turns document bytes into text.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// Parser finds receipt fields in text.
type Parser interface {
	Parse(text string) receipt.Fields
}

// Issuer grants tickets for a receipt.
type Issuer interface {
	Issue(ctx context.Context, userID, amount int64, receiptNumber string) (ledger.Issuance, error)
}

// Registry reports whether a sender may submit receipts.
type Registry interface {
	Exists(ctx context.Context, userID int64) (bool, error)
}

// Service runs submissions. It holds no per-user state, so concurrent
// submissions only meet inside the ledger.
type Service struct {
	extractor Extractor
	parser    Parser
	issuer    Issuer
	users     Registry
	newID     func() string
}

// New wires a Service.
func New(extractor Extractor, parser Parser, issuer Issuer, users Registry) *Service {
	return &Service{
		extractor: extractor,
		parser:    parser,
		issuer:    issuer,
		users:     users,
		newID:     uuid.NewString,
	}
}

// Submit processes one receipt document for userID.
func (s *Service) Submit(ctx context.Context, userID int64, doc Document) (Result, error) {
	res := Result{SubmissionID: s.newID(), Digest: Digest(doc.Data)}
	start := time.Now()

	ctx, span := otel.Tracer("intake").Start(ctx, "receipt.submit", trace.WithAttributes(
		attribute.String("submission.id", res.SubmissionID),
		attribute.Int64("user.id", userID),
		attribute.Int("document.size", len(doc.Data)),
	))
	defer span.End()

	err := s.submit(ctx, userID, doc, &res)
	outcome := classify(res, err)
	metrics.ObserveReceipt(outcome, res.Issuance.Tickets)
	span.SetAttributes(attribute.String("receipt.outcome", outcome))
	if outcome == metrics.OutcomeError {
		span.RecordError(err)
		span.SetStatus(codes.Error, "receipt submission failed")
	}

	attrs := []slog.Attr{
		slog.String("event", "receipt.submit"),
		slog.String("submission_id", res.SubmissionID),
		slog.Int64("user_id", userID),
		slog.String("mime", doc.MIME),
		slog.Int("size", len(doc.Data)),
		slog.String("file_digest", res.Digest),
		slog.String("result", outcome),
		slog.Duration("duration", logger.Took(start)),
	}
	if res.Fields.Number != "" {
		attrs = append(attrs, slog.String("receipt", res.Fields.Number))
	}
	if res.Fields.Amount != nil {
		attrs = append(attrs, slog.Int64("amount", *res.Fields.Amount))
	}
	level := slog.LevelInfo
	switch {
	case err == nil:
		attrs = append(attrs, slog.Int("tickets", res.Issuance.Tickets), slog.String("outcome", "ok"))
	case outcome == metrics.OutcomeError:
		level = slog.LevelError
		attrs = append(attrs, slog.String("outcome", "fail"), slog.String("err", err.Error()))
	default:
		attrs = append(attrs, slog.String("outcome", "rejected"), slog.String("err", err.Error()))
	}
	logger.SVCIntake.LogAttrs(ctx, level, "receipt processed", attrs...)
	return res, err
}

func (s *Service) submit(ctx context.Context, userID int64, doc Document, res *Result) error {
	if s.users != nil {
		ok, err := s.users.Exists(ctx, userID)
		if err != nil {
			return fmt.Errorf("intake: lookup user: %w", err)
		}
		if !ok {
			return ErrNotRegistered
		}
	}
	if !doc.IsPDF() {
		return ErrNotPDF
	}

	text, err := s.extractor.Extract(ctx, doc.Data)
	if err != nil {
		return err
	}
	res.Fields = s.parser.Parse(text)
	if !res.Fields.Complete() {
		return fmt.Errorf("%w: %s", ErrParseIncomplete, strings.Join(res.Fields.Missing(), ", "))
	}

	iss, err := s.issuer.Issue(ctx, userID, *res.Fields.Amount, res.Fields.Number)
	if err != nil {
		return err
	}
	res.Issuance = iss
	return nil
}

func classify(res Result, err error) string {
	switch {
	case err == nil && res.Issuance.Tickets > 0:
		return metrics.OutcomeIssued
	case err == nil:
		return metrics.OutcomeZero
	case errors.Is(err, ErrNotPDF):
		return metrics.OutcomeNotPDF
	case errors.Is(err, receipt.ErrFormat):
		return metrics.OutcomeUnreadable
	case errors.Is(err, ErrParseIncomplete):
		return metrics.OutcomeIncomplete
	case errors.Is(err, ledger.ErrReceiptTaken):
		return metrics.OutcomeTaken
	case errors.Is(err, ledger.ErrDuplicateReceipt):
		return metrics.OutcomeDuplicate
	case errors.Is(err, ErrNotRegistered), errors.Is(err, ledger.ErrUnknownUser), errors.Is(err, ledger.ErrInvalidReceipt):
		return metrics.OutcomeRejected
	}
	return metrics.OutcomeError
}

// Digest returns the hex BLAKE3-256 hash of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
