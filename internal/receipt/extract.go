package receipt

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"
)

// DefaultMaxBytes bounds the document size accepted by Extractor.
const DefaultMaxBytes = 10 << 20

// Extractor turns PDF bytes into plain text, page by page.
type Extractor struct {
	MaxBytes int64
}

// NewExtractor returns an extractor accepting documents up to maxBytes
// (DefaultMaxBytes when maxBytes <= 0).
func NewExtractor(maxBytes int64) *Extractor {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Extractor{MaxBytes: maxBytes}
}

// Extract returns the text of every page in order, one page per line
// block, normalized to NFC. Malformed input yields a *FormatError.
func (e *Extractor) Extract(ctx context.Context, data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", &FormatError{Reason: "empty document"}
	}
	if e.MaxBytes > 0 && int64(len(data)) > e.MaxBytes {
		return "", &FormatError{Reason: fmt.Sprintf("document exceeds %d bytes", e.MaxBytes)}
	}
	// The PDF library panics on some corrupt object streams.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &FormatError{Reason: "corrupt document", Err: fmt.Errorf("%v", r)}
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &FormatError{Reason: "not a PDF", Err: err}
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", &FormatError{Reason: fmt.Sprintf("page %d", i), Err: err}
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(content)
	}
	return norm.NFC.String(b.String()), nil
}
