package logger

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

type failingSink struct{}

func (failingSink) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestAsyncWriterFlushSeesEarlierWrites(t *testing.T) {
	buf := &bytes.Buffer{}
	w := newAsyncWriter([]io.Writer{buf}, 16)
	for i := 0; i < 100; i++ {
		if err := w.Write([]byte("line\n")); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := strings.Count(buf.String(), "line\n"); got != 100 {
		t.Fatalf("flushed %d lines, want 100", got)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestAsyncWriterKeepsHealthySinks(t *testing.T) {
	buf := &bytes.Buffer{}
	w := newAsyncWriter([]io.Writer{failingSink{}, buf}, 1)
	_ = w.Write([]byte("receipt processed\n"))
	if err := w.Close(); err == nil {
		t.Fatal("expected sink error")
	}
	if !strings.Contains(buf.String(), "receipt processed") {
		t.Fatalf("healthy sink missed the record: %q", buf.String())
	}
	if err := w.Write([]byte("more\n")); err == nil {
		t.Fatal("writes after a sink failure must report it")
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(2, 5)
	allowed := 0
	for i := 0; i < 50; i++ {
		if s.Allow() {
			allowed++
		}
	}
	if allowed != 20 {
		t.Fatalf("allowed %d of 50, want 20", allowed)
	}

	s.Set(0, 0)
	if !s.Allow() {
		t.Fatal("disabled sampler must let events through")
	}
	s.Set(9, 3)
	for i := 0; i < 6; i++ {
		if !s.Allow() {
			t.Fatal("num above den must be capped to always allow")
		}
	}
}

func TestParseRatioSpec(t *testing.T) {
	cases := map[string][2]int{
		"":      {0, 0},
		"1/50":  {1, 50},
		" 3/7 ": {3, 7},
		"20":    {1, 20},
		"0":     {0, 0},
		"x/2":   {0, 0},
		"1/-2":  {0, 0},
	}
	for spec, want := range cases {
		num, den := parseRatioSpec(spec)
		if num != want[0] || den != want[1] {
			t.Errorf("parseRatioSpec(%q) = %d/%d, want %d/%d", spec, num, den, want[0], want[1])
		}
	}
}

func TestListAttr(t *testing.T) {
	files := []string{"000001_users.up.sql", "000002_receipts_tickets.up.sql", "000003_user_roles.up.sql"}
	if got := ListAttr("files", files, 2).Value.String(); got != "000001_users.up.sql, 000002_receipts_tickets.up.sql (+1 more)" {
		t.Fatalf("truncated = %q", got)
	}
	if got := ListAttr("files", files[:1], 2).Value.String(); got != "000001_users.up.sql" {
		t.Fatalf("short = %q", got)
	}
	if got := ListAttr("files", files, 0).Value.String(); got != "(3 items)" {
		t.Fatalf("no limit = %q", got)
	}
}
