package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		kind  Kind
		retry bool
	}{
		{"nil", nil, KindNone, false},
		{"plain", errors.New("boom"), KindUnknown, false},
		{"dial", &net.OpError{Op: "dial", Err: errors.New("refused")}, KindDial, true},
		{"dns", &net.OpError{Op: "dial", Err: &net.DNSError{Name: "api.telegram.org"}}, KindDNS, true},
		{"url timeout", &url.Error{Op: "Post", URL: "https://api.telegram.org", Err: context.DeadlineExceeded}, KindTimeout, true},
		{"flood", fmt.Errorf("send: %w", tele.FloodError{RetryAfter: 3}), KindFlood, true},
		{"server", fmt.Errorf("send: %w", &tele.Error{Code: 502, Description: "Bad Gateway"}), KindServer, true},
		{"client", &tele.Error{Code: 400, Description: "Bad Request: chat not found"}, KindClient, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			k := Classify(tc.err)
			if k != tc.kind {
				t.Fatalf("Classify(%v) = %q, want %q", tc.err, k, tc.kind)
			}
			if ShouldRetry(tc.err) != tc.retry {
				t.Fatalf("ShouldRetry(%v) = %v", tc.err, !tc.retry)
			}
		})
	}
}
