// Package netutil classifies Bot API call failures.
package netutil

import (
	"context"
	"crypto/tls"
	"errors"
	"net"

	tele "gopkg.in/telebot.v4"
)

// Kind buckets a failed call. The values double as the "err_kind" log field.
type Kind string

const (
	KindNone    Kind = ""
	KindTimeout Kind = "timeout"
	KindFlood   Kind = "flood"
	KindServer  Kind = "http_5xx"
	KindClient  Kind = "http_4xx"
	KindDNS     Kind = "dns"
	KindDial    Kind = "dial"
	KindTLS     Kind = "tls"
	KindUnknown Kind = "unknown"
)

// Classify inspects the whole error chain. Bot API replies are checked
// before transport errors.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	var (
		flood  tele.FloodError
		apiErr *tele.Error
		dnsErr *net.DNSError
		opErr  *net.OpError
		netErr net.Error
		alert  tls.AlertError
	)
	switch {
	case errors.As(err, &flood):
		return KindFlood
	case errors.As(err, &apiErr) && apiErr.Code >= 500:
		return KindServer
	case errors.As(err, &apiErr):
		return KindClient
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.As(err, &dnsErr):
		if dnsErr.IsTimeout {
			return KindTimeout
		}
		return KindDNS
	case errors.As(err, &netErr) && netErr.Timeout():
		return KindTimeout
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return KindDial
	case errors.As(err, &alert):
		return KindTLS
	}
	return KindUnknown
}

// Retryable reports whether another attempt may succeed. Client errors
// such as "chat not found" are final.
func (k Kind) Retryable() bool {
	switch k {
	case KindTimeout, KindFlood, KindServer, KindDNS, KindDial:
		return true
	}
	return false
}

// ShouldRetry is Classify(err).Retryable().
func ShouldRetry(err error) bool {
	return Classify(err).Retryable()
}
