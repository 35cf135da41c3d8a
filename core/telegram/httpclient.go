package telegram

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/ticketbot/core/telegram/netutil"
)

// HTTPOptions tunes the Bot API client. Zero values take the defaults below.
type HTTPOptions struct {
	// Timeout bounds a whole call, including receipt downloads.
	Timeout time.Duration
	Retries int
	Backoff time.Duration
}

const (
	defaultHTTPTimeout  = 30 * time.Second
	defaultHTTPRetries  = 3
	defaultHTTPBackoff  = 2 * time.Second
	dialTimeout         = 5 * time.Second
	keepAliveInterval   = 30 * time.Second
	idleConnTimeout     = 30 * time.Second
	tlsHandshakeTimeout = 5 * time.Second
)

func (o HTTPOptions) withDefaults() HTTPOptions {
	if o.Timeout <= 0 {
		o.Timeout = defaultHTTPTimeout
	}
	if o.Retries < 0 {
		o.Retries = 0
	} else if o.Retries == 0 {
		o.Retries = defaultHTTPRetries
	}
	if o.Backoff <= 0 {
		o.Backoff = defaultHTTPBackoff
	}
	return o
}

// BuildHTTPClient returns the client used for Bot API calls and file
// downloads. Transient network failures and gateway errors are retried;
// flood control is left to the sender dispatcher.
func BuildHTTPClient(opts HTTPOptions) *http.Client {
	opts = opts.withDefaults()
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: keepAliveInterval}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   tlsHandshakeTimeout,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: &retryTransport{base: base, retries: opts.Retries, backoff: opts.Backoff, sleep: sleepCtx},
	}
}

type retryTransport struct {
	base    http.RoundTripper
	retries int
	backoff time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		try := req
		if attempt > 0 {
			var err error
			if try, err = rewind(req); err != nil {
				return nil, err
			}
		}
		resp, err := t.base.RoundTrip(try)
		if attempt >= t.retries || !retryable(req, resp, err) {
			return resp, err
		}
		if resp != nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		if err := t.sleep(req.Context(), t.backoff*time.Duration(attempt+1)); err != nil {
			return nil, err
		}
	}
}

// retryable allows another attempt only when the body can be replayed.
// Multipart uploads streamed through a pipe are sent once.
func retryable(req *http.Request, resp *http.Response, err error) bool {
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		return false
	}
	if err != nil {
		return netutil.ShouldRetry(err)
	}
	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func rewind(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		clone.Body = body
	}
	return clone, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
