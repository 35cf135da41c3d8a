package telegram

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func noSleep(context.Context, time.Duration) error { return nil }

func TestRetryTransportReplaysGatewayErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != "chat_id=7" {
			t.Errorf("attempt %d body = %q", calls.Load()+1, body)
		}
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	client := &http.Client{Transport: &retryTransport{base: http.DefaultTransport, retries: 3, backoff: time.Millisecond, sleep: noSleep}}
	resp, err := client.Post(srv.URL, "application/x-www-form-urlencoded", strings.NewReader("chat_id=7"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || calls.Load() != 3 {
		t.Fatalf("status=%d calls=%d", resp.StatusCode, calls.Load())
	}
}

func TestRetryTransportKeepsClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := &http.Client{Transport: &retryTransport{base: http.DefaultTransport, retries: 3, backoff: time.Millisecond, sleep: noSleep}}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest || calls.Load() != 1 {
		t.Fatalf("status=%d calls=%d", resp.StatusCode, calls.Load())
	}
}

func TestRetryTransportSendsStreamedBodyOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	pr, pw := io.Pipe()
	go func() {
		_, _ = io.WriteString(pw, "document bytes")
		pw.Close()
	}()
	req, _ := http.NewRequest(http.MethodPost, srv.URL, pr)
	client := &http.Client{Transport: &retryTransport{base: http.DefaultTransport, retries: 3, backoff: time.Millisecond, sleep: noSleep}}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	resp.Body.Close()
	if calls.Load() != 1 {
		t.Fatalf("streamed body replayed %d times", calls.Load())
	}
}

func TestHTTPOptionsDefaults(t *testing.T) {
	o := HTTPOptions{}.withDefaults()
	if o.Timeout != defaultHTTPTimeout || o.Retries != defaultHTTPRetries || o.Backoff != defaultHTTPBackoff {
		t.Fatalf("defaults = %+v", o)
	}
	if got := (HTTPOptions{Retries: -1}).withDefaults().Retries; got != 0 {
		t.Fatalf("negative retries = %d, want 0", got)
	}
}
