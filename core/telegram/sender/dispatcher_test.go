package sender

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m3rciful/ticketbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

func TestDispatcherKeepsPerChatOrder(t *testing.T) {
	d := NewDispatcher(Options{Workers: 4, QueueSize: 64, RetryBackoff: time.Millisecond})
	ctx := logger.WithUpdateMeta(context.Background(), 1, 42, 42)

	var (
		mu  sync.Mutex
		got []int
	)
	for i := 0; i < 20; i++ {
		i := i
		if err := d.Enqueue(ctx, "send.text", "sendMessage", func() error {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		}); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	d.Close()

	if len(got) != 20 {
		t.Fatalf("ran %d jobs, want 20", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("order broken at %d: %v", i, got)
		}
	}
}

func TestDispatcherWaitsForRoomInsteadOfReordering(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	ctx := logger.WithUpdateMeta(context.Background(), 1, 42, 42)

	var got []int
	for i := 0; i < 10; i++ {
		i := i
		if err := d.Enqueue(ctx, "send.text", "sendMessage", func() error {
			time.Sleep(time.Millisecond)
			got = append(got, i)
			return nil
		}); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	d.Close()

	if len(got) != 10 {
		t.Fatalf("ran %d jobs, want 10", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("order broken at %d: %v", i, got)
		}
	}
}

func TestDispatcherReportsFullQueueAfterTimeout(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1, EnqueueTimeout: 20 * time.Millisecond})
	gate := make(chan struct{})
	defer d.Close()
	defer close(gate)

	wait := func() error { <-gate; return nil }
	for i := 0; i < 2; i++ {
		if err := d.Enqueue(context.Background(), "send.text", "sendMessage", wait); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	if err := d.Enqueue(context.Background(), "send.text", "sendMessage", wait); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := d.Enqueue(ctx, "send.text", "sendMessage", wait)
	if !errors.Is(err, ErrQueueFull) || !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled enqueue = %v", err)
	}
}

func TestDispatcherCountsFailuresAndRejectsAfterClose(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 4, MaxRetries: 0})
	done := make(chan struct{})
	if err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		defer close(done)
		return errors.New("bad request (400)")
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	<-done
	d.Close()
	if d.ErrorCount() != 1 {
		t.Fatalf("error count = %d", d.ErrorCount())
	}
	if err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error { return nil }); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}

func TestDispatcherRetriesTransientFailures(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Second})
	var delays []time.Duration
	d.sleep = func(_ context.Context, delay time.Duration) error {
		delays = append(delays, delay)
		return nil
	}
	calls := 0
	done := make(chan struct{})
	err := d.Enqueue(context.Background(), "send.document", "sendDocument", func() error {
		calls++
		switch calls {
		case 1:
			return &tele.Error{Code: 502, Description: "Bad Gateway"}
		case 2:
			return tele.FloodError{RetryAfter: 7}
		}
		close(done)
		return nil
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	<-done
	d.Close()
	if calls != 3 || d.ErrorCount() != 0 {
		t.Fatalf("calls=%d errors=%d", calls, d.ErrorCount())
	}
	if len(delays) != 2 || delays[0] != time.Second || delays[1] != 7*time.Second {
		t.Fatalf("delays = %v", delays)
	}
}

func TestDispatcherDoesNotRetryClientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 5})
	d.sleep = func(context.Context, time.Duration) error { t.Fatal("unexpected backoff"); return nil }
	calls := 0
	_ = d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		calls++
		return &tele.Error{Code: 400, Description: "Bad Request: chat not found"}
	})
	d.Close()
	if calls != 1 || d.ErrorCount() != 1 {
		t.Fatalf("calls=%d errors=%d", calls, d.ErrorCount())
	}
}

func TestBackoffAndRedaction(t *testing.T) {
	d := &Dispatcher{opts: Options{}.withDefaults()}
	if got := d.backoff(tele.FloodError{RetryAfter: 7}, 1); got != 7*time.Second {
		t.Fatalf("flood backoff = %s", got)
	}
	if got := d.backoff(errors.New("boom"), 3); got != 6*time.Second {
		t.Fatalf("linear backoff = %s", got)
	}
	msg := redactToken(errors.New(`Post "https://api.telegram.org/bot123456:AA-bb_cc/sendMessage": EOF`))
	if strings.Contains(msg, "123456:AA") || !strings.Contains(msg, "bot<redacted>") {
		t.Fatalf("token not redacted: %s", msg)
	}
}
