// Package sender runs outbound Bot API calls on a small worker pool with
// retries, keeping per-chat ordering.
package sender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/ticketbot/core/logger"
	"github.com/m3rciful/ticketbot/core/telegram/netutil"

	tele "gopkg.in/telebot.v4"
)

var (
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull means the chat's shard stayed saturated for the whole
	// enqueue wait. The job was not scheduled.
	ErrQueueFull = errors.New("telegram sender: queue full")

	tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)
)

const component = "tg.sender"

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	// QueueSize is the capacity of each worker's queue, not of the pool.
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single job.
	MaxDuration time.Duration
	// EnqueueTimeout bounds how long Enqueue waits for room in a full queue.
	EnqueueTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 64
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	o.MaxRetries = max(o.MaxRetries, 0)
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 12 * time.Second
	}
	if o.EnqueueTimeout <= 0 {
		o.EnqueueTimeout = 5 * time.Second
	}
	return o
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

func (j job) attrs() []slog.Attr {
	attrs := []slog.Attr{slog.String("action", j.action), slog.String("endpoint", j.endpoint)}
	return append(attrs, logger.MetaFrom(j.ctx).Attrs()...)
}

// Dispatcher executes outbound Telegram calls asynchronously with retries.
// Jobs of one chat always land on the same worker, so a user sees replies
// in the order the handler produced them.
type Dispatcher struct {
	opts   Options
	shards []chan job
	closed atomic.Bool
	mu     sync.RWMutex // guards shard sends against Close
	wg     sync.WaitGroup
	errs   atomic.Uint64
	sleep  func(context.Context, time.Duration) error
}

// NewDispatcher starts opts.Workers workers; zero options get defaults.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{
		opts:   opts,
		shards: make([]chan job, opts.Workers),
		sleep:  sleepCtx,
	}
	d.wg.Add(opts.Workers)
	for i := range d.shards {
		d.shards[i] = make(chan job, opts.QueueSize)
		go d.worker(d.shards[i])
	}
	return d
}

// Enqueue schedules run on the worker owning the chat in ctx. run is called
// again on retryable failures, so it must be safe to repeat.
//
// When the chat's queue is full Enqueue waits for room until ctx ends or
// EnqueueTimeout passes, then returns ErrQueueFull. Sending the job some
// other way at that point would overtake the jobs already queued.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed.Load() {
		return ErrQueueClosed
	}
	j := job{ctx: ctx, action: action, endpoint: endpoint, run: run}
	shard := d.shardFor(ctx)
	select {
	case shard <- j:
		return nil
	default:
	}

	t := time.NewTimer(d.opts.EnqueueTimeout)
	defer t.Stop()
	select {
	case shard <- j:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrQueueFull, ctx.Err())
	case <-t.C:
		return ErrQueueFull
	}
}

func (d *Dispatcher) shardFor(ctx context.Context) chan job {
	m := logger.MetaFrom(ctx)
	key := m.ChatID
	if key == 0 {
		key = m.UserID
	}
	if key < 0 {
		key = -key
	}
	return d.shards[key%int64(len(d.shards))]
}

// ErrorCount returns the number of jobs that failed for good.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.errs.Load()
}

// Close rejects new jobs, drains queued ones and waits for the workers.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed.Swap(true) {
		d.mu.Unlock()
		return
	}
	for _, ch := range d.shards {
		close(ch)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) worker(jobs <-chan job) {
	defer d.wg.Done()
	for j := range jobs {
		d.deliver(j)
	}
}

func (d *Dispatcher) deliver(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, d.opts.MaxDuration)
	defer cancel()
	start := time.Now()
	logger.Debug(j.ctx, component, "send.start", j.attrs()...)

	var err error
	attempt := 1
	for ; ; attempt++ {
		if err = j.run(); err == nil || !netutil.ShouldRetry(err) || attempt > d.opts.MaxRetries {
			break
		}
		delay := d.backoff(err, attempt)
		logger.Debug(j.ctx, component, "send.retry.backoff",
			append(j.attrs(), slog.Int("attempt", attempt), slog.Duration("delay", delay))...)
		if waitErr := d.sleep(ctx, delay); waitErr != nil {
			err = errors.Join(err, waitErr)
			break
		}
	}

	attrs := append(j.attrs(), slog.Int("attempts", attempt), slog.Duration("elapsed", logger.Took(start)))
	if err == nil {
		level := slog.LevelDebug
		if attempt > 1 {
			level = slog.LevelInfo
		}
		logger.LogEvent(j.ctx, logger.Component(component), level, "send.success", attrs...)
		return
	}
	d.errs.Add(1)
	logger.Error(j.ctx, component, "send.fail", append(attrs,
		slog.String("err", redactToken(err)),
		slog.String("err_kind", string(netutil.Classify(err))),
	)...)
}

// backoff grows linearly with attempt. Flood control replies dictate their
// own wait.
func (d *Dispatcher) backoff(err error, attempt int) time.Duration {
	var flood tele.FloodError
	if errors.As(err, &flood) && flood.RetryAfter > 0 {
		return time.Duration(flood.RetryAfter) * time.Second
	}
	return d.opts.RetryBackoff * time.Duration(attempt)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// redactToken hides bot tokens that the HTTP client embeds in request URLs.
func redactToken(err error) string {
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}
