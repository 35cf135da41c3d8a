package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// queueDepth bounds the records buffered between handlers and sinks.
const queueDepth = 256

// writeOp is either a record to write or a flush barrier. Barriers travel
// through the same queue as records so Flush observes every earlier write.
type writeOp struct {
	data []byte
	ack  chan error
}

// asyncWriter fans log records out to sinks from a single goroutine.
// Sinks are flushed whenever the queue runs empty, so bursts are batched
// while a quiet logger still reaches disk immediately.
type asyncWriter struct {
	queue chan writeOp
	done  chan struct{}
	once  sync.Once
	sinks []*bufio.Writer

	mu  sync.Mutex
	err error
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	w := &asyncWriter{
		queue: make(chan writeOp, queueDepth),
		done:  make(chan struct{}),
	}
	for _, out := range writers {
		if out != nil {
			w.sinks = append(w.sinks, bufio.NewWriterSize(out, bufSize))
		}
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.done)
	for op := range w.queue {
		if op.ack != nil {
			op.ack <- w.flush()
			continue
		}
		w.record(w.write(op.data))
		if len(w.queue) == 0 {
			w.record(w.flush())
		}
	}
	w.record(w.flush())
}

// Write copies p and queues it. It blocks when the queue is full rather
// than dropping records.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.failure(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	w.queue <- writeOp{data: append([]byte(nil), p...)}
	return nil
}

// Flush returns once every record queued before the call is on the sinks.
func (w *asyncWriter) Flush() error {
	ack := make(chan error, 1)
	w.queue <- writeOp{ack: ack}
	if err := <-ack; err != nil {
		return err
	}
	return w.failure()
}

// Close drains the queue and reports the first write error seen.
func (w *asyncWriter) Close() error {
	w.once.Do(func() { close(w.queue) })
	<-w.done
	return w.failure()
}

// write hands p to every sink; a broken sink does not starve the others.
func (w *asyncWriter) write(p []byte) error {
	var errs []error
	for _, s := range w.sinks {
		if _, err := s.Write(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) flush() error {
	var errs []error
	for _, s := range w.sinks {
		if err := s.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) record(err error) {
	if err == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err == nil {
		w.err = err
	}
}

func (w *asyncWriter) failure() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}
