package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

var errWriterClosed = errors.New("logger: writer closed")

// asyncWriter serialises encoded lines onto the configured outputs from one
// goroutine. Lines queued together are flushed as a single batch.
type asyncWriter struct {
	lines   chan []byte
	flushes chan chan error
	stopped chan struct{}
	out     *bufio.Writer

	gate   sync.RWMutex
	closed bool

	errMu sync.Mutex
	err   error
}

func newAsyncWriter(outputs []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	live := make([]io.Writer, 0, len(outputs))
	for _, o := range outputs {
		if o != nil {
			live = append(live, o)
		}
	}
	w := &asyncWriter{
		lines:   make(chan []byte, 256),
		flushes: make(chan chan error),
		stopped: make(chan struct{}),
		out:     bufio.NewWriterSize(io.MultiWriter(live...), bufSize),
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.stopped)
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				w.fail(w.out.Flush())
				return
			}
			w.fail(w.batch(line))
		case ack := <-w.flushes:
			ack <- w.out.Flush()
		}
	}
}

// batch writes line plus whatever else is already queued, then flushes once.
func (w *asyncWriter) batch(line []byte) error {
	if _, err := w.out.Write(line); err != nil {
		return err
	}
	for {
		select {
		case next, ok := <-w.lines:
			if !ok {
				return w.out.Flush()
			}
			if _, err := w.out.Write(next); err != nil {
				return err
			}
		default:
			return w.out.Flush()
		}
	}
}

// Write enqueues a copy of p. It blocks while the queue is full.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.lastErr(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	w.gate.RLock()
	defer w.gate.RUnlock()
	if w.closed {
		return errWriterClosed
	}
	w.lines <- append([]byte(nil), p...)
	return nil
}

// Flush returns once every line queued before the call is on the outputs.
func (w *asyncWriter) Flush() error {
	w.gate.RLock()
	if w.closed {
		w.gate.RUnlock()
		return w.lastErr()
	}
	ack := make(chan error, 1)
	w.flushes <- ack
	w.gate.RUnlock()
	if err := <-ack; err != nil {
		return err
	}
	return w.lastErr()
}

// Close drains the queue and stops the writer goroutine. It is idempotent.
func (w *asyncWriter) Close() error {
	w.gate.Lock()
	if !w.closed {
		w.closed = true
		close(w.lines)
	}
	w.gate.Unlock()
	<-w.stopped
	return w.lastErr()
}

func (w *asyncWriter) lastErr() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.err
}

func (w *asyncWriter) fail(err error) {
	if err == nil {
		return
	}
	w.errMu.Lock()
	defer w.errMu.Unlock()
	if w.err == nil {
		w.err = err
	}
}
