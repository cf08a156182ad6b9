package sender

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met")
}

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	defer d.Close()

	var calls atomic.Int32
	err := d.Enqueue(context.Background(), "relay.lead", "sendMessage", func() error {
		if calls.Add(1) < 3 {
			return &net.OpError{Op: "dial", Err: timeoutErr{}}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return d.Stats().Sent == 1 })
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
	if s := d.Stats(); s.Retried != 2 || s.Failed != 0 {
		t.Fatalf("stats = %+v", s)
	}
}

func TestDispatcherDoesNotRetryPermanentErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})
	defer d.Close()

	var calls atomic.Int32
	_ = d.Enqueue(context.Background(), "relay.reply", "sendMessage", func() error {
		calls.Add(1)
		return tele.ErrBlockedByUser
	})
	waitFor(t, func() bool { return d.ErrorCount() == 1 })
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestDispatcherQueueFullAndClosed(t *testing.T) {
	d := NewDispatcher(Options{QueueSize: 1, Workers: 1})

	block := make(chan struct{})
	started := make(chan struct{})
	_ = d.Enqueue(context.Background(), "a", "", func() error { close(started); <-block; return nil })
	<-started
	if err := d.Enqueue(context.Background(), "b", "", func() error { return nil }); err != nil {
		t.Fatalf("second job should be queued: %v", err)
	}
	if err := d.Enqueue(context.Background(), "c", "", func() error { return nil }); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("err = %v, want ErrQueueFull", err)
	}
	close(block)
	d.Close()

	if err := d.Enqueue(context.Background(), "d", "", func() error { return nil }); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("err = %v, want ErrQueueClosed", err)
	}
	if s := d.Stats(); s.Sent != 2 {
		t.Fatalf("sent = %d, want 2", s.Sent)
	}
	d.Close()
}

func TestRetryDelay(t *testing.T) {
	d := &Dispatcher{opts: Options{RetryBackoff: time.Second}}

	if delay, ok := d.retryDelay(tele.FloodError{RetryAfter: 3}, 1); !ok || delay != 3*time.Second {
		t.Fatalf("flood: %v %v", delay, ok)
	}
	if _, ok := d.retryDelay(tele.FloodError{RetryAfter: 600}, 1); ok {
		t.Fatal("long flood wait should not be retried")
	}
	if delay, ok := d.retryDelay(&net.OpError{Op: "dial", Err: errors.New("refused")}, 2); !ok || delay != 2*time.Second {
		t.Fatalf("dial: %v %v", delay, ok)
	}
	if _, ok := d.retryDelay(errors.New("telegram: bad request: chat not found (400)"), 1); ok {
		t.Fatal("4xx should not be retried")
	}
	if _, ok := d.retryDelay(errors.New("telegram: internal error (502)"), 1); !ok {
		t.Fatal("5xx should be retried")
	}
}

func TestClassifyError(t *testing.T) {
	cases := map[string]error{
		"timeout":  context.DeadlineExceeded,
		"blocked":  tele.ErrBlockedByUser,
		"flood":    tele.FloodError{RetryAfter: 1},
		"dial":     &net.OpError{Op: "dial", Err: errors.New("refused")},
		"http_4xx": errors.New("telegram: bad request (400)"),
		"unknown":  errors.New("weird"),
	}
	for want, err := range cases {
		if got := classifyError(err); got != want {
			t.Errorf("classifyError(%v) = %q, want %q", err, got, want)
		}
	}
}

func TestSanitizeErrorMessage(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123:ABC_def-9/sendMessage": EOF`)
	got := sanitizeErrorMessage(err)
	if got != `Post "https://api.telegram.org/bot<redacted>/sendMessage": EOF` {
		t.Fatalf("got %q", got)
	}
}
