package sender

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestDispatcherRunsJobs(t *testing.T) {
	d := NewDispatcher(Options{QueueSize: 8, Workers: 2})
	defer d.Close()

	var ran atomic.Int64
	done := make(chan struct{})
	err := d.Enqueue(context.Background(), "test", func() error {
		ran.Add(1)
		close(done)
		return nil
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not run")
	}
	if got := ran.Load(); got != 1 {
		t.Errorf("job ran %d times", got)
	}
}

func TestDispatcherFailedJobIsNotRetried(t *testing.T) {
	var failures atomic.Int64
	d := NewDispatcher(Options{
		QueueSize: 8,
		Workers:   1,
		OnFailure: func() { failures.Add(1) },
	})
	defer d.Close()

	var attempts atomic.Int64
	done := make(chan struct{})
	err := d.Enqueue(context.Background(), "test", func() error {
		attempts.Add(1)
		close(done)
		return errors.New("telegram said no")
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	<-done
	time.Sleep(20 * time.Millisecond)
	if got := attempts.Load(); got != 1 {
		t.Errorf("failed job ran %d times, want exactly 1", got)
	}
	if got := failures.Load(); got != 1 {
		t.Errorf("failure hook fired %d times", got)
	}
	if got := d.ErrorCount(); got != 1 {
		t.Errorf("ErrorCount = %d", got)
	}
}

func TestDispatcherQueueFull(t *testing.T) {
	block := make(chan struct{})
	d := NewDispatcher(Options{QueueSize: 1, Workers: 1})
	defer func() {
		close(block)
		d.Close()
	}()

	started := make(chan struct{})
	_ = d.Enqueue(context.Background(), "blocker", func() error {
		close(started)
		<-block
		return nil
	})
	<-started
	_ = d.Enqueue(context.Background(), "queued", func() error { return nil })

	err := d.Enqueue(context.Background(), "overflow", func() error { return nil })
	if !errors.Is(err, ErrQueueFull) {
		t.Errorf("Enqueue = %v, want ErrQueueFull", err)
	}
}

func TestDispatcherEnqueueAfterClose(t *testing.T) {
	d := NewDispatcher(Options{QueueSize: 1, Workers: 1})
	d.Close()

	err := d.Enqueue(context.Background(), "late", func() error { return nil })
	if !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Enqueue = %v, want ErrQueueClosed", err)
	}
}

func TestClassifyError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"deadline", context.DeadlineExceeded, "timeout"},
		{"plain", errors.New("nope"), "unknown"},
		{"api code suffix", errors.New("telegram: bad request (400)"), "http_4xx"},
		{"server code suffix", errors.New("telegram: internal (502)"), "http_5xx"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyError(tc.err); got != tc.want {
				t.Errorf("classifyError = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSanitizeErrorMessageRedactsToken(t *testing.T) {
	err := errors.New("Post https://api.telegram.org/bot123456:ABC-def_789/sendMessage: timeout")
	got := sanitizeErrorMessage(err)
	if got == err.Error() {
		t.Fatal("token not redacted")
	}
	if want := "bot<redacted>"; !strings.Contains(got, want) {
		t.Errorf("sanitized = %q, want substring %q", got, want)
	}
}
