package debounce

import (
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu     sync.Mutex
	values []string
}

func (r *recorder) record(v string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.values...)
}

func TestValueSettlesAfterQuietPeriod(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))
	rec := &recorder{}
	v := New("", 500*time.Millisecond, clock, rec.record)

	v.Set("a")
	clock.Advance(200 * time.Millisecond)
	v.Set("al")
	clock.Advance(200 * time.Millisecond)
	v.Set("alp")

	if got := v.Settled(); got != "" {
		t.Fatalf("expected debounced value to stay empty, got %q", got)
	}
	if got := v.Raw(); got != "alp" {
		t.Fatalf("expected raw alp, got %q", got)
	}

	clock.Advance(499 * time.Millisecond)
	if got := v.Settled(); got != "" {
		t.Fatalf("settled too early: %q", got)
	}

	clock.Advance(time.Millisecond)
	if got := v.Settled(); got != "alp" {
		t.Fatalf("expected alp, got %q", got)
	}
	if got := rec.snapshot(); len(got) != 1 || got[0] != "alp" {
		t.Errorf("expected a single notification, got %v", got)
	}
	if clock.Pending() != 0 {
		t.Errorf("expected no pending timers, got %d", clock.Pending())
	}
}

func TestValueSkipsNotificationWhenUnchanged(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))
	rec := &recorder{}
	v := New("alpha", 300*time.Millisecond, clock, rec.record)

	v.Set("alp")
	clock.Advance(100 * time.Millisecond)
	v.Set("alpha")
	clock.Advance(300 * time.Millisecond)

	if got := rec.snapshot(); len(got) != 0 {
		t.Errorf("expected no notification, got %v", got)
	}
}

func TestFlushAndReset(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))
	rec := &recorder{}
	v := New("", time.Second, clock, rec.record)

	v.Set("x")
	v.Flush()
	if got := v.Settled(); got != "x" {
		t.Fatalf("expected flush to settle x, got %q", got)
	}
	clock.Advance(time.Second)
	if got := rec.snapshot(); len(got) != 1 {
		t.Fatalf("expected the cancelled timer not to fire again, got %v", got)
	}

	v.Set("y")
	v.Reset("")
	clock.Advance(time.Second)
	if v.Settled() != "" || v.Raw() != "" {
		t.Errorf("reset must clear both values, got raw=%q settled=%q", v.Raw(), v.Settled())
	}
	if got := rec.snapshot(); len(got) != 1 {
		t.Errorf("reset must not notify, got %v", got)
	}
}

func TestStopCancelsPendingUpdate(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))
	v := New(0, time.Second, clock, nil)
	v.Set(3)
	v.Stop()
	clock.Advance(2 * time.Second)
	if got := v.Settled(); got != 0 {
		t.Errorf("expected stopped value to stay 0, got %d", got)
	}
}
