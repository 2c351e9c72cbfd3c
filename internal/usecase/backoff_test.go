package usecase

import (
	"testing"
	"time"
)

func TestBackoffDoublesToCeiling(t *testing.T) {
	b := newPollBackoff(2*time.Second, 30*time.Second)

	want := []time.Duration{
		2 * time.Second, 4 * time.Second, 8 * time.Second,
		16 * time.Second, 30 * time.Second, 30 * time.Second,
	}
	for i, w := range want {
		if got := b.Next(); got != w {
			t.Fatalf("interval %d = %s, want %s", i, got, w)
		}
	}
}

func TestBackoffReset(t *testing.T) {
	b := newPollBackoff(2*time.Second, 30*time.Second)
	for i := 0; i < 5; i++ {
		b.Next()
	}
	b.Reset()
	if got := b.Next(); got != 2*time.Second {
		t.Fatalf("after reset = %s, want 2s", got)
	}
}

func TestBackoffDefaults(t *testing.T) {
	b := newPollBackoff(0, 0)
	if got := b.Next(); got != 2*time.Second {
		t.Fatalf("default start = %s", got)
	}

	// Ceiling below start clamps to start.
	b = newPollBackoff(10*time.Second, time.Second)
	if got := b.Next(); got != 10*time.Second {
		t.Fatalf("clamped start = %s", got)
	}
	if got := b.Next(); got != 10*time.Second {
		t.Fatalf("clamped ceiling = %s", got)
	}
}
