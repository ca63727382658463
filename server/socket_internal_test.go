package server

import (
	"testing"
	"time"
)

func TestAcceptBackoff(t *testing.T) {
	t.Parallel()

	var (
		delay time.Duration
		got   []time.Duration
	)

	for range 10 {
		delay = acceptBackoff(delay)
		got = append(got, delay)
	}

	want := []time.Duration{
		5 * time.Millisecond,
		10 * time.Millisecond,
		20 * time.Millisecond,
		40 * time.Millisecond,
		80 * time.Millisecond,
		160 * time.Millisecond,
		320 * time.Millisecond,
		640 * time.Millisecond,
		time.Second,
		time.Second,
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected delay after %d failures: got %s, want %s", i+1, got[i], want[i])
		}
	}
}
