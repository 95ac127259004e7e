// ABOUTME: Tests for backoff calculation
// ABOUTME: Verifies growth, capping, and jitter bounds
package util

import (
	"testing"
	"time"
)

func TestCalculateBackoff(t *testing.T) {
	base := 2 * time.Second

	t.Run("zero attempt has no delay", func(t *testing.T) {
		if got := CalculateBackoff(base, 0); got != 0 {
			t.Errorf("CalculateBackoff(base, 0) = %v, want 0", got)
		}
	})

	t.Run("negative attempt has no delay", func(t *testing.T) {
		if got := CalculateBackoff(base, -1); got != 0 {
			t.Errorf("CalculateBackoff(base, -1) = %v, want 0", got)
		}
	})

	t.Run("delay stays within jitter bounds", func(t *testing.T) {
		for attempt := 1; attempt <= 4; attempt++ {
			expected := base * time.Duration(1<<uint(attempt))
			for i := 0; i < 20; i++ {
				got := CalculateBackoff(base, attempt)
				lo := expected - expected/4
				hi := expected + expected/4
				if got < lo || got > hi {
					t.Errorf("attempt %d: backoff %v outside [%v, %v]", attempt, got, lo, hi)
				}
			}
		}
	})

	t.Run("delay is capped", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			got := CalculateBackoff(base, 20)
			// 30s cap plus 25% jitter headroom.
			if got > 30*time.Second+(30*time.Second)/4 {
				t.Errorf("backoff %v exceeds cap with jitter", got)
			}
		}
	})

	t.Run("large attempt does not overflow", func(t *testing.T) {
		if got := CalculateBackoff(base, 500); got <= 0 {
			t.Errorf("backoff %v should remain positive", got)
		}
	})
}
