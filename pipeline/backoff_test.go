package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelayGrowth(t *testing.T) {
	base := 100 * time.Millisecond
	ceiling := time.Second

	tests := []struct {
		attempt int
		min     time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},  // capped
		{10, time.Second}, // stays capped
	}

	for _, tt := range tests {
		delay := backoffDelay(tt.attempt, base, ceiling)
		// Jitter adds at most 10% on top of the deterministic delay
		assert.GreaterOrEqual(t, delay, tt.min, "attempt %d", tt.attempt)
		assert.LessOrEqual(t, delay, tt.min+tt.min/10, "attempt %d", tt.attempt)
	}
}

func TestBackoffDelayClampsAttempt(t *testing.T) {
	base := 50 * time.Millisecond

	delay := backoffDelay(0, base, time.Second)
	assert.GreaterOrEqual(t, delay, base)
	assert.LessOrEqual(t, delay, base+base/10)
}
