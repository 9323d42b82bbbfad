package pipeline

import (
	"math/rand/v2"
	"time"
)

// backoffDelay computes the wait before retrying a stage after its Nth
// attempt failed: base * 2^(attempt-1), capped, plus up to 10% jitter so
// retries of documents that failed together don't land together. The
// exponent counts completed attempts, so the first failure waits exactly
// base and each further failure doubles it.
func backoffDelay(attempt int, base, ceiling time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= ceiling {
			delay = ceiling
			break
		}
	}
	if delay > ceiling {
		delay = ceiling
	}

	jitter := time.Duration(rand.Int64N(int64(delay)/10 + 1))
	return delay + jitter
}
