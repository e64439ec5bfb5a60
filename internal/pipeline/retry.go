package pipeline

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/sift/internal/llm"
)

// IsRetryable checks if an upstream error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *llm.RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * BackoffBase
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base)/2 + 1))
	return base + jitter
}

const MaxRetries = 3

// BackoffBase is the delay before the first retry.
var BackoffBase = time.Second
