package operator

import (
	"strings"
	"time"

	"github.com/dshills/etlgraph-go/pipeline"
)

// retryDelay returns the delay before retry number attempt in a
// single-record operator's retry loop, for FIXED or EXPONENTIAL backoff: FIXED delays
// linearly as delayMs*(attempt+1), EXPONENTIAL as delayMs*2^attempt.
// No jitter: the delay sequence is deterministic so retry timing is
// reproducible in tests.
func retryDelay(cfg pipeline.RetryPerRecord, attempt int) time.Duration {
	ms := cfg.RetryDelayMs
	switch cfg.Backoff {
	case "EXPONENTIAL":
		return time.Duration(ms*(1<<attempt)) * time.Millisecond
	default: // FIXED
		return time.Duration(ms*(attempt+1)) * time.Millisecond
	}
}

// isRetryable reports whether err's message matches one of
// cfg.RetryableErrors (substring match). An empty RetryableErrors list
// means every error is retryable.
func isRetryable(cfg pipeline.RetryPerRecord, err error) bool {
	if len(cfg.RetryableErrors) == 0 {
		return true
	}
	msg := err.Error()
	for _, sub := range cfg.RetryableErrors {
		if strings.Contains(msg, sub) {
			return true
		}
	}
	return false
}
