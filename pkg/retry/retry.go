package retry

import (
	"context"
	"strings"
	"time"
)

// Config controls how Do retries a failing operation.
type Config struct {
	// MaxAttempts is the total number of invocations, including the first.
	MaxAttempts int
	// Backoff holds the sleep before each retry. Attempts past the end of
	// the slice reuse the last element.
	Backoff []time.Duration
	// JobName tags the operation for log correlation by callers.
	JobName string
}

var transientTokens = []string{
	"timeout",
	"etimedout",
	"econnreset",
	"network",
	"fetch failed",
	"500",
	"502",
	"503",
	"504",
}

var permanentTokens = []string{
	"401",
	"403",
	"validation",
	"auth",
}

// IsTransient reports whether an error looks like a retryable infrastructure
// failure. Anything ambiguous is treated as permanent so a broken config or
// bad credential never spins in a retry loop.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, token := range permanentTokens {
		if strings.Contains(msg, token) {
			return false
		}
	}
	for _, token := range transientTokens {
		if strings.Contains(msg, token) {
			return true
		}
	}
	return false
}

// Do runs op, retrying transient failures with the configured backoff.
// Permanent failures return immediately. After MaxAttempts transient
// failures the last error is returned. The backoff sleep is the only
// suspension point and honors context cancellation.
func Do(ctx context.Context, cfg Config, op func(ctx context.Context) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) {
			return lastErr
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		wait := backoffFor(cfg.Backoff, attempt)
		if wait <= 0 {
			continue
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

func backoffFor(seq []time.Duration, attempt int) time.Duration {
	if len(seq) == 0 {
		return 0
	}
	if attempt >= len(seq) {
		return seq[len(seq)-1]
	}
	return seq[attempt]
}
