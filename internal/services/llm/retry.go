package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// retryPolicy retries rate limits, server errors, timeouts and empty replies
// with doubling delays.
type retryPolicy struct {
	attempts int
	base     time.Duration
	limit    time.Duration
	sleep    func(time.Duration)
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{attempts: 5, base: time.Second, limit: 10 * time.Second}
}

func (p retryPolicy) do(ctx context.Context, call func() error) error {
	attempts := max(1, p.attempts)
	var err error
	for attempt := 1; ; attempt++ {
		if err = call(); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		if attempt >= attempts {
			break
		}
		delay, ok := p.delay(err, attempt)
		if !ok {
			return err
		}
		if werr := p.wait(ctx, delay); werr != nil {
			return werr
		}
	}
	if attempts > 1 {
		return &retriesExhausted{attempts: attempts, err: err}
	}
	return err
}

// delay returns how long to wait before the next attempt, or false when err
// is not worth retrying.
func (p retryPolicy) delay(err error, attempt int) (time.Duration, bool) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}
	var status *statusError
	if errors.As(err, &status) {
		retryable := status.code == http.StatusRequestTimeout ||
			status.code == http.StatusTooManyRequests ||
			status.code >= http.StatusInternalServerError
		if !retryable {
			return 0, false
		}
		if status.retryAfter > 0 {
			return p.cap(status.retryAfter), true
		}
		return p.backoff(attempt), true
	}
	var empty *emptyContentError
	if errors.As(err, &empty) {
		return p.backoff(attempt), true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return p.backoff(attempt), true
	}
	return 0, false
}

// backoff doubles base for each attempt after the first.
func (p retryPolicy) backoff(attempt int) time.Duration {
	if p.base <= 0 {
		return 0
	}
	delay := p.base
	for i := 1; i < attempt && delay < p.limit; i++ {
		delay *= 2
	}
	return p.cap(delay)
}

func (p retryPolicy) cap(d time.Duration) time.Duration {
	if p.limit > 0 && d > p.limit {
		return p.limit
	}
	return max(d, 0)
}

func (p retryPolicy) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	if p.sleep != nil {
		p.sleep(d)
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type retriesExhausted struct {
	attempts int
	err      error
}

func (e *retriesExhausted) Error() string {
	return "failed after " + strconv.Itoa(e.attempts) + " attempts: " + e.err.Error()
}

func (e *retriesExhausted) Unwrap() error { return e.err }

// parseRetryAfter reads delay-seconds or an HTTP date. Anything else is zero.
func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(max(seconds, 0)) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		return max(time.Until(when), 0)
	}
	return 0
}
