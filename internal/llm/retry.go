package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"
)

// Sentinel generation errors. A response with no parsable JSON object is a
// generation failure like any other and consumes a retry attempt.
var (
	ErrNoJSON         = errors.New("response contains no JSON object")
	ErrSchemaMismatch = errors.New("response JSON does not match the record schema")
	ErrEmptyResponse  = errors.New("backend returned an empty response")
)

// HTTPStatusError carries a non-2xx backend status for retry classification.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("backend status %d: %s", e.StatusCode, e.Body)
}

// RetryPolicy is data, not control flow: attempt count, backoff curve, and
// the retryable classification all live here.
type RetryPolicy struct {
	MaxAttempts int
	BackoffBase time.Duration
}

// Backoff returns the sleep before retry n (0-based): base * 2^n.
func (p RetryPolicy) Backoff(retry int) time.Duration {
	d := p.BackoffBase
	for i := 0; i < retry; i++ {
		d *= 2
	}
	return d
}

// IsRetryable classifies an attempt error as transient. Connection refused,
// timeouts, HTTP 429 and 5xx, and unparsable output are retried; everything
// else aborts the loop immediately.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var httpErr *HTTPStatusError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == 429 || httpErr.StatusCode >= 500
	}
	if errors.Is(err, ErrNoJSON) || errors.Is(err, ErrSchemaMismatch) || errors.Is(err, ErrEmptyResponse) {
		return true
	}
	return false
}

// sleepCtx waits for d unless ctx ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
