package retry

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"playlist-api-go/logcolors"
)

// Policy controls how a failing call is retried. A call is attempted once and
// then retried up to MaxRetries more times, sleeping an exponentially growing
// delay between attempts. Retryable decides which errors are worth another
// attempt; a nil Retryable retries everything.
type Policy struct {
	Name       string        // Name for logging
	MaxRetries int           // Additional attempts after the first failure
	BaseDelay  time.Duration // Delay before the first retry, doubled each attempt
	Retryable  func(error) bool
}

// DefaultBaseDelay is used when Policy.BaseDelay is zero.
const DefaultBaseDelay = 100 * time.Millisecond

// Do runs fn under the policy. It returns the first success, or the error of
// the last attempt once retries are exhausted or the error is not retryable.
// The context is checked between attempts; a canceled context stops retrying
// and surfaces the last error.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	delay := p.BaseDelay
	if delay <= 0 {
		delay = DefaultBaseDelay
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if attempt >= p.MaxRetries {
			return err
		}

		log.Warnf("%s %s attempt %d/%d failed, retrying in %v: %v",
			logcolors.LogRetry, p.Name, attempt+1, p.MaxRetries+1, delay, err)

		select {
		case <-ctx.Done():
			return err
		case <-time.After(delay):
		}
		delay *= 2
	}
}
