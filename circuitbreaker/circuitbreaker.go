package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"playlist-api-go/logcolors"
	"playlist-api-go/services/notifier"
	"playlist-api-go/stats"
)

// State represents the circuit breaker state
type State int

const (
	StateClosed   State = iota // Normal operation, requests allowed
	StateOpen                  // Circuit tripped, requests blocked
	StateHalfOpen              // Testing if service recovered
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var (
	ErrOpen = errors.New("circuit breaker is open")
)

// Config holds circuit breaker configuration
type Config struct {
	Name         string        // Name for logging
	WindowSpan   time.Duration // Span of the rolling outcome window
	Buckets      int           // Number of buckets the window is divided into
	FailureRatio float64       // Failure ratio above which the circuit opens
	MinVolume    int64         // Minimum calls in the window before the ratio is evaluated
	Cooldown     time.Duration // How long to stay open before testing
	CallTimeout  time.Duration // Per-call timeout, counted as a failure

	now func() time.Time // test hook
}

// Counters exposes the breaker's lifetime outcome counts for monitoring.
type Counters struct {
	Fires     int64 `json:"fires"`
	Successes int64 `json:"successes"`
	Failures  int64 `json:"failures"`
	Rejects   int64 `json:"rejects"`
	Timeouts  int64 `json:"timeouts"`
}

// CircuitBreaker guards a single upstream operation. Its state is shared by
// every concurrent invocation of that operation; state transitions are driven
// by elapsed wall-clock time checked lazily on the next call, never by a
// timer goroutine.
type CircuitBreaker struct {
	name         string
	windowSpan   time.Duration
	bucketCount  int
	failureRatio float64
	minVolume    int64
	cooldown     time.Duration
	callTimeout  time.Duration
	now          func() time.Time

	mu            sync.Mutex
	state         State
	window        *window
	openedAt      time.Time
	trialInFlight bool

	fires     atomic.Int64
	successes atomic.Int64
	failures  atomic.Int64
	rejects   atomic.Int64
	timeouts  atomic.Int64
}

// New creates a new circuit breaker
func New(cfg Config) *CircuitBreaker {
	if cfg.WindowSpan <= 0 {
		cfg.WindowSpan = 10 * time.Second
	}
	if cfg.Buckets <= 0 {
		cfg.Buckets = 10
	}
	if cfg.FailureRatio <= 0 {
		cfg.FailureRatio = 0.5
	}
	if cfg.MinVolume <= 0 {
		cfg.MinVolume = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 3 * time.Second
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}

	return &CircuitBreaker{
		name:         cfg.Name,
		windowSpan:   cfg.WindowSpan,
		bucketCount:  cfg.Buckets,
		failureRatio: cfg.FailureRatio,
		minVolume:    cfg.MinVolume,
		cooldown:     cfg.Cooldown,
		callTimeout:  cfg.CallTimeout,
		now:          cfg.now,
		state:        StateClosed,
		window:       newWindow(cfg.WindowSpan, cfg.Buckets, cfg.now),
	}
}

// Execute runs fn under the breaker. The call is bounded by the breaker's own
// call timeout, which is tighter than the caller's outer timeout so a slow
// upstream fails fast and feeds the window statistics. When the circuit is
// open (or a half-open trial is already in flight) the call is rejected
// immediately with ErrOpen without invoking fn.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if !cb.allow() {
		cb.rejects.Add(1)
		stats.Get().RecordBreakerRejected()
		return ErrOpen
	}

	cb.fires.Add(1)

	callCtx, cancel := context.WithTimeout(ctx, cb.callTimeout)
	defer cancel()

	err := fn(callCtx)
	switch {
	case err == nil:
		cb.successes.Add(1)
		cb.recordSuccess()
		return nil
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded):
		cb.timeouts.Add(1)
		cb.recordTimeout()
		return err
	default:
		cb.failures.Add(1)
		cb.recordFailure()
		return err
	}
}

// allow reports whether a call may proceed, performing any lazy time-based
// state transition first.
func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true

	case StateOpen:
		if cb.now().Sub(cb.openedAt) >= cb.cooldown {
			cb.transition(StateHalfOpen)
			cb.trialInFlight = true
			return true // Allow one trial request
		}
		return false

	case StateHalfOpen:
		// Only one trial call at a time
		if !cb.trialInFlight {
			cb.trialInFlight = true
			return true
		}
		return false

	default:
		return true
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateHalfOpen:
		// Trial request succeeded, close the circuit
		cb.trialInFlight = false
		cb.window.reset()
		cb.transition(StateClosed)
		notifier.PublishCircuitBreakerRecovered(cb.name)
	case StateClosed:
		cb.window.recordSuccess()
	}
}

func (cb *CircuitBreaker) recordFailure() {
	cb.recordOutcome(false)
}

func (cb *CircuitBreaker) recordTimeout() {
	cb.recordOutcome(true)
}

func (cb *CircuitBreaker) recordOutcome(timedOut bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateHalfOpen:
		// Trial request failed, back to open; cooldown restarts
		cb.trialInFlight = false
		cb.openedAt = cb.now()
		cb.transition(StateOpen)
		stats.Get().RecordBreakerOpened()
		notifier.PublishCircuitBreakerOpen(cb.name, cb.cooldown)

	case StateClosed:
		if timedOut {
			cb.window.recordTimeout()
		} else {
			cb.window.recordFailure()
		}
		ratio, volume := cb.window.failureRatio()
		if volume >= cb.minVolume && ratio > cb.failureRatio {
			cb.openedAt = cb.now()
			cb.transition(StateOpen)
			log.Warnf("%s Failure ratio %.0f%% over %d calls, opening (cooldown: %v)",
				logcolors.CircuitBreakerPrefix(cb.name), ratio*100, volume, cb.cooldown)
			stats.Get().RecordBreakerOpened()
			notifier.PublishCircuitBreakerOpen(cb.name, cb.cooldown)
		}
	}
}

// transition must be called with cb.mu held.
func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	cb.state = to
	log.Infof("%s %s -> %s", logcolors.CircuitBreakerPrefix(cb.name), from, to)
}

// State returns the current state, applying any pending lazy transition.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.cooldown {
		cb.transition(StateHalfOpen)
	}
	return cb.state
}

// Counters returns the breaker's lifetime counters.
func (cb *CircuitBreaker) Counters() Counters {
	return Counters{
		Fires:     cb.fires.Load(),
		Successes: cb.successes.Load(),
		Failures:  cb.failures.Load(),
		Rejects:   cb.rejects.Load(),
		Timeouts:  cb.timeouts.Load(),
	}
}

// Name returns the breaker's configured name.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// Reset manually resets the circuit breaker to closed state
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.trialInFlight = false
	cb.openedAt = time.Time{}
	cb.window.reset()
	log.Infof("%s Manually reset to closed", logcolors.CircuitBreakerPrefix(cb.name))
}

// TimeUntilRetry returns how long until an open circuit will allow a trial
// call. Returns 0 when the circuit is closed or half-open.
func (cb *CircuitBreaker) TimeUntilRetry() time.Duration {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateOpen {
		return 0
	}
	elapsed := cb.now().Sub(cb.openedAt)
	if elapsed >= cb.cooldown {
		return 0
	}
	return cb.cooldown - elapsed
}
