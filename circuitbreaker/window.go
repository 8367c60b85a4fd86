package circuitbreaker

import "time"

// bucket holds the outcome counts for one time slice of the rolling window.
type bucket struct {
	successes int64
	failures  int64
	timeouts  int64
}

// window is a bucketed rolling counter set. It keeps a fixed number of
// buckets covering a fixed span; buckets are rotated lazily based on elapsed
// wall-clock time, so no timer goroutine is needed. Not safe for concurrent
// use on its own; the owning breaker serializes access.
type window struct {
	buckets    []bucket
	bucketSpan time.Duration
	current    int
	rotatedAt  time.Time
	now        func() time.Time
}

func newWindow(span time.Duration, count int, now func() time.Time) *window {
	if now == nil {
		now = time.Now
	}
	return &window{
		buckets:    make([]bucket, count),
		bucketSpan: span / time.Duration(count),
		rotatedAt:  now(),
		now:        now,
	}
}

// rotate advances the current bucket pointer by however many bucket spans
// have elapsed, clearing the buckets it skips over.
func (w *window) rotate() {
	elapsed := w.now().Sub(w.rotatedAt)
	steps := int(elapsed / w.bucketSpan)
	if steps <= 0 {
		return
	}
	if steps >= len(w.buckets) {
		// The whole window has aged out. Clear everything and snap the
		// rotation clock to now; advancing it by the capped step count
		// would leave it lagging real time forever, wiping every
		// outcome recorded after an idle gap.
		for i := range w.buckets {
			w.buckets[i] = bucket{}
		}
		w.rotatedAt = w.now()
		return
	}
	for i := 0; i < steps; i++ {
		w.current = (w.current + 1) % len(w.buckets)
		w.buckets[w.current] = bucket{}
	}
	w.rotatedAt = w.rotatedAt.Add(time.Duration(steps) * w.bucketSpan)
}

func (w *window) recordSuccess() {
	w.rotate()
	w.buckets[w.current].successes++
}

func (w *window) recordFailure() {
	w.rotate()
	w.buckets[w.current].failures++
}

func (w *window) recordTimeout() {
	w.rotate()
	w.buckets[w.current].timeouts++
}

// totals returns the aggregate counts over the whole window.
func (w *window) totals() (successes, failures, timeouts int64) {
	w.rotate()
	for _, b := range w.buckets {
		successes += b.successes
		failures += b.failures
		timeouts += b.timeouts
	}
	return
}

// failureRatio returns the fraction of calls in the window that failed or
// timed out, along with the total call volume.
func (w *window) failureRatio() (ratio float64, volume int64) {
	s, f, t := w.totals()
	volume = s + f + t
	if volume == 0 {
		return 0, 0
	}
	return float64(f+t) / float64(volume), volume
}

// reset clears all buckets.
func (w *window) reset() {
	for i := range w.buckets {
		w.buckets[i] = bucket{}
	}
	w.current = 0
	w.rotatedAt = w.now()
}
