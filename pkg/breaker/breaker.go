package breaker

import (
	"errors"
	"sync"
	"time"
)

type state uint8

const (
	closed state = iota + 1
	open
	halfOpen
)

var ErrOpen = errors.New("circuit breaker is open")

// Breaker trips after the failure share over the tracked window reaches the
// threshold and recovers through a half-open probe phase.
type Breaker struct {
	mu sync.Mutex

	state           state
	window          []bool
	pos             int
	threshold       float64
	timeout         time.Duration
	lastAttemptedAt time.Time

	recoveryCalls int
	successCount  int
}

func New(windowSize int, timeout time.Duration, threshold float64, recoveryCalls int) *Breaker {
	return &Breaker{
		state:         closed,
		window:        make([]bool, windowSize),
		threshold:     threshold,
		timeout:       timeout,
		recoveryCalls: recoveryCalls,
	}
}

func (b *Breaker) Call(fn func() error) error {
	b.mu.Lock()
	if b.state == open {
		if time.Since(b.lastAttemptedAt) <= b.timeout {
			b.mu.Unlock()
			return ErrOpen
		}
		b.state = halfOpen
		b.successCount = 0
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.window[b.pos] = err != nil
	b.pos = (b.pos + 1) % len(b.window)

	if b.state == halfOpen {
		if err != nil {
			b.state = open
			b.successCount = 0
			b.lastAttemptedAt = time.Now()
			return err
		}
		b.successCount++
		if b.successCount > b.recoveryCalls {
			b.reset()
		}
		return err
	}

	fails := 0
	for _, failed := range b.window {
		if failed {
			fails++
		}
	}
	if float64(fails)/float64(len(b.window)) >= b.threshold {
		b.state = open
		b.successCount = 0
		b.lastAttemptedAt = time.Now()
	}

	return err
}

func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reset()
}

func (b *Breaker) reset() {
	for i := range b.window {
		b.window[i] = false
	}
	b.pos = 0
	b.successCount = 0
	b.state = closed
}
