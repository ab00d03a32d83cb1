// Package circuitbreaker guards the served snapshot against publisher
// regressions: a refresh that moves backwards in time or silently changes the
// set of lockers trips the breaker, and the last good snapshot keeps serving.
package circuitbreaker

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/locker-metrics/internal/model"
)

// ErrOpen is returned by Check while the breaker refuses new snapshots.
var ErrOpen = errors.New("circuit breaker open: serving last good snapshot")

// State represents the current state of the circuit breaker
type State int

// Circuit breaker states
const (
	StateClosed   State = iota // accepting snapshots
	StateOpen                  // tripped, snapshots rejected
	StateHalfOpen              // probing after the reset delay
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// Thresholds defines what makes a fetched snapshot a regression.
type Thresholds struct {
	// MinEntities is the fewest lockers a snapshot may carry
	MinEntities int `json:"min_entities" yaml:"min_entities"`

	// AllowEntityChange accepts a snapshot whose locker keys differ from the last good one
	AllowEntityChange bool `json:"allow_entity_change" yaml:"allow_entity_change"`
}

// DefaultThresholds requires a stable pair of lockers.
func DefaultThresholds() Thresholds {
	return Thresholds{MinEntities: 2}
}

// CircuitBreaker accepts or rejects snapshots and remembers the last good one.
type CircuitBreaker struct {
	thresholds Thresholds

	state    State
	lastTrip time.Time
	reason   string

	resetDelay time.Duration

	mu sync.RWMutex

	lastGood *model.Snapshot

	// consecutive accepted snapshots while half-open
	successCount     int
	successThreshold int

	onTripCallback func(reason string, snap *model.Snapshot)

	now func() time.Time
}

// New creates a new CircuitBreaker with the provided thresholds
func New(t Thresholds) *CircuitBreaker {
	return &CircuitBreaker{
		thresholds:       t,
		state:            StateClosed,
		resetDelay:       5 * time.Minute,
		successThreshold: 1,
		now:              time.Now,
	}
}

// WithResetDelay sets how long the breaker stays open before probing again.
func (cb *CircuitBreaker) WithResetDelay(delay time.Duration) *CircuitBreaker {
	cb.resetDelay = delay
	return cb
}

// WithSuccessThreshold sets the number of accepted snapshots needed to close a half-open breaker.
func (cb *CircuitBreaker) WithSuccessThreshold(threshold int) *CircuitBreaker {
	cb.successThreshold = threshold
	return cb
}

// WithTripCallback sets a function called synchronously whenever the breaker trips.
func (cb *CircuitBreaker) WithTripCallback(callback func(reason string, snap *model.Snapshot)) *CircuitBreaker {
	cb.onTripCallback = callback
	return cb
}

// WithClock overrides the time source.
func (cb *CircuitBreaker) WithClock(now func() time.Time) *CircuitBreaker {
	cb.now = now
	return cb
}

// Check decides whether snap may replace the last good snapshot. On success the
// snapshot becomes the last good one. While open, ErrOpen is returned without
// inspecting snap.
func (cb *CircuitBreaker) Check(snap *model.Snapshot) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if cb.now().Sub(cb.lastTrip) < cb.resetDelay {
			return ErrOpen
		}
		cb.state = StateHalfOpen
		cb.successCount = 0
		logrus.Info("Circuit breaker half-open: probing new snapshot")
	}

	if snap == nil {
		reason := "no snapshot provided"
		cb.trip(reason, snap)
		return errors.New(reason)
	}

	if reason := cb.regression(snap); reason != "" {
		cb.trip(reason, snap)
		return errors.New(reason)
	}

	cb.lastGood = snap
	logrus.WithFields(logrus.Fields{
		"week":       snap.Week,
		"updated_at": snap.UpdatedAt,
	}).Debug("Circuit breaker checks passed")

	if cb.state == StateHalfOpen {
		cb.successCount++
		if cb.successCount >= cb.successThreshold {
			cb.state = StateClosed
			cb.successCount = 0
			cb.reason = ""
			logrus.Info("Circuit breaker closed: publisher has recovered")
		}
	}
	return nil
}

// regression returns a non-empty reason when snap must be rejected.
func (cb *CircuitBreaker) regression(snap *model.Snapshot) string {
	if n := len(snap.Entities); n < cb.thresholds.MinEntities {
		return fmt.Sprintf("insufficient entity count: got %d, need %d", n, cb.thresholds.MinEntities)
	}

	prev := cb.lastGood
	if prev == nil {
		return ""
	}
	if snap.UpdatedAt < prev.UpdatedAt {
		return fmt.Sprintf("snapshot older than last good: %d < %d", snap.UpdatedAt, prev.UpdatedAt)
	}
	if snap.Week < prev.Week {
		return fmt.Sprintf("week went backwards: %d < %d", snap.Week, prev.Week)
	}
	if !cb.thresholds.AllowEntityChange {
		was, is := prev.EntityKeys(), snap.EntityKeys()
		if strings.Join(was, ",") != strings.Join(is, ",") {
			return fmt.Sprintf("entity set changed: [%s] -> [%s]", strings.Join(was, ","), strings.Join(is, ","))
		}
	}
	return ""
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// LastReason returns why the breaker last tripped, empty once it has closed again.
func (cb *CircuitBreaker) LastReason() string {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.reason
}

// Reset forcibly closes the breaker, keeping the last good snapshot.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.successCount = 0
	cb.reason = ""
	logrus.Info("Circuit breaker manually reset to closed state")
}

// LastGood returns the most recently accepted snapshot, or nil.
func (cb *CircuitBreaker) LastGood() *model.Snapshot {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.lastGood
}

// trip must be called with mu held.
func (cb *CircuitBreaker) trip(reason string, snap *model.Snapshot) {
	cb.state = StateOpen
	cb.lastTrip = cb.now()
	cb.reason = reason
	cb.successCount = 0
	logrus.Warnf("Circuit breaker tripped: %s", reason)

	if cb.onTripCallback != nil {
		cb.onTripCallback(reason, snap)
	}
}
