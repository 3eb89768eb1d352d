package clients

import (
	"time"

	"github.com/sony/gobreaker"
)

// minBreakerTimeout stands in for a zero retry delay. gobreaker treats a
// non-positive Timeout as 60s, which would hold the breaker open across
// every remaining attempt of a zero-delay poll.
const minBreakerTimeout = time.Nanosecond

// NewCircuitBreaker returns a gobreaker that trips after 3 consecutive
// failures and half-opens again after timeout. Callers pass the retry delay
// of the poll that drives the client, so an open breaker never skips more
// than one polling attempt.
func NewCircuitBreaker(name string, timeout time.Duration) *gobreaker.CircuitBreaker {
	if timeout <= 0 {
		timeout = minBreakerTimeout
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
}
