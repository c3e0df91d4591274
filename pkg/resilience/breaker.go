// Package resilience provides fault tolerance for external send APIs.
package resilience

import (
	"time"

	"github.com/sony/gobreaker"
)

// NewSendBreaker creates a circuit breaker for a notifier channel. After
// five consecutive failures the channel is considered down for 30 seconds
// and sends fail fast; the caller records the notification as failed.
func NewSendBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}
