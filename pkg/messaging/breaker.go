package messaging

import (
	"context"

	"github.com/physiome/admin-api/pkg/circuitbreaker"
)

// BreakerPublisher skips publishing while the broker keeps failing, so a
// Redis outage does not add a dial timeout to every request that
// publishes.
type BreakerPublisher struct {
	next    Publisher
	breaker *circuitbreaker.CircuitBreaker
}

var _ Publisher = (*BreakerPublisher)(nil)

func NewBreakerPublisher(next Publisher, breaker *circuitbreaker.CircuitBreaker) *BreakerPublisher {
	return &BreakerPublisher{next: next, breaker: breaker}
}

func (p *BreakerPublisher) Publish(ctx context.Context, channel string, message interface{}) error {
	return p.breaker.Execute(func() error {
		return p.next.Publish(ctx, channel, message)
	})
}
