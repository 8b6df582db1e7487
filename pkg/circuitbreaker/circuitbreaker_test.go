package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	c := &clock{t: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(Settings{Name: "smtp", MaxFailures: 2, Timeout: time.Minute, Now: c.now})
	boom := errors.New("connection refused")

	assert.ErrorIs(t, cb.Execute(func() error { return boom }), boom)
	assert.Equal(t, StateClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(func() error { return boom }), boom)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_HalfOpenTrial(t *testing.T) {
	c := &clock{t: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(Settings{MaxFailures: 1, Timeout: time.Minute, Now: c.now})
	boom := errors.New("timeout")

	_ = cb.Execute(func() error { return boom })
	c.t = c.t.Add(time.Minute)
	assert.Equal(t, StateHalfOpen, cb.State())

	// A failed trial reopens immediately.
	assert.ErrorIs(t, cb.Execute(func() error { return boom }), boom)
	assert.Equal(t, StateOpen, cb.State())

	c.t = c.t.Add(time.Minute)
	assert.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker(Settings{MaxFailures: 2})
	boom := errors.New("boom")

	_ = cb.Execute(func() error { return boom })
	assert.NoError(t, cb.Execute(func() error { return nil }))
	_ = cb.Execute(func() error { return boom })
	assert.Equal(t, StateClosed, cb.State())
}
