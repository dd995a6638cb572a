package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func newTestBreaker(cfg Config) (*Breaker, *time.Time) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := New(cfg)
	b.now = func() time.Time { return now }
	return b, &now
}

func fail() error { return errBoom }
func ok() error   { return nil }

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b, _ := newTestBreaker(Config{FailureThreshold: 3, Cooldown: time.Minute})

	for range 3 {
		require.ErrorIs(t, b.Execute(fail), errBoom)
	}
	assert.Equal(t, StateOpen, b.State())

	called := false
	err := b.Execute(func() error { called = true; return nil })
	require.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestBreaker_SuccessResetsFailures(t *testing.T) {
	b, _ := newTestBreaker(Config{FailureThreshold: 2})

	_ = b.Execute(fail)
	require.NoError(t, b.Execute(ok))
	_ = b.Execute(fail)

	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpen(t *testing.T) {
	var transitions []string
	b, now := newTestBreaker(Config{
		FailureThreshold: 1,
		Cooldown:         time.Minute,
		OnStateChange: func(from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	_ = b.Execute(fail)
	*now = now.Add(time.Minute)
	assert.Equal(t, StateHalfOpen, b.State())

	// A half-open failure reopens immediately.
	_ = b.Execute(fail)
	assert.Equal(t, StateOpen, b.State())

	*now = now.Add(time.Minute)
	require.NoError(t, b.Execute(ok))
	assert.Equal(t, StateClosed, b.State())

	assert.Equal(t, []string{
		"closed->open", "open->half-open", "half-open->open",
		"open->half-open", "half-open->closed",
	}, transitions)
}

func TestNew_Defaults(t *testing.T) {
	b := New(Config{})
	assert.Equal(t, DefaultFailureThreshold, b.cfg.FailureThreshold)
	assert.Equal(t, DefaultSuccessThreshold, b.cfg.SuccessThreshold)
	assert.Equal(t, DefaultCooldown, b.cfg.Cooldown)
	assert.Equal(t, "unknown", State(9).String())
}
