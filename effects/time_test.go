package effects_test

import (
	"testing"
	"time"

	"github.com/on-the-ground/effect_ive_loop/effects"
	"github.com/stretchr/testify/assert"
)

func TestNewTimeSpan(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	span := effects.NewTimeSpan(at, at.Add(16*time.Millisecond))
	assert.Equal(t, 16*time.Millisecond, span.Duration())
	assert.True(t, span.Start().Equal(at))

	first := effects.NewTimeSpan(time.Time{}, at)
	assert.Zero(t, first.Duration())
	assert.True(t, first.Start().Equal(at))
}

func TestNow(t *testing.T) {
	before := time.Now()
	span := effects.Now()
	assert.False(t, span.End().Before(before))
	assert.Equal(t, 2*time.Millisecond, span.Duration())
}
