package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManual(t *testing.T) {
	t0 := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := NewManual(t0)

	assert.Equal(t, t0, c.Now())

	c.Advance(5 * time.Minute)
	assert.Equal(t, t0.Add(5*time.Minute), c.Now())

	c.Set(t0)
	assert.Equal(t, t0, c.Now())
}

func TestTimeClocker_UTC(t *testing.T) {
	assert.Equal(t, time.UTC, New().Now().Location())
}
