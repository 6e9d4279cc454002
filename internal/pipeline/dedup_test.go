package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeduperSeen(t *testing.T) {
	d := NewDeduper(30 * time.Minute)

	assert.False(t, d.Seen("12345|9500"))
	assert.True(t, d.Seen("12345|9500"))

	// Same lot at a different price is a new event.
	assert.False(t, d.Seen("12345|9000"))
}

func TestDeduperExpiry(t *testing.T) {
	now := time.Now()
	d := NewDeduper(30 * time.Minute)
	d.now = func() time.Time { return now }

	assert.False(t, d.Seen("12345|9500"))

	now = now.Add(31 * time.Minute)
	assert.False(t, d.Seen("12345|9500"))
	assert.True(t, d.Seen("12345|9500"))
}

func TestDeduperDisabled(t *testing.T) {
	d := NewDeduper(0)
	assert.False(t, d.Seen("12345|9500"))
	assert.False(t, d.Seen("12345|9500"))

	var nilDeduper *Deduper
	assert.False(t, nilDeduper.Seen("12345|9500"))
}
