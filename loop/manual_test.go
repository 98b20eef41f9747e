package loop

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestManualRunsDueCallbacksInOrder(t *testing.T) {
	m := NewManual(epoch)
	var order []string
	m.AfterFunc(300*time.Millisecond, func() { order = append(order, "c") })
	m.AfterFunc(100*time.Millisecond, func() { order = append(order, "a") })
	m.AfterFunc(100*time.Millisecond, func() { order = append(order, "b") })

	require.Equal(t, 2, m.Advance(200*time.Millisecond))
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, epoch.Add(200*time.Millisecond), m.Now())
	assert.Equal(t, 1, m.Pending())

	m.Advance(100 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestManualRunsCallbacksScheduledDuringAdvance(t *testing.T) {
	m := NewManual(epoch)
	var at []time.Duration
	m.AfterFunc(10*time.Millisecond, func() {
		at = append(at, m.Now().Sub(epoch))
		m.AfterFunc(10*time.Millisecond, func() {
			at = append(at, m.Now().Sub(epoch))
		})
	})

	m.Advance(time.Second)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, at)
	assert.Equal(t, epoch.Add(time.Second), m.Now())
}

func TestManualFlushDrainsEverything(t *testing.T) {
	m := NewManual(epoch)
	count := 0
	m.AfterFunc(time.Hour, func() { count++ })
	m.AfterFunc(-time.Second, func() { count++ })

	require.Equal(t, 2, m.Flush())
	assert.Equal(t, 2, count)
	assert.Equal(t, epoch.Add(time.Hour), m.Now())
	assert.Zero(t, m.Pending())
}
