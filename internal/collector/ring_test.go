package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleRingEmpty(t *testing.T) {
	r := newSampleRing(4)
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0.0, r.Average())
	assert.Equal(t, 0.0, r.Min())
}

func TestSampleRingPartialFill(t *testing.T) {
	r := newSampleRing(4)
	r.Add(10)
	r.Add(20)

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 15.0, r.Average())
	assert.Equal(t, 10.0, r.Min())
}

func TestSampleRingEviction(t *testing.T) {
	r := newSampleRing(3)
	r.Add(1)
	r.Add(2)
	r.Add(3)
	// Overwrites the oldest sample (1)
	r.Add(9)

	assert.Equal(t, 3, r.Len())
	assert.InDelta(t, (9.0+2.0+3.0)/3.0, r.Average(), 1e-9)
	assert.Equal(t, 2.0, r.Min())
}

func TestSampleRingReset(t *testing.T) {
	r := newSampleRing(2)
	r.Add(5)
	r.Add(6)
	r.Reset()

	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0.0, r.Average())

	r.Add(7)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 7.0, r.Average())
}

func TestSampleRingMinimumCapacity(t *testing.T) {
	r := newSampleRing(0)
	r.Add(3)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 3.0, r.Min())
}
