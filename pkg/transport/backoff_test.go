package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExponentialBackoff_DelaySequence(t *testing.T) {
	b := DefaultBackoffStrategy()

	want := []time.Duration{
		1000 * time.Millisecond,
		2000 * time.Millisecond,
		4000 * time.Millisecond,
		8000 * time.Millisecond,
		16000 * time.Millisecond,
	}
	for i, d := range want {
		assert.Equal(t, d, b.NextInterval(i+1), "attempt %d", i+1)
	}
}

func TestExponentialBackoff_Cap(t *testing.T) {
	b := DefaultBackoffStrategy()

	assert.Equal(t, 30*time.Second, b.NextInterval(6))
	assert.Equal(t, 30*time.Second, b.NextInterval(20))
}

func TestExponentialBackoff_ZeroAttempt(t *testing.T) {
	b := ExponentialBackoff{}

	assert.Equal(t, time.Duration(0), b.NextInterval(0))
	assert.Equal(t, time.Duration(0), b.NextInterval(-1))
}

func TestExponentialBackoff_Defaults(t *testing.T) {
	b := ExponentialBackoff{}

	assert.Equal(t, time.Second, b.NextInterval(1))
	assert.Equal(t, 2*time.Second, b.NextInterval(2))
	assert.Equal(t, 30*time.Second, b.NextInterval(10))
}
