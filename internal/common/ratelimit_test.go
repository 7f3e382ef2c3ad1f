package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(1, 2, 0)
	t.Cleanup(rl.Stop)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))

	// other clients have their own bucket
	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestRateLimiterSweep(t *testing.T) {
	rl := NewRateLimiter(10, 10, 20*time.Millisecond)
	t.Cleanup(rl.Stop)

	rl.Allow("a")
	rl.Allow("b")
	assert.Equal(t, 2, rl.size())

	assert.Eventually(t, func() bool {
		return rl.size() == 0
	}, time.Second, 10*time.Millisecond)
}
