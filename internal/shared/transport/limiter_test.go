package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlayerLimiter_按玩家分桶(t *testing.T) {
	l := NewPlayerLimiter(1, 2)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, l.Allow(1, now))
	assert.True(t, l.Allow(1, now))
	assert.False(t, l.Allow(1, now))
	assert.True(t, l.Allow(2, now), "其他玩家不受影响")
	assert.True(t, l.Allow(1, now.Add(time.Second)))
}

func TestPlayerLimiter_空闲桶回收(t *testing.T) {
	l := NewPlayerLimiter(1, 1)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l.Allow(1, now)
	l.Allow(2, now.Add(11*time.Minute))
	assert.Len(t, l.buckets, 1)
}

func TestPlayerLimiter_不限流(t *testing.T) {
	l := NewPlayerLimiter(0, 10)
	assert.Nil(t, l)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow(1, time.Now()))
	}
}
