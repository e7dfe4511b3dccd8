package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnowflake_单调递增并可拆解(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s, err := NewSnowflake(3, WithNow(func() time.Time { return at }))
	require.NoError(t, err)

	a := s.NextID()
	b := s.NextID()
	assert.Greater(t, b, a)

	when, node, seq := Decompose(b)
	assert.Equal(t, at, when)
	assert.Equal(t, int64(3), node)
	assert.Equal(t, int64(1), seq)
}

func TestSnowflake_时钟回拨不倒退(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s, err := NewSnowflake(0, WithNow(func() time.Time { return now }))
	require.NoError(t, err)

	a := s.NextID()
	now = now.Add(-time.Second)
	assert.Greater(t, s.NextID(), a)
}

func TestNewSnowflake_节点号越界(t *testing.T) {
	_, err := NewSnowflake(MaxNodeID + 1)
	assert.Error(t, err)
	_, err = NewSnowflake(-1)
	assert.Error(t, err)
}
