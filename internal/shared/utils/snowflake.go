package utils

import (
	"fmt"
	"sync"
	"time"
)

const (
	// 2020-01-01 00:00:00 UTC，毫秒
	idEpochMilli int64 = 1577836800000

	nodeBits uint8 = 8
	seqBits  uint8 = 14

	MaxNodeID int64 = -1 ^ (-1 << nodeBits)
	maxSeq    int64 = -1 ^ (-1 << seqBits)

	nodeShift = seqBits
	timeShift = nodeBits + seqBits
)

// Snowflake 进攻、归档报告等不走自增主键的记录 id。
// 单节点内单调递增，节点号区分多实例。
type Snowflake struct {
	mu     sync.Mutex
	nodeID int64
	lastTS int64
	seq    int64
	now    func() time.Time
}

type SnowflakeOption func(*Snowflake)

// WithNow 替换时间源，测试用。
func WithNow(f func() time.Time) SnowflakeOption {
	return func(s *Snowflake) {
		if f != nil {
			s.now = f
		}
	}
}

func NewSnowflake(nodeID int64, opts ...SnowflakeOption) (*Snowflake, error) {
	if nodeID < 0 || nodeID > MaxNodeID {
		return nil, fmt.Errorf("snowflake node id out of range [0,%d]: %d", MaxNodeID, nodeID)
	}
	s := &Snowflake{nodeID: nodeID, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

func (s *Snowflake) NextID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UnixMilli()
	if ts < s.lastTS {
		// 时钟回拨沿用上一毫秒
		ts = s.lastTS
	}
	if ts == s.lastTS {
		s.seq = (s.seq + 1) & maxSeq
		if s.seq == 0 {
			// 本毫秒序号用完，借用下一毫秒
			ts++
		}
	} else {
		s.seq = 0
	}
	s.lastTS = ts
	return ((ts - idEpochMilli) << timeShift) | (s.nodeID << nodeShift) | s.seq
}

// Decompose 拆出 id 的生成时间和节点号，排查用。
func Decompose(id int64) (at time.Time, nodeID int64, seq int64) {
	ms := (id >> timeShift) + idEpochMilli
	return time.UnixMilli(ms).UTC(), (id >> nodeShift) & MaxNodeID, id & maxSeq
}
