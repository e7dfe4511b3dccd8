package domain

import (
	"math"
	"time"
)

// 模拟统一使用 UTC、微秒精度的时间点和 time.Duration 时长。
// 速度相除得到的浮点秒只在 Seconds 处转换一次。

func Micro(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// Seconds 浮点秒转时长，向下取整到微秒；非有限值视为 0。
func Seconds(s float64) time.Duration {
	if math.IsNaN(s) || math.IsInf(s, 0) || s <= 0 {
		return 0
	}
	us := math.Floor(s * 1e6)
	if us >= float64(math.MaxInt64/int64(time.Microsecond)) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(us) * time.Microsecond
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return Micro(time.Now())
}

// FixedClock 测试用，可手动推进。
type FixedClock struct {
	T time.Time
}

func (c *FixedClock) Now() time.Time {
	return Micro(c.T)
}

func (c *FixedClock) Advance(d time.Duration) {
	c.T = c.T.Add(d)
}
