package utils

import (
	"time"
)

// Clock 返回当前时间，测试中可替换
type Clock func() time.Time

// SystemClock 使用 UTC 的系统时间
func SystemClock() time.Time {
	return time.Now().UTC()
}

// OrSystem returns c, or SystemClock when c is nil.
func OrSystem(c Clock) Clock {
	if c == nil {
		return SystemClock
	}
	return c
}

// DaysSince 返回 t 到 now 之间经过的完整天数，不会为负
func DaysSince(now, t time.Time) int {
	if !now.After(t) {
		return 0
	}
	return int(now.Sub(t) / (24 * time.Hour))
}

// DaysAgo returns the instant n days before now.
func DaysAgo(now time.Time, n int) time.Time {
	return now.AddDate(0, 0, -n)
}
