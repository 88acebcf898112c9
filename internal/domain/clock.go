package domain

import (
	"time"

	"cloud.google.com/go/civil"
)

// Clock 当前时间端口；“今天”一律从这里取
type Clock interface {
	Now() time.Time
}

// SystemClock 系统时钟，按 Loc 所在时区计算日期（nil 为 UTC）
type SystemClock struct {
	Loc *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Loc == nil {
		return time.Now().UTC()
	}
	return time.Now().In(c.Loc)
}

// FixedClock 固定时间，测试用
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

// Today 时钟所在时区的当天日期
func Today(c Clock) civil.Date { return civil.DateOf(c.Now()) }
