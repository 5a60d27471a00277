package domain

import (
	"strings"
	"time"
)

// DayCount 计息天数惯例
type DayCount int

const (
	ACT360 DayCount = iota // 默认
	ACT365
)

// ParseDayCount 解析天数惯例，空串取默认 ACT/360
func ParseDayCount(s string) (DayCount, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ACT/360", "ACT360":
		return ACT360, nil
	case "ACT/365", "ACT365":
		return ACT365, nil
	default:
		return ACT360, unsupportedVariant("day_count", s)
	}
}

func (d DayCount) String() string {
	if d == ACT365 {
		return "ACT/365"
	}
	return "ACT/360"
}

// Basis 年化分母
func (d DayCount) Basis() float64 {
	if d == ACT365 {
		return 365
	}
	return 360
}

// Maturity 期限，统一以年为单位
type Maturity struct {
	years    float64
	dayCount DayCount
}

// MaturityInput 三种互斥的期限输入方式：年、天数、起止日期
type MaturityInput struct {
	Years    *float64
	Days     *float64
	Start    *time.Time
	End      *time.Time
	DayCount DayCount
}

// NewMaturity 按恰好一种输入方式构造期限
func NewMaturity(in MaturityInput) (Maturity, error) {
	modes := 0
	if in.Years != nil {
		modes++
	}
	if in.Days != nil {
		modes++
	}
	if in.Start != nil || in.End != nil {
		if in.Start == nil || in.End == nil {
			return Maturity{}, invalidInput("start_date/end_date", "both dates are required")
		}
		modes++
	}
	switch {
	case modes == 0:
		return Maturity{}, invalidInput("maturity", "one of years, days or start/end dates is required")
	case modes > 1:
		return Maturity{}, invalidInput("maturity", "years, days and start/end dates are mutually exclusive")
	case in.Years != nil:
		return MaturityFromYears(*in.Years)
	case in.Days != nil:
		return MaturityFromDays(*in.Days, in.DayCount)
	default:
		return MaturityFromDates(*in.Start, *in.End, in.DayCount)
	}
}

// MaturityFromYears 直接以年构造
func MaturityFromYears(years float64) (Maturity, error) {
	if !(years > 0) {
		return Maturity{}, invalidInput("maturity", "year fraction must be positive, got %g", years)
	}
	return Maturity{years: years}, nil
}

// MaturityFromDays 以天数和天数惯例构造
func MaturityFromDays(days float64, dc DayCount) (Maturity, error) {
	if !(days > 0) {
		return Maturity{}, invalidInput("maturity_days", "day count must be positive, got %g", days)
	}
	return Maturity{years: days / dc.Basis(), dayCount: dc}, nil
}

// MaturityFromDates 以起止日期构造，只计整日
func MaturityFromDates(start, end time.Time, dc DayCount) (Maturity, error) {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	days := e.Sub(s).Hours() / 24
	if days <= 0 {
		return Maturity{}, invalidInput("end_date", "end date must be after start date")
	}
	return Maturity{years: days / dc.Basis(), dayCount: dc}, nil
}

// Years 年化期限
func (m Maturity) Years() float64 { return m.years }

// DayCount 天数惯例
func (m Maturity) DayCount() DayCount { return m.dayCount }

// Shift 平移期限，结果必须仍为正
func (m Maturity) Shift(dt float64) (Maturity, error) {
	if !(m.years+dt > 0) {
		return Maturity{}, invalidInput("maturity", "shifted year fraction must be positive")
	}
	return Maturity{years: m.years + dt, dayCount: m.dayCount}, nil
}
