package model

import (
	"fmt"
	"strings"
	"time"
)

// Interval is the bar aggregation period requested from a provider.
type Interval string

const (
	Interval1Minute  Interval = "1m"
	Interval5Minute  Interval = "5m"
	Interval15Minute Interval = "15m"
	Interval30Minute Interval = "30m"
	Interval1Hour    Interval = "1h"
	Interval4Hour    Interval = "4h"
	IntervalDaily    Interval = "1d"
	IntervalWeekly   Interval = "1w"
	IntervalMonthly  Interval = "1M"
)

var intervalDurations = map[Interval]time.Duration{
	Interval1Minute:  time.Minute,
	Interval5Minute:  5 * time.Minute,
	Interval15Minute: 15 * time.Minute,
	Interval30Minute: 30 * time.Minute,
	Interval1Hour:    time.Hour,
	Interval4Hour:    4 * time.Hour,
	IntervalDaily:    24 * time.Hour,
	IntervalWeekly:   7 * 24 * time.Hour,
	IntervalMonthly:  31 * 24 * time.Hour,
}

// ParseInterval accepts the short labels above plus a few long aliases (daily, weekly, monthly).
// "1M" is month and "1m" is minute, so matching is case-sensitive for those two.
func ParseInterval(s string) (Interval, error) {
	s = strings.TrimSpace(s)
	if _, ok := intervalDurations[Interval(s)]; ok {
		return Interval(s), nil
	}
	switch strings.ToLower(s) {
	case "daily", "day", "d":
		return IntervalDaily, nil
	case "weekly", "week", "w":
		return IntervalWeekly, nil
	case "monthly", "month":
		return IntervalMonthly, nil
	case "hourly", "1h", "60m":
		return Interval1Hour, nil
	}
	return "", fmt.Errorf("unsupported interval %q", s)
}

// Duration is the nominal bar length. Monthly bars use 31 days so that
// lookback windows derived from it never come up short.
func (i Interval) Duration() time.Duration {
	return intervalDurations[i]
}

func (i Interval) String() string { return string(i) }
