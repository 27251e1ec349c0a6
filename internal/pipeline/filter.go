package pipeline

import (
	"fmt"
	"time"
)

// Cutoff is January 1st (UTC) of now's year minus lookbackYears.
func Cutoff(now time.Time, lookbackYears int) time.Time {
	return time.Date(now.UTC().Year()-lookbackYears, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// FilterSince keeps rows whose date is at or after cutoff.
func FilterSince(f *Frame, cutoff time.Time) (*Frame, error) {
	keep := make([]int, 0, f.Len())
	for i, d := range f.Dates {
		if !d.Before(cutoff) {
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 {
		return nil, newError(KindEmptyResult, "filter",
			fmt.Errorf("no rows at or after %s (%d rows fetched)", cutoff.Format(time.DateOnly), f.Len()))
	}
	return f.subset(keep), nil
}
