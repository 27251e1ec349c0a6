package pipeline

import "sort"

type recordKey struct {
	symbol    string
	timeframe string
	sec       int64
	nsec      int
}

// SortAndDedup orders rows by date (stable, so arrival order is kept among equal dates)
// and keeps only the last row for each (symbol, timeframe, date).
func SortAndDedup(f *Frame) *Frame {
	order := make([]int, f.Len())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return f.Dates[order[a]].Before(f.Dates[order[b]])
	})

	symIdx := f.ColumnIndex(ColSymbol)
	tfIdx := f.ColumnIndex(ColTimeframe)
	keyAt := func(i int) recordKey {
		return recordKey{
			symbol:    f.value(i, symIdx),
			timeframe: f.value(i, tfIdx),
			sec:       f.Dates[i].Unix(),
			nsec:      f.Dates[i].Nanosecond(),
		}
	}

	last := make(map[recordKey]int, len(order))
	for pos, i := range order {
		last[keyAt(i)] = pos
	}

	keep := make([]int, 0, len(last))
	for pos, i := range order {
		if last[keyAt(i)] == pos {
			keep = append(keep, i)
		}
	}
	return f.subset(keep)
}
