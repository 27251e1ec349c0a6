package pipeline

import "time"

// Provenance holds the constants stamped on every row.
type Provenance struct {
	Source     string
	Exchange   string
	Symbol     string
	Timeframe  string
	IngestedAt time.Time
}

// IngestionTS renders the ingestion time as RFC 3339 in UTC.
func (p Provenance) IngestionTS() string {
	return p.IngestedAt.UTC().Format(time.RFC3339Nano)
}

// Enrich returns a new frame with provenance columns set on every row.
// The header always starts source, exchange, symbol, timeframe, date; provenance columns already
// present are moved there and overwritten. The remaining columns keep their received order and
// ingestion_ts is always last. The input frame is not modified.
func Enrich(f *Frame, p Provenance) *Frame {
	constants := map[string]string{
		ColSource:    p.Source,
		ColExchange:  p.Exchange,
		ColSymbol:    p.Symbol,
		ColTimeframe: p.Timeframe,
	}

	columns := []string{ColSource, ColExchange, ColSymbol, ColTimeframe}
	if f.ColumnIndex(ColDate) >= 0 {
		columns = append(columns, ColDate)
	}
	for _, c := range f.Columns {
		if _, ok := constants[c]; ok || c == ColDate || c == ColIngestionTS {
			continue
		}
		columns = append(columns, c)
	}
	columns = append(columns, ColIngestionTS)

	// src[j] is the input position feeding output column j, or -1 for a stamped value.
	src := make([]int, len(columns))
	stamp := make([]string, len(columns))
	ingestion := p.IngestionTS()
	for j, c := range columns {
		src[j] = -1
		if v, ok := constants[c]; ok {
			stamp[j] = v
			continue
		}
		if c == ColIngestionTS {
			stamp[j] = ingestion
			continue
		}
		src[j] = f.ColumnIndex(c)
	}

	out := &Frame{
		Columns: columns,
		Rows:    make([][]string, f.Len()),
		Dates:   append([]time.Time(nil), f.Dates...),
	}
	for i := range f.Rows {
		row := make([]string, len(columns))
		for j := range columns {
			if src[j] < 0 {
				row[j] = stamp[j]
			} else {
				row[j] = f.value(i, src[j])
			}
		}
		out.Rows[i] = row
	}
	return out
}
