package stats

import "time"

// UnknownSource is the breakdown key for observations without a source classification.
const UnknownSource = "unknown"

// Summary holds lifetime platform totals.
type Summary struct {
	TotalObservations int64
	TotalAnomalies    int64
	Sources           map[string]int64
	LastObservation   *time.Time
}

// SourceCount is one row of the raw source breakdown; Source is nil for NULL.
type SourceCount struct {
	Source *string
	Count  int64
}

// Breakdown folds raw grouped counts into a map keyed by source, merging NULL
// and the literal "unknown" label into UnknownSource.
func Breakdown(rows []SourceCount) map[string]int64 {
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		key := UnknownSource
		if r.Source != nil && *r.Source != "" {
			key = *r.Source
		}
		out[key] += r.Count
	}
	return out
}
