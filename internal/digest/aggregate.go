package digest

import "sort"

// Digest is one aggregated bucket of structurally identical statements.
// Averages are derived at finalize time; Count is always >= 1.
type Digest struct {
	Fingerprint        string  `json:"fingerprint"`
	SampleSQL          string  `json:"sample_sql"`
	Count              uint64  `json:"count"`
	TotalQueryTimeSecs float64 `json:"total_query_time_secs"`
	AvgQueryTimeSecs   float64 `json:"avg_query_time_secs"`
	TotalLockTimeSecs  float64 `json:"total_lock_time_secs"`
	TotalRowsSent      uint64  `json:"total_rows_sent"`
	TotalRowsExamined  uint64  `json:"total_rows_examined"`
}

// Aggregate groups entries by fingerprint and accumulates their metrics.
// Output ordering is deterministic: total query time descending, then count
// descending, then fingerprint ascending.
func Aggregate(entries []Entry) []Digest {
	grouped := make(map[string]*Digest, len(entries))
	for _, entry := range entries {
		fp := Fingerprint(entry.SQL)
		agg, ok := grouped[fp]
		if !ok {
			agg = &Digest{Fingerprint: fp, SampleSQL: entry.SQL}
			grouped[fp] = agg
		}
		agg.Count++
		agg.TotalQueryTimeSecs += entry.QueryTime
		agg.TotalLockTimeSecs += entry.LockTime
		agg.TotalRowsSent += entry.RowsSent
		agg.TotalRowsExamined += entry.RowsExamined
	}

	digests := make([]Digest, 0, len(grouped))
	for _, agg := range grouped {
		agg.AvgQueryTimeSecs = agg.TotalQueryTimeSecs / float64(agg.Count)
		digests = append(digests, *agg)
	}

	sort.Slice(digests, func(i, j int) bool {
		if digests[i].TotalQueryTimeSecs != digests[j].TotalQueryTimeSecs {
			return digests[i].TotalQueryTimeSecs > digests[j].TotalQueryTimeSecs
		}
		if digests[i].Count != digests[j].Count {
			return digests[i].Count > digests[j].Count
		}
		return digests[i].Fingerprint < digests[j].Fingerprint
	})
	return digests
}
