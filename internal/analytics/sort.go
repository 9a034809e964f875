package analytics

import "sort"

// sortByCountThenName orders keys by descending count, then ascending key.
func sortByCountThenName(keys []string, counts map[string]int) {
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
}

// sortRecentFirst orders records by descending issue time. The sort is stable
// so records sharing a timestamp keep the store's order.
func sortRecentFirst(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].IssuedAt.After(records[j].IssuedAt)
	})
}
