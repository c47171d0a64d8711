package search

import "sort"

// LineRange is an inclusive one-based range of lines within a file.
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// MergeLineRanges expands each matched line into a context window
// [n-context, n+context] clamped at line 1, then merges windows that overlap
// or touch. Input order does not matter; the output is sorted by start.
//
// Merging is a single left-to-right pass over the sorted windows. Ranges
// that only become adjacent after an earlier merge are not re-merged; the
// resulting split is harmless for display.
func MergeLineRanges(lines []int, context int) []LineRange {
	if len(lines) == 0 {
		return nil
	}

	ranges := make([]LineRange, 0, len(lines))
	for _, n := range lines {
		start := n - context
		if start < 1 {
			start = 1
		}
		ranges = append(ranges, LineRange{Start: start, End: n + context})
	}

	sort.Slice(ranges, func(i, j int) bool {
		if ranges[i].Start != ranges[j].Start {
			return ranges[i].Start < ranges[j].Start
		}
		return ranges[i].End < ranges[j].End
	})

	merged := ranges[:1]
	for _, r := range ranges[1:] {
		last := &merged[len(merged)-1]
		if r.Start <= last.End+1 {
			if r.End > last.End {
				last.End = r.End
			}
		} else {
			merged = append(merged, r)
		}
	}
	return merged
}
