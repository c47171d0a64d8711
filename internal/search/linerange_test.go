package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeLineRanges(t *testing.T) {
	tests := []struct {
		name    string
		lines   []int
		context int
		want    []LineRange
	}{
		{
			name:    "overlapping windows merge",
			lines:   []int{5, 7, 15},
			context: 2,
			want:    []LineRange{{Start: 3, End: 9}, {Start: 13, End: 17}},
		},
		{
			name:    "window clamped at line one",
			lines:   []int{1},
			context: 3,
			want:    []LineRange{{Start: 1, End: 4}},
		},
		{
			name:    "touching windows merge",
			lines:   []int{10, 15},
			context: 2,
			// [8,12] and [13,17] touch (13 == 12+1) and become one range.
			want: []LineRange{{Start: 8, End: 17}},
		},
		{
			name:    "disjoint windows stay separate",
			lines:   []int{10, 20},
			context: 2,
			want:    []LineRange{{Start: 8, End: 12}, {Start: 18, End: 22}},
		},
		{
			name:    "unsorted input is sorted first",
			lines:   []int{20, 5, 12},
			context: 1,
			want:    []LineRange{{Start: 4, End: 6}, {Start: 11, End: 13}, {Start: 19, End: 21}},
		},
		{
			name:    "zero context",
			lines:   []int{3, 4, 9},
			context: 0,
			// Lines 3 and 4 are adjacent, so their windows still merge.
			want: []LineRange{{Start: 3, End: 4}, {Start: 9, End: 9}},
		},
		{
			name:    "duplicate lines collapse",
			lines:   []int{7, 7, 7},
			context: 2,
			want:    []LineRange{{Start: 5, End: 9}},
		},
		{
			name:    "empty input",
			lines:   nil,
			context: 5,
			want:    nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeLineRanges(tt.lines, tt.context))
		})
	}
}

func TestMergeLineRanges_OutputSortedAndDisjoint(t *testing.T) {
	got := MergeLineRanges([]int{50, 3, 27, 9, 100, 4}, 2)

	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i].Start, got[i-1].End+1,
			"ranges must be disjoint and non-touching after the merge pass")
	}
}
