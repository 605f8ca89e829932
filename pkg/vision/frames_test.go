package vision

import (
	"reflect"
	"testing"
)

func TestSampleIndices(t *testing.T) {
	cases := []struct {
		name     string
		total, n int
		want     []int
	}{
		{"even spread", 100, 4, []int{0, 25, 50, 75}},
		{"short video returns all", 3, 8, []int{0, 1, 2}},
		{"exact fit", 4, 4, []int{0, 1, 2, 3}},
		{"single frame", 100, 1, []int{0}},
		{"empty video", 0, 8, nil},
		{"zero request", 100, 0, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := sampleIndices(tc.total, tc.n)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("sampleIndices(%d, %d) = %v, want %v", tc.total, tc.n, got, tc.want)
			}
		})
	}
}

func TestSampleIndices_MonotonicWithinBounds(t *testing.T) {
	got := sampleIndices(719, 8)
	if len(got) != 8 {
		t.Fatalf("len = %d, want 8", len(got))
	}
	for i, idx := range got {
		if idx < 0 || idx >= 719 {
			t.Errorf("index %d out of bounds: %d", i, idx)
		}
		if i > 0 && idx <= got[i-1] {
			t.Errorf("indices not increasing: %v", got)
		}
	}
}
