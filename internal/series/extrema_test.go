package series

import (
	"reflect"
	"testing"
)

func TestMinMaxIndexes_ZigZag(t *testing.T) {
	mins, maxs := MinMaxIndexes([]float64{10, 12, 8, 15, 9})
	if !reflect.DeepEqual(mins, []int{0, 2}) {
		t.Errorf("mins = %v, want [0 2]", mins)
	}
	if !reflect.DeepEqual(maxs, []int{1, 3}) {
		t.Errorf("maxs = %v, want [1 3]", maxs)
	}
}

func TestMaxMinIndexes_ZigZag(t *testing.T) {
	maxs, mins := MaxMinIndexes([]float64{10, 12, 8, 15, 9})
	if !reflect.DeepEqual(maxs, []int{1, 3}) {
		t.Errorf("maxs = %v, want [1 3]", maxs)
	}
	if !reflect.DeepEqual(mins, []int{2, 4}) {
		t.Errorf("mins = %v, want [2 4]", mins)
	}
}

func TestAlternation(t *testing.T) {
	ts := []float64{3, 3, 1, 4, 4, 2, 5, 1, 1, 6, 0}

	mins, maxs := MinMaxIndexes(ts)
	if len(mins) != len(maxs) {
		t.Fatalf("MinMaxIndexes: len(mins)=%d len(maxs)=%d", len(mins), len(maxs))
	}
	for i := range mins {
		if mins[i] >= maxs[i] {
			t.Errorf("MinMaxIndexes: mins[%d]=%d not before maxs[%d]=%d", i, mins[i], i, maxs[i])
		}
	}

	maxs2, mins2 := MaxMinIndexes(ts)
	if len(maxs2) != len(mins2) {
		t.Fatalf("MaxMinIndexes: len(maxs)=%d len(mins)=%d", len(maxs2), len(mins2))
	}
	for i := range maxs2 {
		if maxs2[i] >= mins2[i] {
			t.Errorf("MaxMinIndexes: maxs[%d]=%d not before mins[%d]=%d", i, maxs2[i], i, mins2[i])
		}
	}
}

// A plateau extends the run being tracked, but only the uncommitted side
// keeps moving its index: the leading run picks the last plateau point, a
// run after a committed extremum keeps the first.
func TestPlateauAsymmetry(t *testing.T) {
	maxs, mins := MaxMinIndexes([]float64{5, 5, 3})
	if !reflect.DeepEqual(maxs, []int{1}) || !reflect.DeepEqual(mins, []int{2}) {
		t.Errorf("leading max plateau: maxs=%v mins=%v, want [1] [2]", maxs, mins)
	}

	mins2, maxs2 := MinMaxIndexes([]float64{3, 5, 5, 2})
	if !reflect.DeepEqual(mins2, []int{0}) || !reflect.DeepEqual(maxs2, []int{1}) {
		t.Errorf("committed max plateau: mins=%v maxs=%v, want [0] [1]", mins2, maxs2)
	}
}

func TestMonotonicSeries(t *testing.T) {
	// rising: one long opportunity, no short one
	mins, maxs := MinMaxIndexes([]float64{1, 2, 3})
	if !reflect.DeepEqual(mins, []int{0}) || !reflect.DeepEqual(maxs, []int{2}) {
		t.Errorf("rising MinMaxIndexes: mins=%v maxs=%v, want [0] [2]", mins, maxs)
	}
	maxs2, mins2 := MaxMinIndexes([]float64{1, 2, 3})
	if len(maxs2) != 0 || len(mins2) != 0 {
		t.Errorf("rising MaxMinIndexes: maxs=%v mins=%v, want empty", maxs2, mins2)
	}

	// falling: the mirror
	maxs3, mins3 := MaxMinIndexes([]float64{3, 2, 1})
	if !reflect.DeepEqual(maxs3, []int{0}) || !reflect.DeepEqual(mins3, []int{2}) {
		t.Errorf("falling MaxMinIndexes: maxs=%v mins=%v, want [0] [2]", maxs3, mins3)
	}
	mins4, maxs4 := MinMaxIndexes([]float64{3, 2, 1})
	if len(mins4) != 0 || len(maxs4) != 0 {
		t.Errorf("falling MinMaxIndexes: mins=%v maxs=%v, want empty", mins4, maxs4)
	}
}

func TestTinySeries(t *testing.T) {
	for _, ts := range [][]float64{nil, {5}, {5, 5}} {
		mins, maxs := MinMaxIndexes(ts)
		if len(mins) != 0 || len(maxs) != 0 {
			t.Errorf("MinMaxIndexes(%v): mins=%v maxs=%v, want empty", ts, mins, maxs)
		}
		maxs2, mins2 := MaxMinIndexes(ts)
		if len(maxs2) != 0 || len(mins2) != 0 {
			t.Errorf("MaxMinIndexes(%v): maxs=%v mins=%v, want empty", ts, maxs2, mins2)
		}
	}
}
