package testutil

import (
	"math"
	"testing"
)

func TestMaxAbsDiff(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 0},
		{"one sample off", []float64{1, 2, 3}, []float64{1, 2.5, 3}, 0.5},
		{"sign", []float64{-1, 0}, []float64{1, 0}, 2},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaxAbsDiff(tt.a, tt.b); got != tt.want {
				t.Fatalf("MaxAbsDiff = %v, want %v", got, tt.want)
			}
		})
	}

	if !math.IsInf(MaxAbsDiff([]float64{1}, []float64{1, 2}), 1) {
		t.Fatal("length mismatch should report +Inf")
	}
}

func TestRequireHelpersAcceptMatchingData(t *testing.T) {
	a := []float64{0.25, -1.2, 0}

	RequireIdentical(t, a, []float64{0.25, -1.2, 0})
	RequireBounded(t, a, 1.2)
	RequireFinite(t, a)
	RequireSliceNearlyEqual(t, a, []float64{0.25, -1.2, 1e-12}, 1e-9)
	RequireSliceNearlyEqual(t, nil, nil, 0)
}
