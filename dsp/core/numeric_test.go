package core

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		v, lo, hi, want float64
	}{
		{v: 5, lo: 0, hi: 100, want: 5},
		{v: -1, lo: 0, hi: 100, want: 0},
		{v: 101, lo: 0, hi: 100, want: 100},
		{v: 100, lo: 0, hi: 100, want: 100},
	}

	for _, tc := range tests {
		if got := Clamp(tc.v, tc.lo, tc.hi); got != tc.want {
			t.Fatalf("Clamp(%v, %v, %v) = %v, want %v", tc.v, tc.lo, tc.hi, got, tc.want)
		}
	}
}

func TestLinearToDB(t *testing.T) {
	if got := LinearToDB(1); got != 0 {
		t.Fatalf("LinearToDB(1) = %v", got)
	}

	if got := LinearToDB(0.5); math.Abs(got+6.0206) > 1e-4 {
		t.Fatalf("LinearToDB(0.5) = %v", got)
	}

	if !math.IsInf(LinearToDB(0), -1) {
		t.Fatal("LinearToDB(0) should be -Inf")
	}

	if !math.IsNaN(LinearToDB(-1)) {
		t.Fatal("LinearToDB(-1) should be NaN")
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(75); got != 0.75 {
		t.Fatalf("Percent(75) = %v", got)
	}
}
