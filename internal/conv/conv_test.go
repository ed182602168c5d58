package conv

import (
	"math"
	"testing"
)

func TestIntToInt8(t *testing.T) {
	tests := []struct {
		in   int
		want int8
	}{
		{-1, -1},
		{0, 0},
		{127, 127},
		{math.MinInt8, math.MinInt8},
	}
	for _, tt := range tests {
		if got := IntToInt8(tt.in); got != tt.want {
			t.Errorf("IntToInt8(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestIntToInt8Overflow(t *testing.T) {
	for _, n := range []int{128, -129, 1000} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("IntToInt8(%d) did not panic", n)
				}
			}()
			IntToInt8(n)
		}()
	}
}

func TestIntToUint32(t *testing.T) {
	if got := IntToUint32(42); got != 42 {
		t.Errorf("IntToUint32(42) = %d, want 42", got)
	}
	defer func() {
		if recover() == nil {
			t.Error("IntToUint32(-1) did not panic")
		}
	}()
	IntToUint32(-1)
}
