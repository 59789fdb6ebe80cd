package progress

import "testing"

func TestColumn(t *testing.T) {
	tests := []struct {
		x, w, span, offset, want int
	}{
		{0, 10, 100, 0, 0},
		{9, 10, 100, 0, 90},
		{1, 3, 100, 0, 33},
		{2, 3, 50, 50, 83},
		{0, 1, 50, 50, 50},
		{3, 4, 50, 0, 37},
	}
	for _, tt := range tests {
		if got := Column(tt.x, tt.w, tt.span, tt.offset); got != tt.want {
			t.Errorf("Column(%d,%d,%d,%d) = %d, want %d", tt.x, tt.w, tt.span, tt.offset, got, tt.want)
		}
	}
}

func TestColumn_NonDecreasing(t *testing.T) {
	for _, w := range []int{1, 2, 7, 100, 1013} {
		prev := -1
		for x := 0; x < w; x++ {
			p := Column(x, w, 50, 50)
			if p < prev || p < 50 || p >= 100 {
				t.Fatalf("w=%d x=%d: got %d after %d", w, x, p, prev)
			}
			prev = p
		}
	}
}
