package game

import "testing"

func TestPoints(t *testing.T) {
	cases := []struct {
		name      string
		correct   bool
		timeTaken float64
		limit     int
		want      int
	}{
		{"instant", true, 0, 15, 1000},
		{"half time", true, 7.5, 15, 500},
		{"at limit", true, 15, 15, 0},
		{"past limit", true, 40, 15, 0},
		{"incorrect", false, 0, 15, 0},
		{"rounds", true, 1, 3, 667},
		{"no limit", true, 0, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Points(tc.correct, tc.timeTaken, tc.limit); got != tc.want {
				t.Fatalf("Points(%v, %v, %d) = %d, want %d", tc.correct, tc.timeTaken, tc.limit, got, tc.want)
			}
		})
	}
}
