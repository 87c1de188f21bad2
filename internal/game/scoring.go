package game

import "math"

// MaxPoints is awarded for a correct answer given instantly.
const MaxPoints = 1000

// Points scores one answer. Correct answers decay linearly from MaxPoints at zero seconds
// to nothing at the time limit. timeTaken has no upper clamp: anything past the limit
// falls to zero through the max term, never below.
func Points(correct bool, timeTaken float64, timeLimit int) int {
	if !correct || timeLimit <= 0 {
		return 0
	}
	return int(math.Round(math.Max(0, 1-timeTaken/float64(timeLimit)) * MaxPoints))
}
