// Package scoring computes time-decayed points for correct answers.
package scoring

import (
	"math"
	"time"
)

const (
	MaxPoints = 500
	MinPoints = 250

	// HintPenalty is deducted from a player's score for every hint used.
	HintPenalty = 100
)

// ComponentPoints returns the points for a single correct component (artist or
// title) given how far into the round it was answered.
func ComponentPoints(elapsed, total time.Duration) int {
	return PointsForSeconds(elapsed.Seconds(), total.Seconds())
}

// PointsForSeconds is ComponentPoints on float seconds. Answers inside the
// first tenth of the round earn MaxPoints; after that the value falls
// linearly to MinPoints at the end of the round and is rounded up.
func PointsForSeconds(elapsed, total float64) int {
	if total <= 0 {
		return MaxPoints
	}
	if elapsed < 0 {
		elapsed = 0
	}
	grace := total / 10
	if elapsed <= grace {
		return MaxPoints
	}
	window := total - grace
	lost := float64(MaxPoints-MinPoints) * (elapsed - grace) / window
	points := int(math.Ceil(MaxPoints - lost))
	if points < MinPoints {
		return MinPoints
	}
	if points > MaxPoints {
		return MaxPoints
	}
	return points
}
