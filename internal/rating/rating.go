// Package rating implements the Elo skill-rating adjustment applied when
// a battle settles. It is pure: no persistence, no randomness, integer
// in, integer out.
package rating

import "math"

// DefaultK is the K-factor used when none is configured.
const DefaultK = 32

type Calculator struct {
	k float64
}

// NewCalculator returns a calculator with the given K-factor. Values
// <= 0 fall back to DefaultK.
func NewCalculator(k int) Calculator {
	if k <= 0 {
		k = DefaultK
	}
	return Calculator{k: float64(k)}
}

// expected is the logistic expected score of `self` against `opp`.
func expected(self, opp int) float64 {
	return 1 / (1 + math.Pow(10, float64(opp-self)/400))
}

// Update returns the new ratings after a decisive result. The first
// return value is the winner's new rating.
func (c Calculator) Update(winner, loser int) (int, int) {
	newWinner := int(math.Round(float64(winner) + c.k*(1-expected(winner, loser))))
	newLoser := int(math.Round(float64(loser) + c.k*(0-expected(loser, winner))))
	return newWinner, newLoser
}

// Draw returns the new ratings after a drawn result: both sides score
// 0.5, so equal ratings are left unchanged and the lower-rated side
// gains at the higher-rated side's expense.
func (c Calculator) Draw(a, b int) (int, int) {
	newA := int(math.Round(float64(a) + c.k*(0.5-expected(a, b))))
	newB := int(math.Round(float64(b) + c.k*(0.5-expected(b, a))))
	return newA, newB
}
