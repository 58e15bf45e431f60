package engine

import (
	"math"
	"math/rand"
	"strings"
)

// Vocabulary rewarded by the heuristic scorer. Power words weigh more
// than spirit words.
var (
	powerWords  = []string{"victory", "conquer", "strongest", "invincible", "legend", "master", "champion", "hero", "genius"}
	spiritWords = []string{"passion", "fury", "will", "resolve", "courage", "faith"}
)

// ScorePair rates two battle cries with the heuristic used when the
// judging oracle is unavailable: length, power vocabulary, exclamation
// density, lexical diversity and a small random jitter. Scores are
// non-negative integers.
func ScorePair(rng *rand.Rand, textA, textB string) (int, int) {
	return scoreText(rng, textA), scoreText(rng, textB)
}

func scoreText(rng *rand.Rand, text string) int {
	var score float64

	// Length, capped so walls of text stop paying off.
	score += math.Min(float64(len(text))/10, 10)

	lower := strings.ToLower(text)
	for _, w := range powerWords {
		if strings.Contains(lower, w) {
			score += 3
		}
	}
	for _, w := range spiritWords {
		if strings.Contains(lower, w) {
			score += 2
		}
	}

	score += float64(strings.Count(text, "!")) * 1.5

	unique := make(map[string]struct{})
	for _, w := range strings.Fields(lower) {
		unique[w] = struct{}{}
	}
	score += float64(len(unique)) * 0.5

	score += rng.Float64() * 5

	return int(math.Round(score))
}

// PickWinner returns 0 when side A wins and 1 when side B wins. Exact
// ties are broken uniformly at random.
func PickWinner(rng *rand.Rand, scoreA, scoreB int) int {
	switch {
	case scoreA > scoreB:
		return 0
	case scoreB > scoreA:
		return 1
	}
	return rng.Intn(2)
}
