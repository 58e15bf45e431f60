// Package judge scores one-shot text battles. The primary implementation
// asks an external Ollama model; a heuristic fallback guarantees a
// judgment even when the model is unreachable.
package judge

import (
	"context"

	"github.com/jaeho-jang-dr/online-text-battle/internal/game"
)

// Judgment is the outcome of scoring two battle cries. Winner is 0 for
// side A and 1 for side B.
type Judgment struct {
	Winner int
	ScoreA int
	ScoreB int
	Reason string
}

// Judge evaluates two battle cries. Probe reports whether the backing
// service is currently usable; implementations that cannot fail (the
// heuristic) return nil.
type Judge interface {
	Probe(ctx context.Context) error
	Judge(ctx context.Context, textA, textB string) (Judgment, error)
}

// Validate rejects empty submissions before any judging happens.
func Validate(textA, textB string) error {
	if textA == "" || textB == "" {
		return game.ErrEmptyBattleCry
	}
	return nil
}
