package judge

import (
	"context"
	"math/rand"
	"sync"

	"github.com/jaeho-jang-dr/online-text-battle/internal/engine"
	"github.com/jaeho-jang-dr/online-text-battle/internal/logging"
	"golang.org/x/sync/singleflight"
)

// Heuristic is the deterministic-ish fallback judge built on the engine
// scorer. It never fails, so battles can always settle.
type Heuristic struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewHeuristic(rng *rand.Rand) *Heuristic {
	return &Heuristic{rng: rng}
}

func (h *Heuristic) Probe(ctx context.Context) error { return nil }

func (h *Heuristic) Judge(ctx context.Context, textA, textB string) (Judgment, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	scoreA, scoreB := engine.ScorePair(h.rng, textA, textB)
	winner := engine.PickWinner(h.rng, scoreA, scoreB)
	return Judgment{
		Winner: winner,
		ScoreA: scoreA,
		ScoreB: scoreB,
		Reason: "Judged on overall expressiveness and impact",
	}, nil
}

// probeGroup deduplicates concurrent liveness probes so a burst of
// one-shot battles does not hammer the oracle with identical checks.
var probeGroup singleflight.Group

// Fallback routes judgments to a primary oracle when its probe
// succeeds, and to the fallback otherwise. Call failures after a
// successful probe also fall back; the unavailability never reaches the
// caller.
type Fallback struct {
	primary  Judge
	fallback Judge
}

func WithFallback(primary, fallback Judge) *Fallback {
	return &Fallback{primary: primary, fallback: fallback}
}

func (f *Fallback) Probe(ctx context.Context) error { return nil }

func (f *Fallback) Judge(ctx context.Context, textA, textB string) (Judgment, error) {
	if f.primary != nil {
		_, probeErr, _ := probeGroup.Do("oracle-probe", func() (interface{}, error) {
			return nil, f.primary.Probe(ctx)
		})
		if probeErr == nil {
			j, err := f.primary.Judge(ctx, textA, textB)
			if err == nil {
				return j, nil
			}
			logging.Error("oracle judgment failed; using heuristic", err, nil)
		} else {
			logging.Warn("oracle unavailable; using heuristic", probeErr, nil)
		}
	}
	return f.fallback.Judge(ctx, textA, textB)
}
