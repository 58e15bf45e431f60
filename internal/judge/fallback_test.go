package judge

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/jaeho-jang-dr/online-text-battle/internal/game"
)

type stubJudge struct {
	probeErr error
	judgment Judgment
	judgeErr error
	calls    int
}

func (s *stubJudge) Probe(ctx context.Context) error { return s.probeErr }

func (s *stubJudge) Judge(ctx context.Context, a, b string) (Judgment, error) {
	s.calls++
	return s.judgment, s.judgeErr
}

func TestFallbackPrefersHealthyOracle(t *testing.T) {
	oracle := &stubJudge{judgment: Judgment{Winner: 1, ScoreA: 40, ScoreB: 90, Reason: "overwhelming"}}
	f := WithFallback(oracle, NewHeuristic(rand.New(rand.NewSource(1))))

	j, err := f.Judge(context.Background(), "a", "b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if j.Winner != 1 || j.Reason != "overwhelming" {
		t.Fatalf("expected oracle judgment, got %+v", j)
	}
	if oracle.calls != 1 {
		t.Fatalf("oracle should be called once, got %d", oracle.calls)
	}
}

func TestFallbackOnProbeFailure(t *testing.T) {
	oracle := &stubJudge{probeErr: game.ErrJudgeUnavailable}
	f := WithFallback(oracle, NewHeuristic(rand.New(rand.NewSource(1))))

	j, err := f.Judge(context.Background(), "hello there friend", "victory is mine! the invincible champion rises!")
	if err != nil {
		t.Fatalf("fallback must never surface unavailability, got %v", err)
	}
	if oracle.calls != 0 {
		t.Fatalf("oracle must not be called after a failed probe")
	}
	if j.ScoreA < 0 || j.ScoreB < 0 {
		t.Fatalf("heuristic scores must be non-negative: %+v", j)
	}
}

func TestFallbackOnCallFailure(t *testing.T) {
	oracle := &stubJudge{judgeErr: errors.New("model exploded")}
	f := WithFallback(oracle, NewHeuristic(rand.New(rand.NewSource(1))))

	if _, err := f.Judge(context.Background(), "a", "b"); err != nil {
		t.Fatalf("call failure must fall back, got %v", err)
	}
}

func TestValidateRejectsEmptyCry(t *testing.T) {
	if err := Validate("", "b"); !errors.Is(err, game.ErrEmptyBattleCry) {
		t.Fatalf("expected ErrEmptyBattleCry, got %v", err)
	}
	if err := Validate("a", "b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
