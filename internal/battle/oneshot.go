package battle

import (
	"context"

	"github.com/jaeho-jang-dr/online-text-battle/internal/game"
	"github.com/jaeho-jang-dr/online-text-battle/internal/judge"
	"github.com/jaeho-jang-dr/online-text-battle/internal/logging"
)

// ResolveOneShot settles a one-shot battle from the two stored battle
// cries in a single judged exchange. Either participant may trigger it
// from the waiting or in-progress state.
func (s *Service) ResolveOneShot(ctx context.Context, battleID, requesterID uint) (*game.Battle, error) {
	lock := s.lockFor(battleID)
	lock.Lock()
	defer lock.Unlock()

	b, err := s.repo.GetBattleByID(battleID)
	if err != nil {
		return nil, err
	}
	if b.Mode != game.ModeOneShot {
		return nil, game.ErrInvalidAction
	}
	if b.Status != game.StatusWaiting && b.Status != game.StatusInProgress {
		return nil, game.ErrBattleNotInProgress
	}
	if b.CombatantAID != requesterID && b.CombatantBID != requesterID {
		return nil, game.ErrNotAParticipant
	}

	a, d, err := s.sides(b)
	if err != nil {
		return nil, err
	}
	if err := judge.Validate(a.BattleCry, d.BattleCry); err != nil {
		return nil, err
	}

	j, err := s.judge.Judge(ctx, a.BattleCry, d.BattleCry)
	if err != nil {
		// The fallback chain makes this unreachable in practice, but a
		// mis-wired judge must not leave the battle stuck.
		return nil, err
	}

	b.Status = game.StatusInProgress
	b.ScoreA = j.ScoreA
	b.ScoreB = j.ScoreB
	b.JudgeReason = j.Reason
	b.TurnCount = 1

	winnerID := a.ID
	if j.Winner == 1 {
		winnerID = d.ID
	}
	logging.Info("one-shot battle judged", logging.Fields{
		"battle_id": b.ID,
		"winner_id": winnerID,
		"score_a":   j.ScoreA,
		"score_b":   j.ScoreB,
	})
	return b, s.settle(b, a, d, &winnerID, false)
}
