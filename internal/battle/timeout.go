package battle

import (
	"time"

	"github.com/jaeho-jang-dr/online-text-battle/internal/game"
	"github.com/jaeho-jang-dr/online-text-battle/internal/logging"
)

// SubmitDefault plays an attack for whichever combatant holds the turn.
// The timeout scanner uses it so an absent player forfeits tempo, not
// the whole battle.
func (s *Service) SubmitDefault(battleID uint) (*game.Battle, error) {
	lock := s.lockFor(battleID)
	lock.Lock()
	defer lock.Unlock()

	b, err := s.repo.GetBattleByID(battleID)
	if err != nil {
		return nil, err
	}
	if b.Status != game.StatusInProgress {
		return nil, game.ErrBattleNotInProgress
	}
	return s.submitLocked(battleID, b.TurnOf(), game.ActionAttack, 0)
}

// AbandonPractice cancels the combatant's open practice battle, if
// any, and sends both sides home restored. Called when a real match
// supersedes the warm-up.
func (s *Service) AbandonPractice(combatantID uint) error {
	b, err := s.repo.FindActiveBattle(combatantID)
	if err != nil || !b.IsPractice {
		return nil
	}
	lock := s.lockFor(b.ID)
	lock.Lock()
	defer lock.Unlock()

	if b.Status.Terminal() {
		return nil
	}
	now := time.Now()
	b.Status = game.StatusCancelled
	b.FinishedAt = &now
	b.ActionDeadline = time.Time{}
	if err := s.repo.UpdateBattle(b); err != nil {
		return err
	}
	a, d, err := s.sides(b)
	if err != nil {
		return err
	}
	for _, c := range []*game.Combatant{a, d} {
		c.Health = c.MaxHealth
		c.Mana = c.MaxMana
		c.Guarding = false
		if err := s.repo.UpdateCombatant(c); err != nil {
			return err
		}
	}
	logging.Info("practice battle abandoned", logging.Fields{"battle_id": b.ID, "combatant_id": combatantID})
	return nil
}

// ScanTimeouts auto-plays every in-progress battle whose action
// deadline has passed. Failures are logged per battle and do not stop
// the scan.
func (s *Service) ScanTimeouts(now time.Time) {
	battles, err := s.repo.FindTimedOutBattles(now)
	if err != nil {
		logging.Error("failed to scan for timed out battles", err, nil)
		return
	}
	for i := range battles {
		b := &battles[i]
		logging.Info("turn timed out; auto-playing attack", logging.Fields{
			"battle_id":    b.ID,
			"combatant_id": b.TurnOf(),
		})
		if _, err := s.SubmitDefault(b.ID); err != nil {
			logging.Error("failed to auto-play timed out battle", err, logging.Fields{"battle_id": b.ID})
		}
	}
}
