package battle

import (
	"math/rand"

	"github.com/jaeho-jang-dr/online-text-battle/internal/engine"
	"github.com/jaeho-jang-dr/online-text-battle/internal/events"
	"github.com/jaeho-jang-dr/online-text-battle/internal/game"
	"github.com/jaeho-jang-dr/online-text-battle/internal/logging"
)

// SubmitAction applies one action for the combatant whose turn it is
// and advances or settles the battle. abilityID is only consulted for
// ability actions and must be one of the actor's learned abilities.
func (s *Service) SubmitAction(battleID, actorID uint, kind game.ActionKind, abilityID uint) (*game.Battle, error) {
	lock := s.lockFor(battleID)
	lock.Lock()
	defer lock.Unlock()
	return s.submitLocked(battleID, actorID, kind, abilityID)
}

func (s *Service) submitLocked(battleID, actorID uint, kind game.ActionKind, abilityID uint) (*game.Battle, error) {
	b, err := s.repo.GetBattleByID(battleID)
	if err != nil {
		return nil, err
	}
	if b.Status != game.StatusInProgress {
		return nil, game.ErrBattleNotInProgress
	}
	if b.CombatantAID != actorID && b.CombatantBID != actorID {
		return nil, game.ErrNotAParticipant
	}
	if b.TurnOf() != actorID {
		return nil, game.ErrNotYourTurn
	}

	a, d, err := s.sides(b)
	if err != nil {
		return nil, err
	}
	actor, defender := a, d
	if actorID == b.CombatantBID {
		actor, defender = d, a
	}

	if kind == game.ActionSurrender {
		return b, s.surrenderLocked(b, a, d, defender.ID)
	}

	var ability *game.Ability
	abilityLevel := 1
	if kind == game.ActionAbility {
		for i := range actor.Abilities {
			if actor.Abilities[i].AbilityID == abilityID {
				ability = &actor.Abilities[i].Ability
				abilityLevel = actor.Abilities[i].Level
				break
			}
		}
		if ability == nil {
			return nil, game.ErrAbilityNotFound
		}
	}

	var out engine.Outcome
	var resolveErr error
	s.roll(func(rng *rand.Rand) {
		out, resolveErr = engine.Resolve(rng, kind, actor, ability, abilityLevel, defender)
	})
	if resolveErr != nil {
		return nil, resolveErr
	}

	defender.Health -= out.Damage
	if defender.Health < 0 {
		defender.Health = 0
	}
	actor.Health += out.Healing
	actor.Mana -= out.ManaSpent
	if out.SetsGuard {
		actor.Guarding = true
	}
	if out.ConsumedGuard {
		defender.Guarding = false
	}

	action := game.Action{
		BattleID:   b.ID,
		ActorID:    actor.ID,
		TargetID:   defender.ID,
		Kind:       kind,
		Damage:     out.Damage,
		Healing:    out.Healing,
		ManaSpent:  out.ManaSpent,
		TurnNumber: b.CurrentTurn,
	}
	if ability != nil {
		id := ability.ID
		action.AbilityID = &id
	}
	if err := s.repo.AppendAction(&action); err != nil {
		return nil, err
	}
	b.Actions = append(b.Actions, action)
	b.TurnCount++
	b.CurrentTurn++

	if winner, done := s.terminal(b, a, d); done {
		return b, s.settle(b, a, d, winner, false)
	}

	s.armDeadline(b)
	if err := s.repo.UpdateCombatant(actor); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateCombatant(defender); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateBattle(b); err != nil {
		return nil, err
	}
	s.notify.Notify(events.Event{Kind: events.BattleUpdated, BattleID: b.ID, CombatantID: actorID})
	return b, nil
}

// terminal decides whether the battle is over. A knockout wins
// outright; at the turn cap the side with the higher remaining health
// ratio wins, and equal ratios draw.
func (s *Service) terminal(b *game.Battle, a, d *game.Combatant) (*uint, bool) {
	switch {
	case a.Health <= 0 && d.Health <= 0:
		return nil, true
	case d.Health <= 0:
		id := a.ID
		return &id, true
	case a.Health <= 0:
		id := d.ID
		return &id, true
	}
	if b.TurnCount < maxTurns {
		return nil, false
	}
	ratioA := healthRatio(a)
	ratioB := healthRatio(d)
	switch {
	case ratioA > ratioB:
		id := a.ID
		return &id, true
	case ratioB > ratioA:
		id := d.ID
		return &id, true
	}
	return nil, true
}

func healthRatio(c *game.Combatant) float64 {
	if c.MaxHealth <= 0 {
		return 0
	}
	return float64(c.Health) / float64(c.MaxHealth)
}

// Surrender concedes the battle to the opponent.
func (s *Service) Surrender(battleID, actorID uint) (*game.Battle, error) {
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
	if b.CombatantAID != actorID && b.CombatantBID != actorID {
		return nil, game.ErrNotAParticipant
	}
	a, d, err := s.sides(b)
	if err != nil {
		return nil, err
	}
	return b, s.surrenderLocked(b, a, d, b.Opponent(actorID))
}

func (s *Service) surrenderLocked(b *game.Battle, a, d *game.Combatant, winnerID uint) error {
	loserID := b.Opponent(winnerID)
	action := game.Action{
		BattleID:   b.ID,
		ActorID:    loserID,
		TargetID:   winnerID,
		Kind:       game.ActionSurrender,
		TurnNumber: b.CurrentTurn,
	}
	if err := s.repo.AppendAction(&action); err != nil {
		return err
	}
	b.Actions = append(b.Actions, action)
	b.TurnCount++
	logging.Info("combatant surrendered", logging.Fields{"battle_id": b.ID, "combatant_id": loserID})
	return s.settle(b, a, d, &winnerID, true)
}
