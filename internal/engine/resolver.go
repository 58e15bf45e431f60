// Package engine computes the numeric effect of combat actions. All
// functions are pure given the *rand.Rand passed in, so battles are
// replayable from a seed.
package engine

import (
	"math"
	"math/rand"

	"github.com/jaeho-jang-dr/online-text-battle/internal/game"
)

// levelBonus is the flat effect increase per ability level above 1.
const levelBonus = 5

// Outcome is the resolved effect of one action. All values are
// non-negative integers; the caller applies them to persisted state.
type Outcome struct {
	Damage    int
	Healing   int
	ManaSpent int
	// SetsGuard marks a defend action: the actor takes halved damage
	// from the next incoming hit.
	SetsGuard bool
	// ConsumedGuard reports that the defender's guard absorbed part of
	// this hit and must be cleared.
	ConsumedGuard bool
}

// Resolve computes the outcome of an action without mutating either
// combatant. ability and abilityLevel are only consulted for
// game.ActionAbility.
func Resolve(rng *rand.Rand, kind game.ActionKind, actor *game.Combatant, ability *game.Ability, abilityLevel int, defender *game.Combatant) (Outcome, error) {
	switch kind {
	case game.ActionAttack:
		dmg := int(math.Floor(float64(actor.Attack) * (0.8 + rng.Float64()*0.4)))
		return mitigated(dmg, defender), nil

	case game.ActionAbility:
		if ability == nil {
			return Outcome{}, game.ErrAbilityNotFound
		}
		if actor.Mana < ability.ManaCost {
			return Outcome{}, game.ErrInsufficientMana
		}
		if abilityLevel < 1 {
			abilityLevel = 1
		}
		out := Outcome{ManaSpent: ability.ManaCost}
		switch ability.Kind {
		case game.AbilityAttack:
			dmg := ability.Damage + (abilityLevel-1)*levelBonus
			hit := mitigated(dmg, defender)
			out.Damage = hit.Damage
			out.ConsumedGuard = hit.ConsumedGuard
		case game.AbilityHeal:
			heal := ability.HealAmount + (abilityLevel-1)*levelBonus
			missing := actor.MaxHealth - actor.Health
			if heal > missing {
				heal = missing
			}
			if heal < 0 {
				heal = 0
			}
			out.Healing = heal
		default:
			// defense/buff/debuff abilities spend mana only; their
			// lingering effects live on the combatant row.
		}
		return out, nil

	case game.ActionDefend:
		return Outcome{SetsGuard: true}, nil
	}
	return Outcome{}, game.ErrInvalidAction
}

// mitigated applies the defender's defense (half, floored) with a hard
// minimum of 1 damage, then the guard halving if the defender is
// guarding.
func mitigated(raw int, defender *game.Combatant) Outcome {
	dmg := raw - defender.Defense/2
	if dmg < 1 {
		dmg = 1
	}
	out := Outcome{Damage: dmg}
	if defender.Guarding {
		out.Damage = dmg / 2
		if out.Damage < 1 {
			out.Damage = 1
		}
		out.ConsumedGuard = true
	}
	return out
}
