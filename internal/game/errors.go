package game

import "errors"

// ErrorKind buckets engine errors so transport handlers can map them to
// status codes without enumerating every sentinel.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindStateConflict
	KindNotFound
	KindResource
	KindDependencyUnavailable
	KindPersistence
)

var (
	// Validation: malformed input, rejected before any state change.
	ErrInvalidAction     = errors.New("unknown action kind")
	ErrInvalidPreference = errors.New("unknown match preference")
	ErrSelfMatch         = errors.New("cannot battle yourself")
	ErrEmptyBattleCry    = errors.New("battle cry is empty")

	// State conflicts: wrong battle/queue state for the operation.
	ErrBattleNotInProgress = errors.New("battle is not in progress")
	ErrBattleNotWaiting    = errors.New("battle is not waiting to start")
	ErrNotYourTurn         = errors.New("not this combatant's turn")
	ErrAlreadyInBattle     = errors.New("combatant already has an active battle")
	ErrAlreadyQueued       = errors.New("combatant is already in the queue")
	ErrNotAParticipant     = errors.New("combatant is not part of this battle")
	ErrOpponentUnavailable = errors.New("target is not available for a challenge")

	// Not found.
	ErrBattleNotFound    = errors.New("battle not found")
	ErrCombatantNotFound = errors.New("combatant not found")
	ErrAbilityNotFound   = errors.New("ability not found")
	ErrNotQueued         = errors.New("combatant is not in the queue")

	// Resource: insufficient mana for the requested ability.
	ErrInsufficientMana = errors.New("not enough mana")

	// DependencyUnavailable is internal to the judge fallback chain and
	// must never reach a caller of the battle service.
	ErrJudgeUnavailable = errors.New("judge unavailable")

	// ErrPersistence wraps storage failures surfaced to callers.
	ErrPersistence = errors.New("persistence failure")
)

// Kind classifies err into an ErrorKind. Wrapped errors are handled via
// errors.Is so services may annotate sentinels with context.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrInvalidAction),
		errors.Is(err, ErrInvalidPreference),
		errors.Is(err, ErrSelfMatch),
		errors.Is(err, ErrEmptyBattleCry):
		return KindValidation
	case errors.Is(err, ErrBattleNotInProgress),
		errors.Is(err, ErrBattleNotWaiting),
		errors.Is(err, ErrNotYourTurn),
		errors.Is(err, ErrAlreadyInBattle),
		errors.Is(err, ErrAlreadyQueued),
		errors.Is(err, ErrNotAParticipant),
		errors.Is(err, ErrOpponentUnavailable):
		return KindStateConflict
	case errors.Is(err, ErrBattleNotFound),
		errors.Is(err, ErrCombatantNotFound),
		errors.Is(err, ErrAbilityNotFound),
		errors.Is(err, ErrNotQueued):
		return KindNotFound
	case errors.Is(err, ErrInsufficientMana):
		return KindResource
	case errors.Is(err, ErrJudgeUnavailable):
		return KindDependencyUnavailable
	case errors.Is(err, ErrPersistence):
		return KindPersistence
	}
	return KindUnknown
}
