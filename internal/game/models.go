package game

import (
	"time"

	"gorm.io/gorm"
)

// Combatant is a player- or bot-controlled entity that participates in
// battles. Stats are mutated only by the battle service (and by the
// owner's rename action); Rating follows the Elo adjustments applied at
// settlement.
type Combatant struct {
	gorm.Model
	UserEmail string `json:"-" gorm:"index"`
	Name      string `json:"name" gorm:"size:40"`
	Level     int    `json:"level"`
	Health    int    `json:"health"`
	MaxHealth int    `json:"max_health"`
	Mana      int    `json:"mana"`
	MaxMana   int    `json:"max_mana"`
	Attack    int    `json:"attack"`
	Defense   int    `json:"defense"`
	Speed     int    `json:"speed"`
	// Experience accumulates across battles (100 win / 50 loss / 75 draw).
	Experience int `json:"experience"`
	Rating     int `json:"rating" gorm:"default:1200"`
	// BattleCry is the pre-written submission used in one-shot text battles.
	BattleCry string `json:"battle_cry" gorm:"size:500"`
	// Guarding is set by a defend action and halves the next incoming hit.
	Guarding bool `json:"guarding"`
	IsBot    bool `json:"is_bot"`

	Abilities []CombatantAbility `json:"abilities"`
}

// Ability is a global, runtime-immutable effect template seeded from the
// config file. Combatants reference abilities through CombatantAbility
// with a per-combatant level.
type Ability struct {
	gorm.Model
	Name       string      `json:"name" gorm:"uniqueIndex;size:40"`
	ManaCost   int         `json:"mana_cost"`
	Damage     int         `json:"damage"`
	HealAmount int         `json:"heal_amount"`
	Cooldown   int         `json:"cooldown"`
	Kind       AbilityKind `json:"kind" gorm:"size:16"`
}

type AbilityKind string

const (
	AbilityAttack  AbilityKind = "attack"
	AbilityHeal    AbilityKind = "heal"
	AbilityDefense AbilityKind = "defense"
	AbilityBuff    AbilityKind = "buff"
	AbilityDebuff  AbilityKind = "debuff"
)

// CombatantAbility links a combatant to an ability at a given level.
type CombatantAbility struct {
	gorm.Model
	CombatantID uint    `json:"-" gorm:"index"`
	AbilityID   uint    `json:"ability_id"`
	Ability     Ability `json:"ability"`
	Level       int     `json:"level"`
}

func (CombatantAbility) TableName() string { return "combatant_abilities" }

// MatchPreference selects the opponent-search strategy used by the queue.
type MatchPreference string

const (
	PreferRandom        MatchPreference = "random"
	PreferSimilarRating MatchPreference = "similar_rating"
	PreferLeaderboard   MatchPreference = "leaderboard"
)

// QueueEntry is a combatant's open request to be matched. At most one
// entry may exist per combatant (uniqueIndex); entries are deleted on
// match or cancel.
type QueueEntry struct {
	gorm.Model
	CombatantID uint            `json:"combatant_id" gorm:"uniqueIndex"`
	Rating      int             `json:"rating"`
	Preference  MatchPreference `json:"preference" gorm:"size:16"`
	EnqueuedAt  time.Time       `json:"enqueued_at"`
}

func (QueueEntry) TableName() string { return "battle_queue" }

type BattleStatus string

const (
	StatusWaiting    BattleStatus = "waiting"
	StatusInProgress BattleStatus = "in_progress"
	StatusFinished   BattleStatus = "finished"
	StatusCancelled  BattleStatus = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s BattleStatus) Terminal() bool {
	return s == StatusFinished || s == StatusCancelled
}

type BattleMode string

const (
	// ModeTurns is the standard alternating-turn battle.
	ModeTurns BattleMode = "turns"
	// ModeOneShot resolves a battle from the two pre-written battle cries
	// in a single judged exchange.
	ModeOneShot BattleMode = "oneshot"
)

// Battle holds one battle's lifecycle state. A combatant may appear in
// at most one non-terminal battle at a time.
type Battle struct {
	gorm.Model
	CombatantAID uint      `json:"combatant_a_id" gorm:"index"`
	CombatantA   Combatant `json:"combatant_a" gorm:"foreignKey:CombatantAID"`
	CombatantBID uint      `json:"combatant_b_id" gorm:"index"`
	CombatantB   Combatant `json:"combatant_b" gorm:"foreignKey:CombatantBID"`

	Status BattleStatus `json:"status" gorm:"size:16;index"`
	Mode   BattleMode   `json:"mode" gorm:"size:16"`
	// TurnCount is the number of actions applied so far; CurrentTurn is
	// 1-based and its parity decides whose turn it is (odd = side A).
	TurnCount   int   `json:"turn_count"`
	CurrentTurn int   `json:"current_turn"`
	WinnerID    *uint `json:"winner_id"`

	RatingABefore int `json:"rating_a_before"`
	RatingAAfter  int `json:"rating_a_after"`
	RatingBBefore int `json:"rating_b_before"`
	RatingBAfter  int `json:"rating_b_after"`

	// IsPractice marks battles synthesized against a bot while the
	// requester stays in the live queue.
	IsPractice bool `json:"is_practice"`

	// One-shot mode judgment details.
	JudgeReason string `json:"judge_reason,omitempty" gorm:"size:256"`
	ScoreA      int    `json:"score_a"`
	ScoreB      int    `json:"score_b"`

	ActionDeadline time.Time  `json:"action_deadline"`
	FinishedAt     *time.Time `json:"finished_at"`

	Actions []Action `json:"actions"`
}

// Opponent returns the other participant's ID, or 0 when the given
// combatant is not a participant.
func (b *Battle) Opponent(combatantID uint) uint {
	switch combatantID {
	case b.CombatantAID:
		return b.CombatantBID
	case b.CombatantBID:
		return b.CombatantAID
	}
	return 0
}

// TurnOf returns the combatant whose turn it is (odd turns belong to
// side A).
func (b *Battle) TurnOf() uint {
	if b.CurrentTurn%2 == 1 {
		return b.CombatantAID
	}
	return b.CombatantBID
}

type ActionKind string

const (
	ActionAttack    ActionKind = "attack"
	ActionAbility   ActionKind = "ability"
	ActionDefend    ActionKind = "defend"
	ActionSurrender ActionKind = "surrender"
)

// Action is an append-only record of one combat action. Rows are never
// mutated once written.
type Action struct {
	gorm.Model
	BattleID   uint       `json:"battle_id" gorm:"index"`
	ActorID    uint       `json:"actor_id"`
	TargetID   uint       `json:"target_id"`
	Kind       ActionKind `json:"kind" gorm:"size:16"`
	AbilityID  *uint      `json:"ability_id"`
	Damage     int        `json:"damage"`
	Healing    int        `json:"healing"`
	ManaSpent  int        `json:"mana_spent"`
	TurnNumber int        `json:"turn_number"`
}

func (Action) TableName() string { return "battle_actions" }

// RankingRow is the denormalized leaderboard row for one combatant,
// maintained incrementally at settlement.
type RankingRow struct {
	gorm.Model
	CombatantID uint `json:"combatant_id" gorm:"uniqueIndex"`
	Wins        int  `json:"wins"`
	Losses      int  `json:"losses"`
	Draws       int  `json:"draws"`
	Points      int  `json:"points"`
	Rank        int  `json:"rank"`
}

func (RankingRow) TableName() string { return "rankings" }

// TotalBattles is the number of settled battles counted for this row.
func (r RankingRow) TotalBattles() int { return r.Wins + r.Losses + r.Draws }

// WinRate is the percentage of settled battles won, rounded to two
// decimals, 0 when no battles were played.
func (r RankingRow) WinRate() float64 {
	total := r.TotalBattles()
	if total == 0 {
		return 0
	}
	return float64(int(float64(r.Wins)*10000/float64(total)+0.5)) / 100
}

// ReplaySnapshot stores the serialized action log of a settled battle.
type ReplaySnapshot struct {
	gorm.Model
	BattleID uint   `json:"battle_id" gorm:"uniqueIndex"`
	Log      string `json:"log" gorm:"type:text"`
}

func (ReplaySnapshot) TableName() string { return "battle_replays" }

// BattleResult classifies one combatant's outcome in a settled battle.
type BattleResult string

const (
	ResultWin  BattleResult = "win"
	ResultLoss BattleResult = "loss"
	ResultDraw BattleResult = "draw"
)

// RecentForm classifies a combatant's last five settled battles.
type RecentForm string

const (
	FormWinning RecentForm = "winning"
	FormLosing  RecentForm = "losing"
	FormStable  RecentForm = "stable"
	FormNew     RecentForm = "new"
)
