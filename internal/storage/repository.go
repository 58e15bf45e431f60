package storage

import (
	"time"

	"github.com/jaeho-jang-dr/online-text-battle/internal/game"
)

// Settlement carries everything persisted atomically when a battle
// reaches a terminal state. ResultA is the outcome from side A's
// perspective; side B's is the mirror.
type Settlement struct {
	Battle     *game.Battle
	CombatantA *game.Combatant
	CombatantB *game.Combatant
	ResultA    game.BattleResult
	ReplayLog  string
}

// ArenaStats aggregates battle activity for the public stats endpoint.
type ArenaStats struct {
	TotalBattles  int64   `json:"total_battles"`
	ActiveBattles int64   `json:"active_battles"`
	FinishedToday int64   `json:"finished_today"`
	AverageTurns  float64 `json:"average_turns"`
}

type Repository interface {
	// Abilities
	GetAbilities() ([]game.Ability, error)
	GetAbilityByName(name string) (*game.Ability, error)

	// Combatants
	CreateCombatant(c *game.Combatant) error
	GetCombatantByID(id uint) (*game.Combatant, error)
	GetCombatantsByUser(email string) ([]game.Combatant, error)
	GetCombatantsByIDs(ids []uint) ([]game.Combatant, error)
	UpdateCombatant(c *game.Combatant) error
	// DeleteCombatant soft-deletes the combatant and its queue entry.
	// It fails with game.ErrAlreadyInBattle while any non-terminal
	// battle references the combatant.
	DeleteCombatant(id uint) error
	ListBots() ([]game.Combatant, error)

	// Queue
	Enqueue(e *game.QueueEntry) error
	GetQueueEntry(combatantID uint) (*game.QueueEntry, error)
	RemoveQueueEntry(combatantID uint) error
	// ListQueue returns open entries ordered oldest first.
	ListQueue() ([]game.QueueEntry, error)

	// Battles
	CreateBattle(b *game.Battle) error
	GetBattleByID(id uint) (*game.Battle, error)
	UpdateBattle(b *game.Battle) error
	AppendAction(a *game.Action) error
	// FindActiveBattle returns the combatant's current non-terminal
	// battle, or game.ErrBattleNotFound when there is none.
	FindActiveBattle(combatantID uint) (*game.Battle, error)
	// FindTimedOutBattles returns in-progress battles whose action
	// deadline is at or before now.
	FindTimedOutBattles(now time.Time) ([]game.Battle, error)
	ListFinishedBattles(combatantID uint, limit int) ([]game.Battle, error)
	BattleStats() (*ArenaStats, error)

	// SettleBattle persists the terminal battle, both combatants (rating
	// floored at zero), the ranking deltas, the rank recomputation and
	// the replay snapshot in a single transaction.
	SettleBattle(s Settlement) error

	// Rankings
	GetLeaderboard(limit, offset int) ([]game.RankingRow, error)
	GetRankingRow(combatantID uint) (*game.RankingRow, error)
	// GetNearbyRows returns rows ranked within span positions of the
	// given combatant, ordered by rank.
	GetNearbyRows(combatantID uint, span int) ([]game.RankingRow, error)
	// RecentResults returns the combatant's latest settled outcomes,
	// newest first.
	RecentResults(combatantID uint, limit int) ([]game.BattleResult, error)

	// Replays
	GetReplay(battleID uint) (*game.ReplaySnapshot, error)
}
