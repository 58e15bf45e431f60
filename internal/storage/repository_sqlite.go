package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jaeho-jang-dr/online-text-battle/internal/game"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type sqliteRepository struct {
	db *gorm.DB
}

func NewSQLiteRepository(db *gorm.DB) Repository {
	return &sqliteRepository{db: db}
}

// wrap translates driver errors into the battle error taxonomy so
// callers never have to import gorm.
func wrap(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return fmt.Errorf("%w: %v", game.ErrPersistence, err)
}

func (r *sqliteRepository) GetAbilities() ([]game.Ability, error) {
	var abilities []game.Ability
	if err := r.db.Order("name ASC").Find(&abilities).Error; err != nil {
		return nil, wrap(err, game.ErrAbilityNotFound)
	}
	return abilities, nil
}

func (r *sqliteRepository) GetAbilityByName(name string) (*game.Ability, error) {
	var a game.Ability
	if err := r.db.Where("lower(name) = ?", strings.ToLower(name)).First(&a).Error; err != nil {
		return nil, wrap(err, game.ErrAbilityNotFound)
	}
	return &a, nil
}

func (r *sqliteRepository) CreateCombatant(c *game.Combatant) error {
	return wrap(r.db.Create(c).Error, game.ErrPersistence)
}

func (r *sqliteRepository) GetCombatantByID(id uint) (*game.Combatant, error) {
	var c game.Combatant
	if err := r.db.Preload("Abilities.Ability").First(&c, id).Error; err != nil {
		return nil, wrap(err, game.ErrCombatantNotFound)
	}
	return &c, nil
}

func (r *sqliteRepository) GetCombatantsByUser(email string) ([]game.Combatant, error) {
	var cs []game.Combatant
	if err := r.db.Preload("Abilities.Ability").
		Where("user_email = ?", email).
		Order("created_at ASC").
		Find(&cs).Error; err != nil {
		return nil, wrap(err, game.ErrCombatantNotFound)
	}
	return cs, nil
}

func (r *sqliteRepository) GetCombatantsByIDs(ids []uint) ([]game.Combatant, error) {
	var cs []game.Combatant
	if len(ids) == 0 {
		return cs, nil
	}
	if err := r.db.Where("id IN ?", ids).Find(&cs).Error; err != nil {
		return nil, wrap(err, game.ErrCombatantNotFound)
	}
	return cs, nil
}

func (r *sqliteRepository) UpdateCombatant(c *game.Combatant) error {
	if c.Rating < 0 {
		c.Rating = 0
	}
	return wrap(r.db.Save(c).Error, game.ErrCombatantNotFound)
}

func (r *sqliteRepository) DeleteCombatant(id uint) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var open int64
		if err := tx.Model(&game.Battle{}).
			Where("(combatant_a_id = ? OR combatant_b_id = ?) AND status IN ?",
				id, id, []game.BattleStatus{game.StatusWaiting, game.StatusInProgress}).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return game.ErrAlreadyInBattle
		}
		if err := tx.Where("combatant_id = ?", id).Delete(&game.QueueEntry{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&game.Combatant{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return game.ErrCombatantNotFound
		}
		return nil
	})
	if errors.Is(err, game.ErrAlreadyInBattle) || errors.Is(err, game.ErrCombatantNotFound) {
		return err
	}
	return wrap(err, game.ErrCombatantNotFound)
}

func (r *sqliteRepository) ListBots() ([]game.Combatant, error) {
	var bots []game.Combatant
	if err := r.db.Preload("Abilities.Ability").
		Where("is_bot = ?", true).
		Find(&bots).Error; err != nil {
		return nil, wrap(err, game.ErrCombatantNotFound)
	}
	return bots, nil
}

func (r *sqliteRepository) Enqueue(e *game.QueueEntry) error {
	err := r.db.Create(e).Error
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint") {
		return game.ErrAlreadyQueued
	}
	return wrap(err, game.ErrPersistence)
}

func (r *sqliteRepository) GetQueueEntry(combatantID uint) (*game.QueueEntry, error) {
	var e game.QueueEntry
	if err := r.db.Where("combatant_id = ?", combatantID).First(&e).Error; err != nil {
		return nil, wrap(err, game.ErrNotQueued)
	}
	return &e, nil
}

func (r *sqliteRepository) RemoveQueueEntry(combatantID uint) error {
	res := r.db.Where("combatant_id = ?", combatantID).Delete(&game.QueueEntry{})
	if res.Error != nil {
		return wrap(res.Error, game.ErrNotQueued)
	}
	if res.RowsAffected == 0 {
		return game.ErrNotQueued
	}
	return nil
}

func (r *sqliteRepository) ListQueue() ([]game.QueueEntry, error) {
	var entries []game.QueueEntry
	if err := r.db.Order("enqueued_at ASC").Find(&entries).Error; err != nil {
		return nil, wrap(err, game.ErrPersistence)
	}
	return entries, nil
}

func (r *sqliteRepository) CreateBattle(b *game.Battle) error {
	return wrap(r.db.Create(b).Error, game.ErrPersistence)
}

func (r *sqliteRepository) GetBattleByID(id uint) (*game.Battle, error) {
	var b game.Battle
	err := r.db.Preload("CombatantA.Abilities.Ability").
		Preload("CombatantB.Abilities.Ability").
		Preload("Actions", func(db *gorm.DB) *gorm.DB {
			return db.Order("battle_actions.turn_number ASC")
		}).
		First(&b, id).Error
	if err != nil {
		return nil, wrap(err, game.ErrBattleNotFound)
	}
	return &b, nil
}

func (r *sqliteRepository) UpdateBattle(b *game.Battle) error {
	return wrap(r.db.Save(b).Error, game.ErrBattleNotFound)
}

func (r *sqliteRepository) AppendAction(a *game.Action) error {
	return wrap(r.db.Create(a).Error, game.ErrPersistence)
}

func (r *sqliteRepository) FindActiveBattle(combatantID uint) (*game.Battle, error) {
	var b game.Battle
	err := r.db.Preload("CombatantA.Abilities.Ability").
		Preload("CombatantB.Abilities.Ability").
		Where("(combatant_a_id = ? OR combatant_b_id = ?) AND status IN ?",
			combatantID, combatantID,
			[]game.BattleStatus{game.StatusWaiting, game.StatusInProgress}).
		Order("created_at DESC").
		First(&b).Error
	if err != nil {
		return nil, wrap(err, game.ErrBattleNotFound)
	}
	return &b, nil
}

func (r *sqliteRepository) FindTimedOutBattles(now time.Time) ([]game.Battle, error) {
	var battles []game.Battle
	err := r.db.Preload("CombatantA").Preload("CombatantB").
		Where("status = ? AND action_deadline <= ?", game.StatusInProgress, now).
		Find(&battles).Error
	if err != nil {
		return nil, wrap(err, game.ErrPersistence)
	}
	return battles, nil
}

func (r *sqliteRepository) ListFinishedBattles(combatantID uint, limit int) ([]game.Battle, error) {
	if limit <= 0 {
		limit = 20
	}
	var battles []game.Battle
	err := r.db.Preload("CombatantA").Preload("CombatantB").
		Where("(combatant_a_id = ? OR combatant_b_id = ?) AND status = ?",
			combatantID, combatantID, game.StatusFinished).
		Order("finished_at DESC").
		Limit(limit).
		Find(&battles).Error
	if err != nil {
		return nil, wrap(err, game.ErrPersistence)
	}
	return battles, nil
}

func (r *sqliteRepository) BattleStats() (*ArenaStats, error) {
	var stats ArenaStats
	if err := r.db.Model(&game.Battle{}).Count(&stats.TotalBattles).Error; err != nil {
		return nil, wrap(err, game.ErrPersistence)
	}
	if err := r.db.Model(&game.Battle{}).
		Where("status IN ?", []game.BattleStatus{game.StatusWaiting, game.StatusInProgress}).
		Count(&stats.ActiveBattles).Error; err != nil {
		return nil, wrap(err, game.ErrPersistence)
	}
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if err := r.db.Model(&game.Battle{}).
		Where("status = ? AND finished_at >= ?", game.StatusFinished, dayStart).
		Count(&stats.FinishedToday).Error; err != nil {
		return nil, wrap(err, game.ErrPersistence)
	}
	var avg sql.NullFloat64
	if err := r.db.Model(&game.Battle{}).
		Where("status = ?", game.StatusFinished).
		Select("AVG(turn_count)").
		Scan(&avg).Error; err != nil {
		return nil, wrap(err, game.ErrPersistence)
	}
	if avg.Valid {
		stats.AverageTurns = avg.Float64
	}
	return &stats, nil
}

func (r *sqliteRepository) SettleBattle(s Settlement) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(s.Battle).Error; err != nil {
			return err
		}
		for _, c := range []*game.Combatant{s.CombatantA, s.CombatantB} {
			if c.Rating < 0 {
				c.Rating = 0
			}
			if err := tx.Save(c).Error; err != nil {
				return err
			}
		}
		// Practice battles never touch the leaderboard.
		if !s.Battle.IsPractice {
			if err := applyRankingDelta(tx, s.CombatantA.ID, s.ResultA); err != nil {
				return err
			}
			if err := applyRankingDelta(tx, s.CombatantB.ID, mirror(s.ResultA)); err != nil {
				return err
			}
			if err := recomputeRanks(tx); err != nil {
				return err
			}
		}
		if s.ReplayLog != "" {
			snap := game.ReplaySnapshot{BattleID: s.Battle.ID, Log: s.ReplayLog}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "battle_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"log"}),
			}).Create(&snap).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return wrap(err, game.ErrPersistence)
}

func mirror(r game.BattleResult) game.BattleResult {
	switch r {
	case game.ResultWin:
		return game.ResultLoss
	case game.ResultLoss:
		return game.ResultWin
	}
	return game.ResultDraw
}

// applyRankingDelta upserts the combatant's ranking row. Wins pay 20
// points, losses cost 10 floored at zero, draws only count.
func applyRankingDelta(tx *gorm.DB, combatantID uint, result game.BattleResult) error {
	row := game.RankingRow{CombatantID: combatantID}
	switch result {
	case game.ResultWin:
		row.Wins = 1
		row.Points = 20
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "combatant_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"wins":   gorm.Expr("wins + 1"),
				"points": gorm.Expr("points + 20"),
			}),
		}).Create(&row).Error
	case game.ResultLoss:
		row.Losses = 1
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "combatant_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"losses": gorm.Expr("losses + 1"),
				"points": gorm.Expr("MAX(points - 10, 0)"),
			}),
		}).Create(&row).Error
	default:
		row.Draws = 1
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "combatant_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"draws": gorm.Expr("draws + 1"),
			}),
		}).Create(&row).Error
	}
}

// recomputeRanks rewrites the dense position of every row: points
// descending, wins descending, then the older combatant ID first.
func recomputeRanks(tx *gorm.DB) error {
	return tx.Exec(`
		UPDATE rankings SET rank = (
			SELECT COUNT(*) + 1 FROM rankings r2
			WHERE r2.deleted_at IS NULL AND (
				r2.points > rankings.points
				OR (r2.points = rankings.points AND r2.wins > rankings.wins)
				OR (r2.points = rankings.points AND r2.wins = rankings.wins AND r2.combatant_id < rankings.combatant_id)
			)
		) WHERE deleted_at IS NULL`).Error
}

func (r *sqliteRepository) GetLeaderboard(limit, offset int) ([]game.RankingRow, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	var rows []game.RankingRow
	err := r.db.Order("points DESC").
		Order("wins DESC").
		Order("combatant_id ASC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, wrap(err, game.ErrPersistence)
	}
	return rows, nil
}

func (r *sqliteRepository) GetRankingRow(combatantID uint) (*game.RankingRow, error) {
	var row game.RankingRow
	if err := r.db.Where("combatant_id = ?", combatantID).First(&row).Error; err != nil {
		return nil, wrap(err, game.ErrCombatantNotFound)
	}
	return &row, nil
}

func (r *sqliteRepository) GetNearbyRows(combatantID uint, span int) ([]game.RankingRow, error) {
	if span <= 0 {
		span = 2
	}
	anchor, err := r.GetRankingRow(combatantID)
	if err != nil {
		return nil, err
	}
	var rows []game.RankingRow
	err = r.db.Where("rank BETWEEN ? AND ?", anchor.Rank-span, anchor.Rank+span).
		Order("rank ASC").
		Find(&rows).Error
	if err != nil {
		return nil, wrap(err, game.ErrPersistence)
	}
	return rows, nil
}

func (r *sqliteRepository) RecentResults(combatantID uint, limit int) ([]game.BattleResult, error) {
	if limit <= 0 {
		limit = 5
	}
	var battles []game.Battle
	// Practice outcomes never count toward form or streaks.
	err := r.db.Where("(combatant_a_id = ? OR combatant_b_id = ?) AND status = ? AND is_practice = ?",
		combatantID, combatantID, game.StatusFinished, false).
		Order("finished_at DESC").
		Limit(limit).
		Find(&battles).Error
	if err != nil {
		return nil, wrap(err, game.ErrPersistence)
	}
	results := make([]game.BattleResult, 0, len(battles))
	for _, b := range battles {
		switch {
		case b.WinnerID == nil:
			results = append(results, game.ResultDraw)
		case *b.WinnerID == combatantID:
			results = append(results, game.ResultWin)
		default:
			results = append(results, game.ResultLoss)
		}
	}
	return results, nil
}

func (r *sqliteRepository) GetReplay(battleID uint) (*game.ReplaySnapshot, error) {
	var snap game.ReplaySnapshot
	if err := r.db.Where("battle_id = ?", battleID).First(&snap).Error; err != nil {
		return nil, wrap(err, game.ErrBattleNotFound)
	}
	return &snap, nil
}
