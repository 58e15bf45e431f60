package storage

import (
	"strings"

	"github.com/jaeho-jang-dr/online-text-battle/internal/config"
	"github.com/jaeho-jang-dr/online-text-battle/internal/constants"
	"github.com/jaeho-jang-dr/online-text-battle/internal/game"
	"github.com/jaeho-jang-dr/online-text-battle/internal/logging"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func OpenAndMigrate(dataSourceName string, cfg *config.LoadedConfig) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dataSourceName), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&game.Ability{},
		&game.Combatant{},
		&game.CombatantAbility{},
		&game.QueueEntry{},
		&game.Battle{},
		&game.Action{},
		&game.RankingRow{},
		&game.ReplaySnapshot{},
	)
	if err != nil {
		return nil, err
	}

	seedAbilities(db, cfg.Abilities)
	seedBots(db, cfg.Bots)
	return db, nil
}

// seedAbilities upserts the configured ability templates by name so
// stat changes in the config file reach existing databases.
func seedAbilities(db *gorm.DB, abilities []game.Ability) {
	for _, a := range abilities {
		var existing game.Ability
		err := db.Where("lower(name) = ?", strings.ToLower(a.Name)).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			if err := db.Create(&a).Error; err != nil {
				logging.Error("failed to seed ability", err, logging.Fields{constants.LogFieldName: a.Name})
			}
			continue
		}
		if err != nil {
			logging.Error("failed to look up ability for seeding", err, logging.Fields{constants.LogFieldName: a.Name})
			continue
		}
		existing.ManaCost = a.ManaCost
		existing.Damage = a.Damage
		existing.HealAmount = a.HealAmount
		existing.Cooldown = a.Cooldown
		existing.Kind = a.Kind
		if err := db.Save(&existing).Error; err != nil {
			logging.Error("failed to update seeded ability", err, logging.Fields{constants.LogFieldName: a.Name})
		}
	}
}

// seedBots inserts configured bot combatants once; existing bots are
// left untouched so their ratings and records survive restarts.
func seedBots(db *gorm.DB, bots []config.Bot) {
	for _, b := range bots {
		var count int64
		db.Model(&game.Combatant{}).
			Where("is_bot = ? AND lower(name) = ?", true, strings.ToLower(b.Combatant.Name)).
			Count(&count)
		if count > 0 {
			continue
		}
		c := b.Combatant
		c.Rating = 1200
		if err := db.Create(&c).Error; err != nil {
			logging.Error("failed to seed bot", err, logging.Fields{constants.LogFieldName: c.Name})
			continue
		}
		for _, abilityName := range b.Abilities {
			var a game.Ability
			if err := db.Where("lower(name) = ?", strings.ToLower(abilityName)).First(&a).Error; err != nil {
				logging.Error("failed to resolve bot ability", err, logging.Fields{constants.LogFieldName: abilityName})
				continue
			}
			link := game.CombatantAbility{CombatantID: c.ID, AbilityID: a.ID, Level: 1}
			if err := db.Create(&link).Error; err != nil {
				logging.Error("failed to link bot ability", err, logging.Fields{constants.LogFieldName: abilityName})
			}
		}
		logging.Info("bot seeded", logging.Fields{constants.LogFieldName: c.Name})
	}
}
