package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoadConfigDefaults(t *testing.T) {
	p := writeConfig(t, `{
		"ability_list": [
			{"name": "Fireball", "mana_cost": 10, "damage": 25, "kind": "attack"},
			{"name": "Mend", "mana_cost": 8, "heal_amount": 20, "kind": "heal"}
		],
		"bot_list": [
			{"name": "Iron Golem", "health": 120, "mana": 30, "attack": 15, "defense": 20, "speed": 5, "abilities": ["Fireball"]}
		]
	}`)

	cfg, err := LoadConfig(p)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ServerAddress != ":8080" {
		t.Fatalf("default address, got %s", cfg.ServerAddress)
	}
	if !cfg.PracticeWhileQueued {
		t.Fatalf("practice_while_queued should default to true")
	}
	if len(cfg.Abilities) != 2 || len(cfg.Bots) != 1 {
		t.Fatalf("got %d abilities, %d bots", len(cfg.Abilities), len(cfg.Bots))
	}
	if !cfg.Bots[0].Combatant.IsBot || cfg.Bots[0].Combatant.MaxHealth != 120 {
		t.Fatalf("bot combatant not seeded correctly: %+v", cfg.Bots[0].Combatant)
	}
	if cfg.Bots[0].Combatant.Level != 1 {
		t.Fatalf("bot level should default to 1, got %d", cfg.Bots[0].Combatant.Level)
	}
}

func TestLoadConfigRejectsDuplicates(t *testing.T) {
	p := writeConfig(t, `{
		"ability_list": [
			{"name": "Fireball", "kind": "attack"},
			{"name": "fireball", "kind": "attack"}
		]
	}`)
	if _, err := LoadConfig(p); err == nil {
		t.Fatalf("duplicate ability names must be rejected")
	}
}

func TestLoadConfigRejectsUnknownBotAbility(t *testing.T) {
	p := writeConfig(t, `{
		"ability_list": [{"name": "Fireball", "kind": "attack"}],
		"bot_list": [{"name": "Golem", "health": 100, "abilities": ["Meteor"]}]
	}`)
	if _, err := LoadConfig(p); err == nil {
		t.Fatalf("bots referencing unknown abilities must be rejected")
	}
}

func TestLoadConfigRejectsUnknownKind(t *testing.T) {
	p := writeConfig(t, `{"ability_list": [{"name": "Fireball", "kind": "sparkle"}]}`)
	if _, err := LoadConfig(p); err == nil {
		t.Fatalf("unknown ability kind must be rejected")
	}
}
