package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jaeho-jang-dr/online-text-battle/internal/constants"
	"github.com/jaeho-jang-dr/online-text-battle/internal/game"
)

type abilityEntry struct {
	Name       string           `json:"name"`
	ManaCost   int              `json:"mana_cost"`
	Damage     int              `json:"damage"`
	HealAmount int              `json:"heal_amount"`
	Cooldown   int              `json:"cooldown"`
	Kind       game.AbilityKind `json:"kind"`
}

type botEntry struct {
	Name      string   `json:"name"`
	Level     int      `json:"level"`
	Health    int      `json:"health"`
	Mana      int      `json:"mana"`
	Attack    int      `json:"attack"`
	Defense   int      `json:"defense"`
	Speed     int      `json:"speed"`
	BattleCry string   `json:"battle_cry"`
	Abilities []string `json:"abilities"`
}

type rawConfig struct {
	AbilityList []abilityEntry `json:"ability_list"`
	BotList     []botEntry     `json:"bot_list"`
	Server      *struct {
		Address string `json:"address"`
	} `json:"server"`
	EloK               int   `json:"elo_k"`
	TurnTimeoutSeconds int   `json:"turn_timeout_seconds"`
	PracticeQueued     *bool `json:"practice_while_queued"`
	Ollama             *struct {
		URL   string `json:"url"`
		Model string `json:"model"`
	} `json:"ollama"`
	// Optional judging prompt template for one-shot battles. Use the
	// tokens {{cry_a}} and {{cry_b}} where the two battle cries will be
	// substituted. If omitted, a default prompt is used by the judge.
	JudgePrompt string `json:"judge_prompt"`
}

// Bot couples a seedable combatant with the ability names it should be
// granted after the ability table is seeded.
type Bot struct {
	Combatant game.Combatant
	Abilities []string
}

// LoadedConfig contains abilities and bots to seed plus runtime tuning.
type LoadedConfig struct {
	Abilities     []game.Ability
	Bots          []Bot
	ServerAddress string
	EloK          int
	// TurnTimeoutSeconds bounds how long a side may hold its turn; 0
	// disables the timeout scanner.
	TurnTimeoutSeconds int
	// PracticeWhileQueued lets a queued combatant start practice battles
	// while waiting for a human match.
	PracticeWhileQueued bool
	OllamaURL           string
	OllamaModel         string
	JudgePromptTemplate string
}

// LoadConfig reads the configuration file at path. It requires the key
// `ability_list` (snake_case); everything else has defaults.
func LoadConfig(path string) (*LoadedConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var rc rawConfig
	if err := json.Unmarshal(b, &rc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if len(rc.AbilityList) == 0 {
		return nil, fmt.Errorf("config file %s: ability_list is empty (provide 'ability_list' array)", path)
	}

	abilities := make([]game.Ability, 0, len(rc.AbilityList))
	nameSet := make(map[string]struct{}, len(rc.AbilityList))
	for _, a := range rc.AbilityList {
		if strings.TrimSpace(a.Name) == "" {
			return nil, fmt.Errorf("config file %s: ability entry missing 'name'", path)
		}
		ln := strings.ToLower(strings.TrimSpace(a.Name))
		if _, exists := nameSet[ln]; exists {
			return nil, fmt.Errorf("config file %s: duplicate ability name '%s'", path, a.Name)
		}
		nameSet[ln] = struct{}{}
		switch a.Kind {
		case game.AbilityAttack, game.AbilityHeal, game.AbilityDefense, game.AbilityBuff, game.AbilityDebuff:
		default:
			return nil, fmt.Errorf("config file %s: ability '%s' has unknown kind '%s'", path, a.Name, a.Kind)
		}
		if a.ManaCost < 0 {
			return nil, fmt.Errorf("config file %s: ability '%s' has negative mana_cost", path, a.Name)
		}
		abilities = append(abilities, game.Ability{
			Name:       a.Name,
			ManaCost:   a.ManaCost,
			Damage:     a.Damage,
			HealAmount: a.HealAmount,
			Cooldown:   a.Cooldown,
			Kind:       a.Kind,
		})
	}

	bots := make([]Bot, 0, len(rc.BotList))
	botNames := make(map[string]struct{}, len(rc.BotList))
	for _, bt := range rc.BotList {
		if strings.TrimSpace(bt.Name) == "" {
			return nil, fmt.Errorf("config file %s: bot entry missing 'name'", path)
		}
		ln := strings.ToLower(strings.TrimSpace(bt.Name))
		if _, exists := botNames[ln]; exists {
			return nil, fmt.Errorf("config file %s: duplicate bot name '%s'", path, bt.Name)
		}
		botNames[ln] = struct{}{}
		for _, an := range bt.Abilities {
			if _, ok := nameSet[strings.ToLower(strings.TrimSpace(an))]; !ok {
				return nil, fmt.Errorf("config file %s: bot '%s' references unknown ability '%s'", path, bt.Name, an)
			}
		}
		level := bt.Level
		if level < 1 {
			level = 1
		}
		bots = append(bots, Bot{
			Combatant: game.Combatant{
				Name:      bt.Name,
				Level:     level,
				Health:    bt.Health,
				MaxHealth: bt.Health,
				Mana:      bt.Mana,
				MaxMana:   bt.Mana,
				Attack:    bt.Attack,
				Defense:   bt.Defense,
				Speed:     bt.Speed,
				BattleCry: bt.BattleCry,
				IsBot:     true,
			},
			Abilities: bt.Abilities,
		})
	}

	addr := ":8080"
	if rc.Server != nil && rc.Server.Address != "" {
		addr = rc.Server.Address
	}

	timeout := rc.TurnTimeoutSeconds
	if timeout < 0 {
		return nil, fmt.Errorf("config file %s: turn_timeout_seconds must not be negative", path)
	}

	practice := true
	if rc.PracticeQueued != nil {
		practice = *rc.PracticeQueued
	}

	ollamaURL := os.Getenv(constants.EnvOllamaAPIURL)
	ollamaModel := os.Getenv(constants.EnvOllamaModel)
	if rc.Ollama != nil {
		if ollamaURL == "" {
			ollamaURL = rc.Ollama.URL
		}
		if ollamaModel == "" {
			ollamaModel = rc.Ollama.Model
		}
	}

	return &LoadedConfig{
		Abilities:           abilities,
		Bots:                bots,
		ServerAddress:       addr,
		EloK:                rc.EloK,
		TurnTimeoutSeconds:  timeout,
		PracticeWhileQueued: practice,
		OllamaURL:           ollamaURL,
		OllamaModel:         ollamaModel,
		JudgePromptTemplate: strings.TrimSpace(rc.JudgePrompt),
	}, nil
}
