// Package ranking reads the denormalized leaderboard maintained at
// battle settlement and derives presentation data from it: positions,
// win rates, recent form and streaks.
package ranking

import (
	"fmt"

	"github.com/jaeho-jang-dr/online-text-battle/internal/game"
	"golang.org/x/sync/singleflight"
)

// formSampleSize is how many settled battles feed the form analysis.
const formSampleSize = 5

// streakSampleSize bounds how far back a streak is traced.
const streakSampleSize = 20

// Repo is the slice of the storage layer the ranking service needs.
type Repo interface {
	GetLeaderboard(limit, offset int) ([]game.RankingRow, error)
	GetRankingRow(combatantID uint) (*game.RankingRow, error)
	GetNearbyRows(combatantID uint, span int) ([]game.RankingRow, error)
	RecentResults(combatantID uint, limit int) ([]game.BattleResult, error)
	GetCombatantsByIDs(ids []uint) ([]game.Combatant, error)
}

// Entry is one presentable leaderboard line.
type Entry struct {
	Rank        int             `json:"rank"`
	CombatantID uint            `json:"combatant_id"`
	Name        string          `json:"name"`
	Rating      int             `json:"rating"`
	Level       int             `json:"level"`
	Wins        int             `json:"wins"`
	Losses      int             `json:"losses"`
	Draws       int             `json:"draws"`
	Points      int             `json:"points"`
	WinRate     float64         `json:"win_rate"`
	Form        game.RecentForm `json:"form"`
}

// Streak is a run of identical results ending at the latest battle. A
// draw always breaks a streak, so Count may be zero.
type Streak struct {
	Kind  game.BattleResult `json:"kind"`
	Count int               `json:"count"`
}

// Stats is the full per-combatant record card.
type Stats struct {
	Entry
	Experience int    `json:"experience"`
	Streak     Streak `json:"streak"`
}

type Service struct {
	repo  Repo
	group singleflight.Group
}

func NewService(repo Repo) *Service {
	return &Service{repo: repo}
}

// Leaderboard returns a page of entries ordered by points, wins, then
// combatant ID. Concurrent requests for the same page share one read.
func (s *Service) Leaderboard(limit, offset int) ([]Entry, error) {
	key := fmt.Sprintf("leaderboard:%d:%d", limit, offset)
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		rows, err := s.repo.GetLeaderboard(limit, offset)
		if err != nil {
			return nil, err
		}
		return s.entries(rows)
	})
	if err != nil {
		return nil, err
	}
	return v.([]Entry), nil
}

// Nearby returns entries ranked within span positions of the given
// combatant.
func (s *Service) Nearby(combatantID uint, span int) ([]Entry, error) {
	rows, err := s.repo.GetNearbyRows(combatantID, span)
	if err != nil {
		return nil, err
	}
	return s.entries(rows)
}

func (s *Service) entries(rows []game.RankingRow) ([]Entry, error) {
	ids := make([]uint, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.CombatantID)
	}
	combatants, err := s.repo.GetCombatantsByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]game.Combatant, len(combatants))
	for _, c := range combatants {
		byID[c.ID] = c
	}

	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		e := Entry{
			Rank:        r.Rank,
			CombatantID: r.CombatantID,
			Wins:        r.Wins,
			Losses:      r.Losses,
			Draws:       r.Draws,
			Points:      r.Points,
			WinRate:     r.WinRate(),
		}
		if c, ok := byID[r.CombatantID]; ok {
			e.Name = c.Name
			e.Rating = c.Rating
			e.Level = c.Level
		}
		form, err := s.RecentForm(r.CombatantID)
		if err != nil {
			return nil, err
		}
		e.Form = form
		out = append(out, e)
	}
	return out, nil
}

// RecentForm classifies the last five settled battles: four or more
// wins is winning, four or more losses is losing, fewer than five
// battles is new, anything else is stable.
func (s *Service) RecentForm(combatantID uint) (game.RecentForm, error) {
	results, err := s.repo.RecentResults(combatantID, formSampleSize)
	if err != nil {
		return "", err
	}
	if len(results) < formSampleSize {
		return game.FormNew, nil
	}
	wins, losses := 0, 0
	for _, r := range results {
		switch r {
		case game.ResultWin:
			wins++
		case game.ResultLoss:
			losses++
		}
	}
	switch {
	case wins >= 4:
		return game.FormWinning, nil
	case losses >= 4:
		return game.FormLosing, nil
	}
	return game.FormStable, nil
}

// CurrentStreak traces identical results back from the latest battle.
func (s *Service) CurrentStreak(combatantID uint) (Streak, error) {
	results, err := s.repo.RecentResults(combatantID, streakSampleSize)
	if err != nil {
		return Streak{}, err
	}
	if len(results) == 0 || results[0] == game.ResultDraw {
		return Streak{}, nil
	}
	streak := Streak{Kind: results[0]}
	for _, r := range results {
		if r != streak.Kind {
			break
		}
		streak.Count++
	}
	return streak, nil
}

// CombatantStats assembles the record card for one combatant.
func (s *Service) CombatantStats(combatantID uint) (*Stats, error) {
	row, err := s.repo.GetRankingRow(combatantID)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries([]game.RankingRow{*row})
	if err != nil {
		return nil, err
	}
	streak, err := s.CurrentStreak(combatantID)
	if err != nil {
		return nil, err
	}
	stats := &Stats{Entry: entries[0], Streak: streak}
	combatants, err := s.repo.GetCombatantsByIDs([]uint{combatantID})
	if err != nil {
		return nil, err
	}
	if len(combatants) == 1 {
		stats.Experience = combatants[0].Experience
	}
	return stats, nil
}
