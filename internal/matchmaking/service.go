// Package matchmaking pairs combatants from a persistent queue. Three
// search preferences are supported; a queued combatant can optionally
// warm up against a bot while waiting.
package matchmaking

import (
	"math/rand"
	"sync"
	"time"

	"github.com/jaeho-jang-dr/online-text-battle/internal/battle"
	"github.com/jaeho-jang-dr/online-text-battle/internal/events"
	"github.com/jaeho-jang-dr/online-text-battle/internal/game"
	"github.com/jaeho-jang-dr/online-text-battle/internal/logging"
)

// similarRatingWindow bounds the rating distance accepted by the
// similar_rating preference.
const similarRatingWindow = 100

// Repo is the slice of the storage layer the matchmaker needs.
type Repo interface {
	GetCombatantByID(id uint) (*game.Combatant, error)
	FindActiveBattle(combatantID uint) (*game.Battle, error)
	ListBots() ([]game.Combatant, error)
	Enqueue(e *game.QueueEntry) error
	GetQueueEntry(combatantID uint) (*game.QueueEntry, error)
	RemoveQueueEntry(combatantID uint) error
	ListQueue() ([]game.QueueEntry, error)
}

// MatchOutcome tells the caller what happened to their request.
type MatchOutcome string

const (
	// OutcomeMatched means an opponent was found and a ranked battle
	// started immediately.
	OutcomeMatched MatchOutcome = "matched"
	// OutcomeEnqueuedPractice means no opponent was available; the
	// combatant was queued and a practice battle against a bot started.
	OutcomeEnqueuedPractice MatchOutcome = "enqueued_practice"
	// OutcomeEnqueued means no opponent and no practice bot; the
	// combatant simply waits in the queue.
	OutcomeEnqueued MatchOutcome = "enqueued"
)

type Result struct {
	Outcome  MatchOutcome
	Opponent *game.Combatant
	Battle   *game.Battle
}

type Service struct {
	repo            Repo
	battles         *battle.Service
	notify          events.Notifier
	practiceAllowed bool

	mu  sync.Mutex
	rng *rand.Rand
}

func NewService(repo Repo, battles *battle.Service, notify events.Notifier, practiceWhileQueued bool, rng *rand.Rand) *Service {
	return &Service{
		repo:            repo,
		battles:         battles,
		notify:          notify,
		practiceAllowed: practiceWhileQueued,
		rng:             rng,
	}
}

// RequestMatch finds an opponent for the combatant or parks them in the
// queue. Matching and enqueueing serialize under one lock so two
// concurrent requests can never claim the same opponent.
func (s *Service) RequestMatch(combatantID uint, pref game.MatchPreference) (*Result, error) {
	switch pref {
	case game.PreferRandom, game.PreferSimilarRating, game.PreferLeaderboard:
	default:
		return nil, game.ErrInvalidPreference
	}
	requester, err := s.repo.GetCombatantByID(combatantID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.repo.GetQueueEntry(combatantID); err == nil {
		return nil, game.ErrAlreadyQueued
	}
	// A combatant fighting a real battle never enters the queue. A
	// warm-up against a bot is not a real battle.
	if open, err := s.repo.FindActiveBattle(combatantID); err == nil && !open.IsPractice {
		return nil, game.ErrAlreadyInBattle
	}

	entries, err := s.repo.ListQueue()
	if err != nil {
		return nil, err
	}
	if pick := selectOpponent(entries, requester, pref); pick != nil {
		opponent, err := s.repo.GetCombatantByID(pick.CombatantID)
		if err != nil {
			return nil, err
		}
		// A warm-up in progress yields to the real match.
		if err := s.battles.AbandonPractice(requester.ID); err != nil {
			return nil, err
		}
		if err := s.battles.AbandonPractice(opponent.ID); err != nil {
			return nil, err
		}
		b, err := s.battles.Create(requester.ID, opponent.ID, game.ModeTurns, false)
		if err != nil {
			return nil, err
		}
		if err := s.repo.RemoveQueueEntry(opponent.ID); err != nil {
			return nil, err
		}
		if _, err := s.battles.Start(b.ID, requester.ID); err != nil {
			return nil, err
		}
		logging.Info("match made", logging.Fields{
			"combatant_id": requester.ID,
			"opponent_id":  opponent.ID,
			"battle_id":    b.ID,
			"preference":   string(pref),
		})
		s.notify.Notify(events.Event{
			Kind:        events.BattleMatched,
			BattleID:    b.ID,
			CombatantID: requester.ID,
			OpponentID:  opponent.ID,
		})
		return &Result{Outcome: OutcomeMatched, Opponent: opponent, Battle: b}, nil
	}

	entry := &game.QueueEntry{
		CombatantID: requester.ID,
		Rating:      requester.Rating,
		Preference:  pref,
		EnqueuedAt:  time.Now(),
	}
	if err := s.repo.Enqueue(entry); err != nil {
		return nil, err
	}
	logging.Info("combatant queued", logging.Fields{
		"combatant_id": requester.ID,
		"preference":   string(pref),
	})

	if s.practiceAllowed {
		if bot := s.pickBot(requester.ID); bot != nil {
			pb, perr := s.battles.Create(requester.ID, bot.ID, game.ModeTurns, true)
			if perr == nil {
				_, perr = s.battles.Start(pb.ID, requester.ID)
				if perr == nil {
					return &Result{Outcome: OutcomeEnqueuedPractice, Opponent: bot, Battle: pb}, nil
				}
			}
			logging.Warn("practice battle setup failed; staying queued", perr, logging.Fields{
				"combatant_id": requester.ID,
			})
			s.notify.Notify(events.Event{
				Kind:        events.QueueError,
				CombatantID: requester.ID,
				Detail:      perr.Error(),
			})
		}
	}
	return &Result{Outcome: OutcomeEnqueued}, nil
}

// selectOpponent applies the preference over the open queue entries,
// which arrive oldest first.
func selectOpponent(entries []game.QueueEntry, requester *game.Combatant, pref game.MatchPreference) *game.QueueEntry {
	var pick *game.QueueEntry
	for i := range entries {
		e := &entries[i]
		if e.CombatantID == requester.ID {
			continue
		}
		switch pref {
		case game.PreferRandom:
			// Oldest waiting entry wins.
			return e

		case game.PreferSimilarRating:
			delta := e.Rating - requester.Rating
			if delta < 0 {
				delta = -delta
			}
			if delta > similarRatingWindow {
				continue
			}
			if pick == nil || delta < absDelta(pick.Rating, requester.Rating) {
				pick = e
			}

		case game.PreferLeaderboard:
			if e.Rating <= requester.Rating {
				continue
			}
			if pick == nil || e.Rating < pick.Rating {
				pick = e
			}
		}
	}
	return pick
}

func absDelta(a, b int) int {
	d := a - b
	if d < 0 {
		return -d
	}
	return d
}

// pickBot chooses a random practice opponent from the bot roster.
func (s *Service) pickBot(excludeID uint) *game.Combatant {
	bots, err := s.repo.ListBots()
	if err != nil || len(bots) == 0 {
		return nil
	}
	candidates := make([]game.Combatant, 0, len(bots))
	for _, b := range bots {
		if b.ID != excludeID {
			candidates = append(candidates, b)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	bot := candidates[s.rng.Intn(len(candidates))]
	return &bot
}

// Cancel removes the combatant from the queue.
func (s *Service) Cancel(combatantID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.RemoveQueueEntry(combatantID)
}

// Challenge creates a direct battle between two combatants, bypassing
// the queue. Neither side may hold a queue entry: a queued challenger
// must cancel first, and a queued target is considered unavailable
// until they leave the queue.
func (s *Service) Challenge(challengerID, targetID uint, mode game.BattleMode) (*game.Battle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.repo.GetQueueEntry(challengerID); err == nil {
		return nil, game.ErrAlreadyQueued
	}
	if _, err := s.repo.GetQueueEntry(targetID); err == nil {
		return nil, game.ErrOpponentUnavailable
	}
	b, err := s.battles.Create(challengerID, targetID, mode, false)
	if err != nil {
		return nil, err
	}
	logging.Info("challenge issued", logging.Fields{
		"combatant_id": challengerID,
		"opponent_id":  targetID,
		"battle_id":    b.ID,
		"mode":         string(mode),
	})
	return b, nil
}
