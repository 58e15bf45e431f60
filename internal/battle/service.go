// Package battle owns the battle lifecycle: creation, the alternating
// turn loop, one-shot judged resolution and settlement. All state
// transitions happen under a per-battle lock so concurrent submissions
// serialize cleanly.
package battle

import (
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/jaeho-jang-dr/online-text-battle/internal/events"
	"github.com/jaeho-jang-dr/online-text-battle/internal/game"
	"github.com/jaeho-jang-dr/online-text-battle/internal/judge"
	"github.com/jaeho-jang-dr/online-text-battle/internal/logging"
	"github.com/jaeho-jang-dr/online-text-battle/internal/rating"
	"github.com/jaeho-jang-dr/online-text-battle/internal/storage"
)

// maxTurns caps the turn loop; battles still open at the cap are
// decided by remaining health ratio.
const maxTurns = 50

// Experience grants per settled battle. A surrender awards the winner a
// reduced grant and the loser nothing.
const (
	expWin          = 100
	expLoss         = 50
	expDraw         = 75
	expSurrenderWin = 50
)

// Repo is the slice of the storage layer the battle service needs.
type Repo interface {
	GetCombatantByID(id uint) (*game.Combatant, error)
	CreateBattle(b *game.Battle) error
	GetBattleByID(id uint) (*game.Battle, error)
	UpdateBattle(b *game.Battle) error
	UpdateCombatant(c *game.Combatant) error
	AppendAction(a *game.Action) error
	FindActiveBattle(combatantID uint) (*game.Battle, error)
	FindTimedOutBattles(now time.Time) ([]game.Battle, error)
	SettleBattle(s storage.Settlement) error
}

type Service struct {
	repo        Repo
	calc        rating.Calculator
	judge       judge.Judge
	notify      events.Notifier
	turnTimeout time.Duration

	mu    sync.Mutex
	rng   *rand.Rand
	locks map[uint]*sync.Mutex
}

// NewService wires the battle service. turnTimeout of zero disables
// action deadlines; rng drives damage rolls and judge tie breaks.
func NewService(repo Repo, calc rating.Calculator, j judge.Judge, notify events.Notifier, turnTimeout time.Duration, rng *rand.Rand) *Service {
	return &Service{
		repo:        repo,
		calc:        calc,
		judge:       j,
		notify:      notify,
		turnTimeout: turnTimeout,
		rng:         rng,
		locks:       map[uint]*sync.Mutex{},
	}
}

// lockFor returns the per-battle mutex, creating it on first use. Lock
// entries are small and battles finite, so entries are never reaped.
func (s *Service) lockFor(battleID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[battleID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[battleID] = l
	}
	return l
}

// roll proxies the shared rng under the service lock.
func (s *Service) roll(fn func(rng *rand.Rand)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.rng)
}

// Create sets up a battle between two distinct combatants. The faster
// combatant takes side A and therefore the first turn. Bots may hold
// any number of concurrent battles; everyone else at most one.
func (s *Service) Create(aID, bID uint, mode game.BattleMode, practice bool) (*game.Battle, error) {
	if aID == bID {
		return nil, game.ErrSelfMatch
	}
	a, err := s.repo.GetCombatantByID(aID)
	if err != nil {
		return nil, err
	}
	b, err := s.repo.GetCombatantByID(bID)
	if err != nil {
		return nil, err
	}
	for _, c := range []*game.Combatant{a, b} {
		if c.IsBot {
			continue
		}
		// An active practice battle does not block a real match; the
		// matchmaker abandons it when pairing succeeds.
		if open, err := s.repo.FindActiveBattle(c.ID); err == nil && !open.IsPractice {
			return nil, game.ErrAlreadyInBattle
		}
	}
	if b.Speed > a.Speed {
		a, b = b, a
	}
	battle := &game.Battle{
		CombatantAID:  a.ID,
		CombatantBID:  b.ID,
		Status:        game.StatusWaiting,
		Mode:          mode,
		CurrentTurn:   1,
		RatingABefore: a.Rating,
		RatingBBefore: b.Rating,
		IsPractice:    practice,
	}
	if err := s.repo.CreateBattle(battle); err != nil {
		return nil, err
	}
	logging.Info("battle created", logging.Fields{
		"battle_id": battle.ID, "mode": string(mode), "practice": practice,
	})
	return battle, nil
}

// Start moves a waiting battle into progress and arms the first action
// deadline. Any participant may start it.
func (s *Service) Start(battleID, combatantID uint) (*game.Battle, error) {
	lock := s.lockFor(battleID)
	lock.Lock()
	defer lock.Unlock()

	b, err := s.repo.GetBattleByID(battleID)
	if err != nil {
		return nil, err
	}
	if b.CombatantAID != combatantID && b.CombatantBID != combatantID {
		return nil, game.ErrNotAParticipant
	}
	if b.Status != game.StatusWaiting {
		return nil, game.ErrBattleNotWaiting
	}
	b.Status = game.StatusInProgress
	s.armDeadline(b)
	if err := s.repo.UpdateBattle(b); err != nil {
		return nil, err
	}
	s.notify.Notify(events.Event{Kind: events.BattleStarted, BattleID: b.ID, CombatantID: combatantID})
	return b, nil
}

func (s *Service) armDeadline(b *game.Battle) {
	if s.turnTimeout > 0 {
		b.ActionDeadline = time.Now().Add(s.turnTimeout)
	}
}

// settle finalizes a battle. winnerID nil means a draw. Ratings move by
// Elo for ranked battles and stay put for practice; both combatants
// leave the arena restored to full health and mana. A surrendered
// battle pays experience to the winner only.
func (s *Service) settle(b *game.Battle, a, d *game.Combatant, winnerID *uint, surrendered bool) error {
	now := time.Now()
	b.Status = game.StatusFinished
	b.FinishedAt = &now
	b.WinnerID = winnerID
	b.ActionDeadline = time.Time{}

	b.RatingAAfter = a.Rating
	b.RatingBAfter = d.Rating
	resultA := game.ResultDraw
	winExp, lossExp := expWin, expLoss
	if surrendered {
		winExp, lossExp = expSurrenderWin, 0
	}
	if !b.IsPractice {
		switch {
		case winnerID == nil:
			ra, rb := s.calc.Draw(a.Rating, d.Rating)
			a.Rating, d.Rating = ra, rb
			a.Experience += expDraw
			d.Experience += expDraw
		case *winnerID == a.ID:
			resultA = game.ResultWin
			rw, rl := s.calc.Update(a.Rating, d.Rating)
			a.Rating, d.Rating = rw, rl
			a.Experience += winExp
			d.Experience += lossExp
		default:
			resultA = game.ResultLoss
			rw, rl := s.calc.Update(d.Rating, a.Rating)
			d.Rating, a.Rating = rw, rl
			d.Experience += winExp
			a.Experience += lossExp
		}
		b.RatingAAfter = a.Rating
		b.RatingBAfter = d.Rating
	} else {
		switch {
		case winnerID == nil:
		case *winnerID == a.ID:
			resultA = game.ResultWin
		default:
			resultA = game.ResultLoss
		}
	}

	for _, c := range []*game.Combatant{a, d} {
		c.Health = c.MaxHealth
		c.Mana = c.MaxMana
		c.Guarding = false
	}

	err := s.repo.SettleBattle(storage.Settlement{
		Battle:     b,
		CombatantA: a,
		CombatantB: d,
		ResultA:    resultA,
		ReplayLog:  replayLog(b),
	})
	if err != nil {
		return err
	}
	logging.Info("battle settled", logging.Fields{
		"battle_id": b.ID,
		"winner_id": winnerID,
		"turns":     b.TurnCount,
		"practice":  b.IsPractice,
	})
	s.notify.Notify(events.Event{Kind: events.BattleEnded, BattleID: b.ID, WinnerID: winnerID})
	return nil
}

// replayEntry is one action as stored in the replay snapshot.
type replayEntry struct {
	Turn      int             `json:"turn"`
	ActorID   uint            `json:"actor_id"`
	Kind      game.ActionKind `json:"kind"`
	AbilityID *uint           `json:"ability_id,omitempty"`
	Damage    int             `json:"damage,omitempty"`
	Healing   int             `json:"healing,omitempty"`
	ManaSpent int             `json:"mana_spent,omitempty"`
}

type replayDocument struct {
	BattleID    uint            `json:"battle_id"`
	Mode        game.BattleMode `json:"mode"`
	WinnerID    *uint           `json:"winner_id"`
	Turns       int             `json:"turns"`
	ScoreA      int             `json:"score_a,omitempty"`
	ScoreB      int             `json:"score_b,omitempty"`
	JudgeReason string          `json:"judge_reason,omitempty"`
	Actions     []replayEntry   `json:"actions"`
}

func replayLog(b *game.Battle) string {
	doc := replayDocument{
		BattleID:    b.ID,
		Mode:        b.Mode,
		WinnerID:    b.WinnerID,
		Turns:       b.TurnCount,
		ScoreA:      b.ScoreA,
		ScoreB:      b.ScoreB,
		JudgeReason: b.JudgeReason,
		Actions:     make([]replayEntry, 0, len(b.Actions)),
	}
	for _, a := range b.Actions {
		doc.Actions = append(doc.Actions, replayEntry{
			Turn:      a.TurnNumber,
			ActorID:   a.ActorID,
			Kind:      a.Kind,
			AbilityID: a.AbilityID,
			Damage:    a.Damage,
			Healing:   a.Healing,
			ManaSpent: a.ManaSpent,
		})
	}
	out, err := json.Marshal(doc)
	if err != nil {
		logging.Error("failed to encode replay", err, logging.Fields{"battle_id": b.ID})
		return ""
	}
	return string(out)
}

// sides returns the loaded A and B combatants for a battle, preferring
// the preloaded associations and falling back to lookups.
func (s *Service) sides(b *game.Battle) (*game.Combatant, *game.Combatant, error) {
	a := &b.CombatantA
	d := &b.CombatantB
	if a.ID == 0 {
		loaded, err := s.repo.GetCombatantByID(b.CombatantAID)
		if err != nil {
			return nil, nil, err
		}
		a = loaded
	}
	if d.ID == 0 {
		loaded, err := s.repo.GetCombatantByID(b.CombatantBID)
		if err != nil {
			return nil, nil, err
		}
		d = loaded
	}
	return a, d, nil
}
