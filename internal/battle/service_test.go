package battle

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/jaeho-jang-dr/online-text-battle/internal/events"
	"github.com/jaeho-jang-dr/online-text-battle/internal/game"
	"github.com/jaeho-jang-dr/online-text-battle/internal/judge"
	"github.com/jaeho-jang-dr/online-text-battle/internal/rating"
	"github.com/jaeho-jang-dr/online-text-battle/internal/storage"
)

type mockRepo struct {
	combatants map[uint]*game.Combatant
	battles    map[uint]*game.Battle
	actions    []game.Action
	settled    []storage.Settlement
	nextID     uint
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		combatants: map[uint]*game.Combatant{},
		battles:    map[uint]*game.Battle{},
	}
}

func (m *mockRepo) addCombatant(c *game.Combatant) *game.Combatant {
	m.combatants[c.ID] = c
	return c
}

func (m *mockRepo) GetCombatantByID(id uint) (*game.Combatant, error) {
	c, ok := m.combatants[id]
	if !ok {
		return nil, game.ErrCombatantNotFound
	}
	return c, nil
}

func (m *mockRepo) CreateBattle(b *game.Battle) error {
	m.nextID++
	b.ID = m.nextID
	m.battles[b.ID] = b
	return nil
}

func (m *mockRepo) GetBattleByID(id uint) (*game.Battle, error) {
	b, ok := m.battles[id]
	if !ok {
		return nil, game.ErrBattleNotFound
	}
	return b, nil
}

func (m *mockRepo) UpdateBattle(b *game.Battle) error {
	m.battles[b.ID] = b
	return nil
}

func (m *mockRepo) UpdateCombatant(c *game.Combatant) error {
	m.combatants[c.ID] = c
	return nil
}

func (m *mockRepo) AppendAction(a *game.Action) error {
	m.actions = append(m.actions, *a)
	return nil
}

func (m *mockRepo) FindActiveBattle(combatantID uint) (*game.Battle, error) {
	for _, b := range m.battles {
		if b.Status.Terminal() {
			continue
		}
		if b.CombatantAID == combatantID || b.CombatantBID == combatantID {
			return b, nil
		}
	}
	return nil, game.ErrBattleNotFound
}

func (m *mockRepo) FindTimedOutBattles(now time.Time) ([]game.Battle, error) {
	var out []game.Battle
	for _, b := range m.battles {
		if b.Status == game.StatusInProgress && !b.ActionDeadline.IsZero() && !b.ActionDeadline.After(now) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *mockRepo) SettleBattle(s storage.Settlement) error {
	m.settled = append(m.settled, s)
	m.battles[s.Battle.ID] = s.Battle
	return nil
}

func fighter(id uint, name string, health, attack, defense, speed int) *game.Combatant {
	c := &game.Combatant{
		Name:      name,
		Level:     1,
		Health:    health,
		MaxHealth: health,
		Mana:      50,
		MaxMana:   50,
		Attack:    attack,
		Defense:   defense,
		Speed:     speed,
		Rating:    1200,
		BattleCry: "for glory",
	}
	c.ID = id
	return c
}

type recordingNotifier struct {
	events []events.Event
}

func (r *recordingNotifier) Notify(e events.Event) {
	r.events = append(r.events, e)
}

func newTestService(repo *mockRepo) (*Service, *recordingNotifier) {
	h := judge.NewHeuristic(rand.New(rand.NewSource(7)))
	rec := &recordingNotifier{}
	return NewService(repo, rating.NewCalculator(0), h, rec, time.Minute, rand.New(rand.NewSource(7))), rec
}

func TestCreateRejectsSelfMatch(t *testing.T) {
	repo := newMockRepo()
	repo.addCombatant(fighter(1, "Ash", 100, 10, 4, 5))
	svc, _ := newTestService(repo)

	if _, err := svc.Create(1, 1, game.ModeTurns, false); !errors.Is(err, game.ErrSelfMatch) {
		t.Fatalf("expected ErrSelfMatch, got %v", err)
	}
}

func TestCreateOrdersByFasterSide(t *testing.T) {
	repo := newMockRepo()
	repo.addCombatant(fighter(1, "Slow", 100, 10, 4, 3))
	repo.addCombatant(fighter(2, "Fast", 100, 10, 4, 9))
	svc, _ := newTestService(repo)

	b, err := svc.Create(1, 2, game.ModeTurns, false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.CombatantAID != 2 {
		t.Fatalf("faster combatant should take side A, got A=%d", b.CombatantAID)
	}
	if b.TurnOf() != 2 {
		t.Fatalf("side A should hold turn 1")
	}
}

func TestCreateRejectsBusyCombatant(t *testing.T) {
	repo := newMockRepo()
	repo.addCombatant(fighter(1, "Ash", 100, 10, 4, 5))
	repo.addCombatant(fighter(2, "Brock", 100, 10, 4, 4))
	repo.addCombatant(fighter(3, "Misty", 100, 10, 4, 4))
	svc, _ := newTestService(repo)

	if _, err := svc.Create(1, 2, game.ModeTurns, false); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if _, err := svc.Create(1, 3, game.ModeTurns, false); !errors.Is(err, game.ErrAlreadyInBattle) {
		t.Fatalf("expected ErrAlreadyInBattle, got %v", err)
	}
}

func TestStartTransitions(t *testing.T) {
	repo := newMockRepo()
	repo.addCombatant(fighter(1, "Ash", 100, 10, 4, 5))
	repo.addCombatant(fighter(2, "Brock", 100, 10, 4, 4))
	svc, _ := newTestService(repo)

	b, _ := svc.Create(1, 2, game.ModeTurns, false)
	if _, err := svc.Start(b.ID, 99); !errors.Is(err, game.ErrNotAParticipant) {
		t.Fatalf("expected ErrNotAParticipant, got %v", err)
	}
	started, err := svc.Start(b.ID, 2)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if started.Status != game.StatusInProgress {
		t.Fatalf("status = %s", started.Status)
	}
	if started.ActionDeadline.IsZero() {
		t.Fatalf("deadline should be armed")
	}
	if _, err := svc.Start(b.ID, 1); !errors.Is(err, game.ErrBattleNotWaiting) {
		t.Fatalf("expected ErrBattleNotWaiting, got %v", err)
	}
}

func TestSubmitActionEnforcesTurnOrder(t *testing.T) {
	repo := newMockRepo()
	repo.addCombatant(fighter(1, "Ash", 100, 10, 4, 9))
	repo.addCombatant(fighter(2, "Brock", 100, 10, 4, 3))
	svc, _ := newTestService(repo)

	b, _ := svc.Create(1, 2, game.ModeTurns, false)
	if _, err := svc.SubmitAction(b.ID, 1, game.ActionAttack, 0); !errors.Is(err, game.ErrBattleNotInProgress) {
		t.Fatalf("expected ErrBattleNotInProgress before start, got %v", err)
	}
	svc.Start(b.ID, 1)

	if _, err := svc.SubmitAction(b.ID, 2, game.ActionAttack, 0); !errors.Is(err, game.ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
	updated, err := svc.SubmitAction(b.ID, 1, game.ActionAttack, 0)
	if err != nil {
		t.Fatalf("SubmitAction: %v", err)
	}
	if repo.combatants[2].Health >= 100 {
		t.Fatalf("defender should have taken damage, health=%d", repo.combatants[2].Health)
	}
	if updated.TurnOf() != 2 {
		t.Fatalf("turn should pass to side B")
	}
	if len(repo.actions) != 1 {
		t.Fatalf("one action row expected, got %d", len(repo.actions))
	}
}

func TestKnockoutSettlesWithElo(t *testing.T) {
	repo := newMockRepo()
	repo.addCombatant(fighter(1, "Ash", 100, 30, 0, 9))
	repo.addCombatant(fighter(2, "Brock", 1, 10, 0, 3))
	svc, _ := newTestService(repo)

	b, _ := svc.Create(1, 2, game.ModeTurns, false)
	svc.Start(b.ID, 1)
	done, err := svc.SubmitAction(b.ID, 1, game.ActionAttack, 0)
	if err != nil {
		t.Fatalf("SubmitAction: %v", err)
	}
	if done.Status != game.StatusFinished {
		t.Fatalf("battle should finish on knockout, status=%s", done.Status)
	}
	if done.WinnerID == nil || *done.WinnerID != 1 {
		t.Fatalf("winner should be 1, got %v", done.WinnerID)
	}
	if done.RatingAAfter != 1216 || done.RatingBAfter != 1184 {
		t.Fatalf("equal-rating knockout should move 16 points, got %d/%d", done.RatingAAfter, done.RatingBAfter)
	}
	if repo.combatants[1].Experience != 100 || repo.combatants[2].Experience != 50 {
		t.Fatalf("experience grants wrong: %d/%d", repo.combatants[1].Experience, repo.combatants[2].Experience)
	}
	if repo.combatants[2].Health != repo.combatants[2].MaxHealth {
		t.Fatalf("loser should leave restored, health=%d", repo.combatants[2].Health)
	}
	if len(repo.settled) != 1 || repo.settled[0].ResultA != game.ResultWin {
		t.Fatalf("settlement not recorded correctly: %+v", repo.settled)
	}
	if repo.settled[0].ReplayLog == "" {
		t.Fatalf("replay log should be written")
	}
}

func TestPracticeSkipsRating(t *testing.T) {
	repo := newMockRepo()
	repo.addCombatant(fighter(1, "Ash", 100, 30, 0, 9))
	bot := fighter(2, "Golem", 1, 10, 0, 3)
	bot.IsBot = true
	repo.addCombatant(bot)
	svc, _ := newTestService(repo)

	b, _ := svc.Create(1, 2, game.ModeTurns, true)
	svc.Start(b.ID, 1)
	done, err := svc.SubmitAction(b.ID, 1, game.ActionAttack, 0)
	if err != nil {
		t.Fatalf("SubmitAction: %v", err)
	}
	if done.Status != game.StatusFinished {
		t.Fatalf("battle should finish, status=%s", done.Status)
	}
	if repo.combatants[1].Rating != 1200 || repo.combatants[2].Rating != 1200 {
		t.Fatalf("practice must not move ratings: %d/%d", repo.combatants[1].Rating, repo.combatants[2].Rating)
	}
	if repo.combatants[1].Experience != 0 {
		t.Fatalf("practice must not grant experience, got %d", repo.combatants[1].Experience)
	}
}

func TestTurnCapHealthRatioTiebreak(t *testing.T) {
	repo := newMockRepo()
	repo.addCombatant(fighter(1, "Ash", 100, 1, 200, 9))
	repo.addCombatant(fighter(2, "Brock", 200, 1, 200, 3))
	svc, _ := newTestService(repo)

	b, _ := svc.Create(1, 2, game.ModeTurns, false)
	svc.Start(b.ID, 1)
	// High defense pins every hit to the 1-damage floor; walk to the cap.
	var err error
	for b.Status == game.StatusInProgress {
		b, err = svc.SubmitAction(b.ID, b.TurnOf(), game.ActionAttack, 0)
		if err != nil {
			t.Fatalf("SubmitAction: %v", err)
		}
	}
	if b.TurnCount != maxTurns {
		t.Fatalf("battle should run to the cap, turns=%d", b.TurnCount)
	}
	// Both sides lost 25 health; 175/200 beats 75/100.
	if b.WinnerID == nil || *b.WinnerID != 2 {
		t.Fatalf("higher health ratio should win at the cap, got %v", b.WinnerID)
	}
}

func TestSurrenderAwardsOpponent(t *testing.T) {
	repo := newMockRepo()
	repo.addCombatant(fighter(1, "Ash", 100, 10, 4, 9))
	repo.addCombatant(fighter(2, "Brock", 100, 10, 4, 3))
	svc, _ := newTestService(repo)

	b, _ := svc.Create(1, 2, game.ModeTurns, false)
	svc.Start(b.ID, 1)
	done, err := svc.Surrender(b.ID, 2)
	if err != nil {
		t.Fatalf("Surrender: %v", err)
	}
	if done.WinnerID == nil || *done.WinnerID != 1 {
		t.Fatalf("opponent should win on surrender, got %v", done.WinnerID)
	}
	if len(repo.actions) != 1 || repo.actions[0].Kind != game.ActionSurrender {
		t.Fatalf("surrender action should be recorded: %+v", repo.actions)
	}
	if repo.combatants[1].Experience != 50 || repo.combatants[2].Experience != 0 {
		t.Fatalf("surrender pays the winner only: %d/%d", repo.combatants[1].Experience, repo.combatants[2].Experience)
	}
}

func TestLifecycleEventsEmitted(t *testing.T) {
	repo := newMockRepo()
	repo.addCombatant(fighter(1, "Ash", 100, 30, 0, 9))
	repo.addCombatant(fighter(2, "Brock", 1, 10, 0, 3))
	svc, rec := newTestService(repo)

	b, _ := svc.Create(1, 2, game.ModeTurns, false)
	svc.Start(b.ID, 1)
	if _, err := svc.SubmitAction(b.ID, 1, game.ActionAttack, 0); err != nil {
		t.Fatalf("SubmitAction: %v", err)
	}

	kinds := make([]events.Kind, 0, len(rec.events))
	for _, e := range rec.events {
		kinds = append(kinds, e.Kind)
	}
	if len(kinds) != 2 || kinds[0] != events.BattleStarted || kinds[1] != events.BattleEnded {
		t.Fatalf("unexpected event sequence: %v", kinds)
	}
	last := rec.events[len(rec.events)-1]
	if last.WinnerID == nil || *last.WinnerID != 1 {
		t.Fatalf("ended event should carry the winner, got %v", last.WinnerID)
	}
}

func TestSubmitDefaultPlaysForTurnHolder(t *testing.T) {
	repo := newMockRepo()
	repo.addCombatant(fighter(1, "Ash", 100, 10, 4, 9))
	repo.addCombatant(fighter(2, "Brock", 100, 10, 4, 3))
	svc, _ := newTestService(repo)

	b, _ := svc.Create(1, 2, game.ModeTurns, false)
	svc.Start(b.ID, 1)
	updated, err := svc.SubmitDefault(b.ID)
	if err != nil {
		t.Fatalf("SubmitDefault: %v", err)
	}
	if updated.TurnOf() != 2 {
		t.Fatalf("default action should advance the turn")
	}
	if repo.combatants[2].Health >= 100 {
		t.Fatalf("default attack should land")
	}
}

func TestAbilityHealsAndSpendsMana(t *testing.T) {
	repo := newMockRepo()
	a := fighter(1, "Ash", 100, 10, 4, 9)
	a.Health = 60
	mend := game.Ability{Name: "Mend", ManaCost: 8, HealAmount: 20, Kind: game.AbilityHeal}
	mend.ID = 11
	a.Abilities = []game.CombatantAbility{{CombatantID: 1, AbilityID: 11, Ability: mend, Level: 2}}
	repo.addCombatant(a)
	repo.addCombatant(fighter(2, "Brock", 100, 10, 4, 3))
	svc, _ := newTestService(repo)

	b, _ := svc.Create(1, 2, game.ModeTurns, false)
	svc.Start(b.ID, 1)
	if _, err := svc.SubmitAction(b.ID, 1, game.ActionAbility, 11); err != nil {
		t.Fatalf("SubmitAction: %v", err)
	}
	// Level 2 heal: 20 + 5 = 25.
	if repo.combatants[1].Health != 85 {
		t.Fatalf("heal should land for 25, health=%d", repo.combatants[1].Health)
	}
	if repo.combatants[1].Mana != 42 {
		t.Fatalf("mana should drop by 8, mana=%d", repo.combatants[1].Mana)
	}
}

func TestUnknownAbilityRejected(t *testing.T) {
	repo := newMockRepo()
	repo.addCombatant(fighter(1, "Ash", 100, 10, 4, 9))
	repo.addCombatant(fighter(2, "Brock", 100, 10, 4, 3))
	svc, _ := newTestService(repo)

	b, _ := svc.Create(1, 2, game.ModeTurns, false)
	svc.Start(b.ID, 1)
	if _, err := svc.SubmitAction(b.ID, 1, game.ActionAbility, 404); !errors.Is(err, game.ErrAbilityNotFound) {
		t.Fatalf("expected ErrAbilityNotFound, got %v", err)
	}
}

func TestOneShotResolvesWithJudge(t *testing.T) {
	repo := newMockRepo()
	a := fighter(1, "Ash", 100, 10, 4, 9)
	a.BattleCry = "victory is mine! the invincible champion rises with fury and resolve!"
	d := fighter(2, "Brock", 100, 10, 4, 3)
	d.BattleCry = "ok"
	repo.addCombatant(a)
	repo.addCombatant(d)
	svc, _ := newTestService(repo)

	b, _ := svc.Create(1, 2, game.ModeOneShot, false)
	done, err := svc.ResolveOneShot(context.Background(), b.ID, 1)
	if err != nil {
		t.Fatalf("ResolveOneShot: %v", err)
	}
	if done.Status != game.StatusFinished {
		t.Fatalf("one-shot should settle immediately, status=%s", done.Status)
	}
	if done.WinnerID == nil {
		t.Fatalf("judge always names a winner")
	}
	if done.JudgeReason == "" {
		t.Fatalf("judgment reason should be stored")
	}
}

func TestOneShotRejectsEmptyCry(t *testing.T) {
	repo := newMockRepo()
	a := fighter(1, "Ash", 100, 10, 4, 9)
	a.BattleCry = ""
	repo.addCombatant(a)
	repo.addCombatant(fighter(2, "Brock", 100, 10, 4, 3))
	svc, _ := newTestService(repo)

	b, _ := svc.Create(1, 2, game.ModeOneShot, false)
	if _, err := svc.ResolveOneShot(context.Background(), b.ID, 1); !errors.Is(err, game.ErrEmptyBattleCry) {
		t.Fatalf("expected ErrEmptyBattleCry, got %v", err)
	}
}

func TestOneShotRejectsTurnsMode(t *testing.T) {
	repo := newMockRepo()
	repo.addCombatant(fighter(1, "Ash", 100, 10, 4, 9))
	repo.addCombatant(fighter(2, "Brock", 100, 10, 4, 3))
	svc, _ := newTestService(repo)

	b, _ := svc.Create(1, 2, game.ModeTurns, false)
	if _, err := svc.ResolveOneShot(context.Background(), b.ID, 1); !errors.Is(err, game.ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
}

func TestScanTimeoutsAutoPlays(t *testing.T) {
	repo := newMockRepo()
	repo.addCombatant(fighter(1, "Ash", 100, 10, 4, 9))
	repo.addCombatant(fighter(2, "Brock", 100, 10, 4, 3))
	svc, _ := newTestService(repo)

	b, _ := svc.Create(1, 2, game.ModeTurns, false)
	svc.Start(b.ID, 1)
	repo.battles[b.ID].ActionDeadline = time.Now().Add(-time.Second)

	svc.ScanTimeouts(time.Now())
	if repo.battles[b.ID].TurnCount != 1 {
		t.Fatalf("scanner should auto-play one action, turns=%d", repo.battles[b.ID].TurnCount)
	}
}
