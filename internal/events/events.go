// Package events fans battle lifecycle notifications out to the
// presentation layer. Delivery is best effort; the game core never
// waits on or retries a notification.
package events

import (
	"github.com/jaeho-jang-dr/online-text-battle/internal/logging"
)

type Kind string

const (
	BattleMatched Kind = "battle-matched"
	BattleStarted Kind = "battle-started"
	BattleUpdated Kind = "battle-updated"
	BattleEnded   Kind = "battle-ended"
	QueueError    Kind = "queue-error"
)

// Event describes one lifecycle notification. WinnerID is set only on
// BattleEnded, nil there meaning a draw. Detail carries a human-readable
// note for QueueError.
type Event struct {
	Kind        Kind
	BattleID    uint
	CombatantID uint
	OpponentID  uint
	WinnerID    *uint
	Detail      string
}

type Notifier interface {
	Notify(e Event)
}

// logNotifier is the default sink until a push transport exists.
type logNotifier struct{}

func NewLogNotifier() Notifier { return logNotifier{} }

func (logNotifier) Notify(e Event) {
	fields := logging.Fields{"battle_id": e.BattleID}
	if e.CombatantID != 0 {
		fields["combatant_id"] = e.CombatantID
	}
	if e.OpponentID != 0 {
		fields["opponent_id"] = e.OpponentID
	}
	if e.Kind == BattleEnded {
		fields["winner_id"] = e.WinnerID
	}
	if e.Detail != "" {
		fields["detail"] = e.Detail
	}
	logging.Info("event "+string(e.Kind), fields)
}
