package service

import (
	"fmt"
	"strings"

	"github.com/noah-isme/yellowcard-api/internal/models"
)

// Yellow card actions accepted by the counter rules.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
)

const (
	cardsPerDemerit    = 3
	demeritsBeforeWipe = 3
	unknownReason      = "Unknown"
)

// CounterState is the pair of counters the rules operate on.
type CounterState struct {
	YellowCards int
	Demerits    int
}

// Transition is the outcome of applying one action to a CounterState.
type Transition struct {
	Before  CounterState
	After   CounterState
	Changed bool
	Event   models.LogEvent
	Message string
	// Notify is set when a demerit was issued by this transition.
	Notify bool
}

// Description renders the persisted log line with the resulting counters.
func (t Transition) Description() string {
	return fmt.Sprintf("%s [Current: %d YC, %d D]", t.Message, t.After.YellowCards, t.After.Demerits)
}

// ApplyYellowCardAction runs the counter rules for a single add/remove action.
// A remove on zero cards is not an error; it reports Changed=false.
func ApplyYellowCardAction(state CounterState, action, reason, customReason string) (Transition, error) {
	t := Transition{Before: state, After: state}

	switch action {
	case ActionRemove:
		if state.YellowCards <= 0 {
			return t, nil
		}
		t.After.YellowCards--
		t.Changed = true
		t.Event = models.LogEventRemoved
		t.Message = models.RemovedPrefix
		return t, nil
	case "", ActionAdd:
	default:
		return t, fmt.Errorf("unknown yellow card action %q", action)
	}

	t.Changed = true
	t.Event = models.LogEventAdded
	t.After.YellowCards++
	t.Message = fmt.Sprintf("%s (%s)", models.AddedPrefix, reasonText(reason, customReason))

	if t.After.YellowCards >= cardsPerDemerit {
		t.After.Demerits++
		t.After.YellowCards -= cardsPerDemerit
		t.Message += " -> Converted to Demerit"
		t.Event = models.LogEventConvertedToDemerit
		t.Notify = true
	}
	if t.After.Demerits >= demeritsBeforeWipe {
		t.After = CounterState{}
		t.Message += " -> Reset (3 Demerits)"
		t.Event = models.LogEventAutoReset
	}
	return t, nil
}

// ManualResetTransition clears both counters. It never notifies.
func ManualResetTransition(state CounterState) Transition {
	return Transition{
		Before:  state,
		After:   CounterState{},
		Changed: true,
		Event:   models.LogEventManualReset,
		Message: models.ManualResetPrefix,
	}
}

func reasonText(reason, customReason string) string {
	reason = strings.TrimSpace(reason)
	customReason = strings.TrimSpace(customReason)
	if reason == "" {
		reason = unknownReason
	}
	if customReason != "" {
		return reason + ": " + customReason
	}
	return reason
}
