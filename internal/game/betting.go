package game

import (
	"fmt"
	"strings"
)

// Action represents a player action
type Action int

const (
	Fold Action = iota
	Check
	Call
	Raise
)

func (a Action) String() string {
	switch a {
	case Fold:
		return "fold"
	case Check:
		return "check"
	case Call:
		return "call"
	case Raise:
		return "raise"
	default:
		return "unknown"
	}
}

// ParseAction converts a name such as "raise" into an Action
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fold", "f":
		return Fold, nil
	case "check", "k":
		return Check, nil
	case "call", "c":
		return Call, nil
	case "raise", "r":
		return Raise, nil
	default:
		return 0, fmt.Errorf("invalid action: %q", s)
	}
}

// MarshalText encodes the action by name
func (a Action) MarshalText() ([]byte, error) {
	if a < Fold || a > Raise {
		return nil, fmt.Errorf("invalid action %d", int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText decodes an action written by MarshalText
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ActionResult describes the effect of an applied action
type ActionResult struct {
	Seat   int
	Action Action
	Amount int // Chips moved from the stack into the pot
	ToBet  int // The player's street bet after the action

	NextTurn     int
	DegradedTurn bool // Roster incomplete, turn moved to the next occupied seat unchecked
	NoneEligible bool // Nobody left to act, turn unchanged
}

// ValidAction is an action a seat may take, with the chips it would cost
type ValidAction struct {
	Action    Action
	MinAmount int // For Raise: the raise size; for Call: the chips paid
	MaxAmount int
}

// minimumRaise is the smallest raise size allowed right now: the previous
// raise on this street, or the big blind if nobody has raised.
func (t *Table) minimumRaise() int {
	if t.LastRaise > 0 {
		return t.LastRaise
	}
	return t.BigBlind
}

// ApplyAction validates and applies action for the player at seat.
// raiseAmount is the size of the raise on top of the table's current bet and
// is ignored for other actions. Nothing is mutated when an error is returned.
func (ts *TableState) ApplyAction(seat int, action Action, raiseAmount int) (ActionResult, error) {
	t := ts.Table
	p := ts.Player(seat)
	if p == nil || !t.Occupied(seat) {
		return ActionResult{}, ErrNotAtTable
	}
	if p.Status != Active {
		return ActionResult{}, ErrPlayerNotActive
	}
	if t.Turn != p.Position {
		return ActionResult{}, ErrNotYourTurn
	}
	if !t.State.IsBettingStreet() {
		return ActionResult{}, ErrWrongGameState
	}

	res := ActionResult{Seat: seat, Action: action}

	switch action {
	case Fold:
		p.Status = Folded

	case Check:
		if p.CurrentBet != t.CurrentBet {
			return ActionResult{}, fmt.Errorf("%w: %d to call", ErrCannotCheck, t.CurrentBet-p.CurrentBet)
		}

	case Call:
		owed := max(0, t.CurrentBet-p.CurrentBet)
		paid := min(owed, p.Stack)
		p.commit(paid)
		t.Pot += paid
		if p.Stack == 0 {
			p.Status = AllIn
		}
		res.Amount = paid

	case Raise:
		// Checked before adding: a huge amount would overflow the target
		if maxRaise := p.Stack + p.CurrentBet - t.CurrentBet; raiseAmount > maxRaise {
			return ActionResult{}, fmt.Errorf("%w: raise of %d, stack covers %d", ErrInsufficientFunds, raiseAmount, max(0, maxRaise))
		}
		target := t.CurrentBet + raiseAmount
		delta := max(0, target-p.CurrentBet)
		if minimum := t.minimumRaise(); raiseAmount < minimum {
			return ActionResult{}, fmt.Errorf("%w: minimum %d", ErrRaiseTooSmall, minimum)
		}
		p.Stack -= delta
		p.CurrentBet = target
		t.CurrentBet = target
		t.Pot += delta
		t.StreetRaises++
		t.LastRaise = raiseAmount
		t.LastAggressor = p.Position
		if p.Stack == 0 {
			p.Status = AllIn
		}
		res.Amount = delta

	default:
		return ActionResult{}, fmt.Errorf("invalid action: %d", int(action))
	}

	p.HasActed = true
	res.ToBet = p.CurrentBet

	next, degraded, err := ts.NextToAct(seat)
	res.DegradedTurn = degraded
	if err != nil {
		res.NoneEligible = true
		res.NextTurn = t.Turn
	} else {
		t.Turn = next
		res.NextTurn = next
	}

	return res, nil
}

// IsRoundComplete reports whether the current street's betting is finished:
// everyone still able to act has acted and matched the current bet. All-in
// players are exempt from matching. A street where every player folded is
// complete. A partially loaded roster is never complete.
func (ts *TableState) IsRoundComplete() bool {
	if !ts.RosterComplete() {
		return false
	}
	for _, p := range ts.Players {
		if p == nil || p.Status != Active {
			continue
		}
		if !p.HasActed || p.CurrentBet != ts.Table.CurrentBet {
			return false
		}
	}
	return true
}

// ResetForNewStreet clears every player's street bet and acted flag.
// Folded and all-in players keep their status.
func (ts *TableState) ResetForNewStreet() {
	for _, p := range ts.Players {
		if p != nil {
			p.resetForNewStreet()
		}
	}
}

// ValidActions returns the actions the player at seat may take now
func (ts *TableState) ValidActions(seat int) []ValidAction {
	t := ts.Table
	p := ts.Player(seat)
	if p == nil || !p.CanAct() || t.Turn != seat || !t.State.IsBettingStreet() {
		return nil
	}

	actions := []ValidAction{{Action: Fold}}
	toCall := max(0, t.CurrentBet-p.CurrentBet)

	if toCall == 0 {
		actions = append(actions, ValidAction{Action: Check})
	} else {
		paid := min(toCall, p.Stack)
		actions = append(actions, ValidAction{Action: Call, MinAmount: paid, MaxAmount: paid})
	}

	// Largest raise the stack covers: target - player bet <= stack
	maxRaise := p.Stack + p.CurrentBet - t.CurrentBet
	if minimum := t.minimumRaise(); maxRaise >= minimum {
		actions = append(actions, ValidAction{Action: Raise, MinAmount: minimum, MaxAmount: maxRaise})
	}

	return actions
}
