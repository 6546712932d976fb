package game

import "fmt"

// GameState is the table's position in the hand lifecycle
type GameState int

const (
	WaitingForPlayers GameState = iota
	PreFlop
	Flop
	Turn
	River
	Showdown
	HandComplete
)

var gameStateNames = [...]string{"waiting", "preflop", "flop", "turn", "river", "showdown", "complete"}

func (s GameState) String() string {
	if s < WaitingForPlayers || s > HandComplete {
		return "unknown"
	}
	return gameStateNames[s]
}

// MarshalText encodes the state by name
func (s GameState) MarshalText() ([]byte, error) {
	if s < WaitingForPlayers || s > HandComplete {
		return nil, fmt.Errorf("invalid game state %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state written by MarshalText
func (s *GameState) UnmarshalText(text []byte) error {
	for i, name := range gameStateNames {
		if name == string(text) {
			*s = GameState(i)
			return nil
		}
	}
	return fmt.Errorf("invalid game state %q", string(text))
}

// IsBettingStreet reports whether players may act in this state
func (s GameState) IsBettingStreet() bool {
	return s >= PreFlop && s <= River
}

// CanSeatChange reports whether players may leave in this state
func (s GameState) CanSeatChange() bool {
	return s == WaitingForPlayers || s == HandComplete
}

// next returns the state that follows a betting street
func (s GameState) next() (GameState, error) {
	switch s {
	case PreFlop:
		return Flop, nil
	case Flop:
		return Turn, nil
	case Turn:
		return River, nil
	case River:
		return Showdown, nil
	default:
		return s, fmt.Errorf("%w: cannot advance from %s", ErrWrongGameState, s)
	}
}

// StartHand begins the next hand: the button moves to the next occupied
// seat, every seated player is reset to active and the big blind becomes the
// standing bet. Blinds are posted separately with PostBlind.
func (ts *TableState) StartHand() error {
	t := ts.Table

	if t.PlayerCount < 2 {
		return ErrNotEnoughPlayers
	}
	if !t.State.CanSeatChange() {
		return ErrGameInProgress
	}

	for _, p := range ts.Players {
		if p != nil {
			p.resetForNewHand()
		}
	}

	t.HandNumber++
	t.State = PreFlop
	t.Pot = 0
	t.CurrentBet = t.BigBlind
	t.BlindsPosted = 0
	t.LastRaise = 0
	t.StreetRaises = 0
	t.LastAggressor = NoSeat
	t.DeckRef = ""
	t.Community = [5]uint8{}

	t.Button = NextOccupied(t.Seats, t.Button)
	// Under the gun: three seats past the button, skipping empty seats
	t.Turn = OccupiedFrom(t.Seats, t.Button+3)

	return nil
}

// AdvanceStreet moves to the next street without checking that betting is
// finished. Player street fields are left alone; use AdvanceStreetValidated
// when the whole roster is available.
func (ts *TableState) AdvanceStreet() error {
	t := ts.Table

	next, err := t.State.next()
	if err != nil {
		return err
	}

	t.State = next
	t.resetStreet()
	t.Turn = NextOccupied(t.Seats, t.Button)
	return nil
}

// AdvanceStreetValidated moves to the next street once the betting round is
// complete, resetting every player's street bet. The first seat after the
// button that can still act gets the turn.
func (ts *TableState) AdvanceStreetValidated() error {
	t := ts.Table

	next, err := t.State.next()
	if err != nil {
		return err
	}
	if !ts.IsRoundComplete() {
		return ErrBettingRoundNotComplete
	}

	ts.ResetForNewStreet()
	t.State = next
	t.resetStreet()

	turn, _, err := ts.NextToAct(t.Button)
	if err != nil {
		// Everyone left is all-in; the turn only needs to name a seated player
		turn = NextOccupied(t.Seats, t.Button)
	}
	t.Turn = turn
	return nil
}

func (t *Table) resetStreet() {
	t.CurrentBet = 0
	t.StreetRaises = 0
	t.LastRaise = 0
}

// CheckAutoWin awards the pot when exactly one player is still active. It
// returns the winning seat and the amount won; ok is false, and nothing
// changes, when zero or several players remain or the roster is only
// partially loaded. All-in players do not count as remaining.
func (ts *TableState) CheckAutoWin() (winner int, won int, ok bool) {
	winner = NoSeat
	if !ts.RosterComplete() {
		return NoSeat, 0, false
	}
	for seat, p := range ts.Players {
		if p == nil || p.Status != Active {
			continue
		}
		if winner != NoSeat {
			return NoSeat, 0, false
		}
		winner = seat
	}
	if winner == NoSeat {
		return NoSeat, 0, false
	}

	won = ts.awardPot(ts.Players[winner])
	return winner, won, true
}

// EndHand awards the whole pot to the player at winnerPosition. winner must
// be the record of the player seated there.
func (ts *TableState) EndHand(winnerPosition int, winner *Player) (int, error) {
	t := ts.Table

	if winnerPosition < 0 || winnerPosition >= MaxSeats {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPosition, winnerPosition)
	}
	if winner == nil || !t.Occupied(winnerPosition) || t.Seats[winnerPosition] != winner.Identity {
		return 0, fmt.Errorf("seat %d: %w", winnerPosition, ErrInvalidWinner)
	}

	return ts.awardPot(winner), nil
}

func (ts *TableState) awardPot(winner *Player) int {
	t := ts.Table
	won := t.Pot
	winner.Stack += won
	t.Pot = 0
	t.State = HandComplete
	return won
}
