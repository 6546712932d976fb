package game

import "fmt"

// SmallBlindSeat is the first occupied seat after the button
func (t *Table) SmallBlindSeat() int {
	return NextOccupied(t.Seats, t.Button)
}

// BigBlindSeat is the first occupied seat after the small blind. Heads-up is
// not special-cased: with two players the ring decides both seats.
func (t *Table) BigBlindSeat() int {
	return NextOccupied(t.Seats, t.SmallBlindSeat())
}

// BlindFor returns the blind owed by seat this hand
func (t *Table) BlindFor(seat int) (int, error) {
	switch seat {
	case t.SmallBlindSeat():
		return t.SmallBlind, nil
	case t.BigBlindSeat():
		return t.BigBlind, nil
	default:
		return 0, ErrNotBlindPosition
	}
}

// BlindResult describes a posted blind
type BlindResult struct {
	Seat   int
	Amount int
}

// PostBlind posts the small or big blind for the player at seat. Each seat
// may post once per hand.
func (ts *TableState) PostBlind(seat int) (BlindResult, error) {
	t := ts.Table

	if t.State != PreFlop {
		return BlindResult{}, ErrWrongGameState
	}
	p := ts.Player(seat)
	if p == nil || !t.Occupied(seat) {
		return BlindResult{}, ErrNotAtTable
	}
	if t.BlindsPosted.Has(seat) {
		return BlindResult{}, fmt.Errorf("seat %d: %w", seat, ErrAlreadyPostedBlind)
	}
	amount, err := t.BlindFor(seat)
	if err != nil {
		return BlindResult{}, fmt.Errorf("seat %d: %w", seat, err)
	}
	if p.Stack < amount {
		return BlindResult{}, fmt.Errorf("%w: blind %d, stack %d", ErrInsufficientFunds, amount, p.Stack)
	}

	p.Stack -= amount
	p.CurrentBet = amount
	p.HasActed = true
	t.Pot += amount
	t.BlindsPosted = t.BlindsPosted.With(seat)

	return BlindResult{Seat: seat, Amount: amount}, nil
}
