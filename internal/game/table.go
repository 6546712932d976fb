package game

import (
	"fmt"
)

const (
	// MaxSeats is the fixed capacity of every table
	MaxSeats = 9

	// NoSeat marks an unset seat index
	NoSeat = -1
)

// Stakes used when a table is created without explicit configuration
const (
	DefaultSmallBlind = 10
	DefaultBigBlind   = 20
	DefaultMinBuyIn   = 1000
	DefaultMaxBuyIn   = 10000
)

// Config holds the immutable stakes of a table
type Config struct {
	SmallBlind int
	BigBlind   int
	MinBuyIn   int
	MaxBuyIn   int
}

// DefaultConfig returns the default stakes
func DefaultConfig() Config {
	return Config{
		SmallBlind: DefaultSmallBlind,
		BigBlind:   DefaultBigBlind,
		MinBuyIn:   DefaultMinBuyIn,
		MaxBuyIn:   DefaultMaxBuyIn,
	}
}

// Validate checks the stakes are usable
func (c Config) Validate() error {
	if c.SmallBlind <= 0 || c.BigBlind <= 0 {
		return fmt.Errorf("%w: blinds must be positive (%d/%d)", ErrInvalidConfig, c.SmallBlind, c.BigBlind)
	}
	if c.SmallBlind > c.BigBlind {
		return fmt.Errorf("%w: small blind %d exceeds big blind %d", ErrInvalidConfig, c.SmallBlind, c.BigBlind)
	}
	if c.MinBuyIn <= 0 || c.MinBuyIn > c.MaxBuyIn {
		return fmt.Errorf("%w: buy-in range %d-%d", ErrInvalidConfig, c.MinBuyIn, c.MaxBuyIn)
	}
	return nil
}

// SeatMask is a set of seat indices
type SeatMask uint16

// Has reports whether seat is in the set
func (m SeatMask) Has(seat int) bool {
	return seat >= 0 && seat < MaxSeats && m&(1<<uint(seat)) != 0
}

// With returns the set with seat added
func (m SeatMask) With(seat int) SeatMask {
	return m | 1<<uint(seat)
}

// Table is the per-table record
type Table struct {
	ID          uint64           `json:"id"`
	Creator     string           `json:"creator"` // Informational only, carries no authority
	Seats       [MaxSeats]string `json:"seats"`   // Identity per seat, "" = empty
	PlayerCount int              `json:"player_count"`
	Button      int              `json:"button"`
	Turn        int              `json:"turn"`
	Pot         int              `json:"pot"`
	CurrentBet  int              `json:"current_bet"`
	SmallBlind  int              `json:"small_blind"`
	BigBlind    int              `json:"big_blind"`
	MinBuyIn    int              `json:"min_buy_in"`
	MaxBuyIn    int              `json:"max_buy_in"`
	HandNumber  uint64           `json:"hand_number"`
	State       GameState        `json:"state"`

	BlindsPosted  SeatMask `json:"blinds_posted"`
	LastRaise     int      `json:"last_raise"`     // Size of the last raise this street, 0 if none
	LastAggressor int      `json:"last_aggressor"` // Seat of the last raiser this hand
	StreetRaises  int      `json:"street_raises"`

	DeckRef   string   `json:"deck_ref,omitempty"` // Opaque card service reference
	Community [5]uint8 `json:"community"`          // 0 = not revealed, 1-52 = card
}

// InitializeTable creates an empty table waiting for players
func InitializeTable(id uint64, creator string, cfg Config) (*Table, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Table{
		ID:            id,
		Creator:       creator,
		SmallBlind:    cfg.SmallBlind,
		BigBlind:      cfg.BigBlind,
		MinBuyIn:      cfg.MinBuyIn,
		MaxBuyIn:      cfg.MaxBuyIn,
		State:         WaitingForPlayers,
		LastAggressor: NoSeat,
	}, nil
}

// Occupied reports whether a seat holds a player
func (t *Table) Occupied(seat int) bool {
	return seat >= 0 && seat < MaxSeats && t.Seats[seat] != ""
}

// SeatOf returns the seat held by identity, or NoSeat
func (t *Table) SeatOf(identity string) int {
	if identity == "" {
		return NoSeat
	}
	for seat, id := range t.Seats {
		if id == identity {
			return seat
		}
	}
	return NoSeat
}

// Clone returns an independent copy of the record
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// String returns a one-line summary of the table
func (t *Table) String() string {
	return fmt.Sprintf("Table %d - Hand #%d - %s - Pot: %d - Bet: %d - Action on: seat %d",
		t.ID, t.HandNumber, t.State, t.Pot, t.CurrentBet, t.Turn)
}

// TableState is the aggregate the rules operate on: the table record plus the
// roster of player records indexed by seat. A roster slot may be nil for an
// occupied seat when the caller loaded only some records; operations that
// need the whole roster detect that.
type TableState struct {
	Table   *Table
	Players [MaxSeats]*Player
}

// NewTableState wraps a table and places each player at its position
func NewTableState(t *Table, players ...*Player) *TableState {
	ts := &TableState{Table: t}
	for _, p := range players {
		if p != nil && p.Position >= 0 && p.Position < MaxSeats {
			ts.Players[p.Position] = p
		}
	}
	return ts
}

// LoadTableState is NewTableState with consistency checks: every record must
// sit at a valid position that the table assigns to the same identity.
func LoadTableState(t *Table, players ...*Player) (*TableState, error) {
	ts := &TableState{Table: t}
	for _, p := range players {
		if p == nil {
			continue
		}
		if p.Position < 0 || p.Position >= MaxSeats {
			return nil, fmt.Errorf("player %s: %w %d", p.Identity, ErrInvalidPosition, p.Position)
		}
		if t.Seats[p.Position] != p.Identity {
			return nil, fmt.Errorf("player %s at seat %d: %w", p.Identity, p.Position, ErrNotAtTable)
		}
		ts.Players[p.Position] = p
	}
	return ts, nil
}

// Player returns the record at seat, or nil
func (ts *TableState) Player(seat int) *Player {
	if seat < 0 || seat >= MaxSeats {
		return nil
	}
	return ts.Players[seat]
}

// PlayerByIdentity returns the record for identity
func (ts *TableState) PlayerByIdentity(identity string) (*Player, error) {
	seat := ts.Table.SeatOf(identity)
	if seat == NoSeat || ts.Players[seat] == nil {
		return nil, ErrNotAtTable
	}
	return ts.Players[seat], nil
}

// RosterComplete reports whether every occupied seat has a loaded record
func (ts *TableState) RosterComplete() bool {
	for seat := range ts.Table.Seats {
		if ts.Table.Occupied(seat) && ts.Players[seat] == nil {
			return false
		}
	}
	return true
}

// Seated returns the loaded records in seat order
func (ts *TableState) Seated() []*Player {
	players := make([]*Player, 0, MaxSeats)
	for _, p := range ts.Players {
		if p != nil {
			players = append(players, p)
		}
	}
	return players
}

// Clone returns a deep copy of the aggregate
func (ts *TableState) Clone() *TableState {
	c := &TableState{Table: ts.Table.Clone()}
	for i, p := range ts.Players {
		c.Players[i] = p.Clone()
	}
	return c
}

// TotalChips returns the pot plus every loaded stack. Bets are moved into the
// pot as they are made, so this is invariant across any single action.
func (ts *TableState) TotalChips() int {
	total := ts.Table.Pot
	for _, p := range ts.Players {
		if p != nil {
			total += p.Stack
		}
	}
	return total
}

// ValidateChipConservation ensures that no chips were created or destroyed
func (ts *TableState) ValidateChipConservation(expectedTotal int) error {
	if actual := ts.TotalChips(); actual != expectedTotal {
		return fmt.Errorf("chip conservation violation: expected %d total chips, but found %d (difference: %d)",
			expectedTotal, actual, actual-expectedTotal)
	}
	return nil
}

// JoinTable seats identity at position with buyIn chips
func (ts *TableState) JoinTable(identity string, buyIn, position int) (*Player, error) {
	t := ts.Table

	if t.State != WaitingForPlayers {
		return nil, ErrGameInProgress
	}
	if t.PlayerCount >= MaxSeats {
		return nil, ErrTableFull
	}
	if buyIn < t.MinBuyIn || buyIn > t.MaxBuyIn {
		return nil, fmt.Errorf("%w: %d not in %d-%d", ErrInvalidBuyIn, buyIn, t.MinBuyIn, t.MaxBuyIn)
	}
	if position < 0 || position >= MaxSeats {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPosition, position)
	}
	if t.Occupied(position) {
		return nil, fmt.Errorf("%w: seat %d", ErrSeatTaken, position)
	}
	if identity == "" {
		return nil, fmt.Errorf("%w: empty player identity", ErrInvalidConfig)
	}
	if t.SeatOf(identity) != NoSeat {
		return nil, ErrAlreadySeated
	}

	p := &Player{
		Identity: identity,
		TableID:  t.ID,
		Stack:    buyIn,
		Position: position,
		Status:   Active,
	}
	t.Seats[position] = identity
	t.PlayerCount++
	ts.Players[position] = p
	return p, nil
}

// LeaveTable removes identity from the table and returns its final record so
// the caller can pay out the stack. A table left with fewer than two players
// goes back to waiting.
func (ts *TableState) LeaveTable(identity string) (*Player, error) {
	t := ts.Table

	if !t.State.CanSeatChange() {
		return nil, ErrCannotLeaveNow
	}
	seat := t.SeatOf(identity)
	if seat == NoSeat {
		return nil, ErrNotAtTable
	}

	p := ts.Players[seat]
	t.Seats[seat] = ""
	t.PlayerCount--
	ts.Players[seat] = nil
	if t.PlayerCount < 2 {
		t.State = WaitingForPlayers
	}
	return p, nil
}
