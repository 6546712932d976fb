package game

import "fmt"

// TestTableOption configures test table creation
type TestTableOption func(*testTableBuilder)

type testTableBuilder struct {
	id     uint64
	config Config
	seats  []int
	stack  int
}

// Test table options
func WithTableID(id uint64) TestTableOption {
	return func(b *testTableBuilder) { b.id = id }
}

func WithBlinds(small, big int) TestTableOption {
	return func(b *testTableBuilder) {
		b.config.SmallBlind = small
		b.config.BigBlind = big
	}
}

func WithSeats(seats ...int) TestTableOption {
	return func(b *testTableBuilder) { b.seats = seats }
}

func WithStack(stack int) TestTableOption {
	return func(b *testTableBuilder) { b.stack = stack }
}

// TestIdentity is the identity NewTestTableState gives the player at seat
func TestIdentity(seat int) string {
	return fmt.Sprintf("player%d", seat)
}

// NewTestTableState creates a table in WaitingForPlayers with a player
// joined at each configured seat. It panics on invalid options.
func NewTestTableState(opts ...TestTableOption) *TableState {
	builder := &testTableBuilder{
		id:     1,
		config: DefaultConfig(),
		seats:  []int{0, 1},
		stack:  5000,
	}

	for _, opt := range opts {
		opt(builder)
	}

	t, err := InitializeTable(builder.id, "test", builder.config)
	if err != nil {
		panic(err)
	}
	ts := NewTableState(t)
	for _, seat := range builder.seats {
		if _, err := ts.JoinTable(TestIdentity(seat), builder.config.MinBuyIn, seat); err != nil {
			panic(err)
		}
		ts.Players[seat].Stack = builder.stack
	}
	return ts
}

// Convenience functions for common scenarios
func HeadsUpTable() *TableState {
	return NewTestTableState(WithSeats(0, 1))
}

func FourHandedTable() *TableState {
	return NewTestTableState(WithSeats(0, 1, 2, 3))
}
