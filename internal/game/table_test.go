package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeTable(t *testing.T) {
	tbl, err := InitializeTable(7, "alice", DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, uint64(7), tbl.ID)
	assert.Equal(t, "alice", tbl.Creator)
	assert.Equal(t, WaitingForPlayers, tbl.State)
	assert.Equal(t, 0, tbl.PlayerCount)
	assert.Equal(t, 10, tbl.SmallBlind)
	assert.Equal(t, 20, tbl.BigBlind)
	assert.Equal(t, NoSeat, tbl.LastAggressor)
	for seat := range MaxSeats {
		assert.False(t, tbl.Occupied(seat))
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero small blind", Config{SmallBlind: 0, BigBlind: 20, MinBuyIn: 100, MaxBuyIn: 200}},
		{"small above big", Config{SmallBlind: 30, BigBlind: 20, MinBuyIn: 100, MaxBuyIn: 200}},
		{"inverted buy-in", Config{SmallBlind: 10, BigBlind: 20, MinBuyIn: 500, MaxBuyIn: 200}},
		{"zero buy-in", Config{SmallBlind: 10, BigBlind: 20, MinBuyIn: 0, MaxBuyIn: 200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InitializeTable(1, "alice", tt.cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	assert.NoError(t, Config{SmallBlind: 10, BigBlind: 10, MinBuyIn: 200, MaxBuyIn: 200}.Validate())
}

func TestJoinTable(t *testing.T) {
	ts := NewTestTableState(WithSeats())

	p, err := ts.JoinTable("alice", 2500, 4)
	require.NoError(t, err)

	assert.Equal(t, "alice", p.Identity)
	assert.Equal(t, uint64(1), p.TableID)
	assert.Equal(t, 2500, p.Stack)
	assert.Equal(t, 4, p.Position)
	assert.Equal(t, Active, p.Status)
	assert.Equal(t, "alice", ts.Table.Seats[4])
	assert.Equal(t, 1, ts.Table.PlayerCount)
	assert.Same(t, p, ts.Players[4])
	assert.Equal(t, 4, ts.Table.SeatOf("alice"))
}

func TestJoinTableRejections(t *testing.T) {
	tests := []struct {
		name     string
		identity string
		buyIn    int
		position int
		want     error
	}{
		{"buy-in below minimum", "carol", 999, 5, ErrInvalidBuyIn},
		{"buy-in above maximum", "carol", 10001, 5, ErrInvalidBuyIn},
		{"position out of range", "carol", 1000, MaxSeats, ErrInvalidPosition},
		{"negative position", "carol", 1000, -1, ErrInvalidPosition},
		{"seat taken", "carol", 1000, 0, ErrSeatTaken},
		{"empty identity", "", 1000, 5, ErrInvalidConfig},
		{"already seated", TestIdentity(1), 1000, 5, ErrAlreadySeated},
		{"buy-in checked before position", "carol", 5, 0, ErrInvalidBuyIn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := HeadsUpTable()
			before := ts.Clone()

			_, err := ts.JoinTable(tt.identity, tt.buyIn, tt.position)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, before, ts)
		})
	}
}

func TestJoinTableFull(t *testing.T) {
	ts := NewTestTableState(WithSeats(0, 1, 2, 3, 4, 5, 6, 7, 8))

	_, err := ts.JoinTable("latecomer", 1000, 3)
	assert.ErrorIs(t, err, ErrTableFull)
}

func TestJoinTableDuringHand(t *testing.T) {
	ts := HeadsUpTable()
	require.NoError(t, ts.StartHand())

	_, err := ts.JoinTable("carol", 5, 0)
	assert.ErrorIs(t, err, ErrGameInProgress, "state is checked first")
}

func TestLeaveTable(t *testing.T) {
	ts := NewTestTableState(WithSeats(0, 1, 2))

	p, err := ts.LeaveTable(TestIdentity(1))
	require.NoError(t, err)
	assert.Equal(t, 1, p.Position)
	assert.Equal(t, 5000, p.Stack)

	assert.Equal(t, 2, ts.Table.PlayerCount)
	assert.False(t, ts.Table.Occupied(1))
	assert.Nil(t, ts.Players[1])

	_, err = ts.LeaveTable(TestIdentity(1))
	assert.ErrorIs(t, err, ErrNotAtTable)
}

func TestLeaveTableDuringHand(t *testing.T) {
	ts := HeadsUpTable()
	require.NoError(t, ts.StartHand())

	_, err := ts.LeaveTable(TestIdentity(0))
	assert.ErrorIs(t, err, ErrCannotLeaveNow)
	assert.Equal(t, 2, ts.Table.PlayerCount)
}

func TestLeaveAfterHandReturnsToWaiting(t *testing.T) {
	ts := startedHand(t, HeadsUpTable())
	_, err := ts.EndHand(0, ts.Players[0])
	require.NoError(t, err)

	_, err = ts.LeaveTable(TestIdentity(1))
	require.NoError(t, err)
	assert.Equal(t, WaitingForPlayers, ts.Table.State)

	_, err = ts.JoinTable("carol", 1000, 1)
	assert.NoError(t, err, "table accepts players again")
}

func TestLoadTableState(t *testing.T) {
	src := NewTestTableState(WithSeats(0, 3))

	ts, err := LoadTableState(src.Table, src.Players[3], src.Players[0])
	require.NoError(t, err)
	assert.True(t, ts.RosterComplete())
	assert.Same(t, src.Players[0], ts.Players[0])

	partial, err := LoadTableState(src.Table, src.Players[3])
	require.NoError(t, err)
	assert.False(t, partial.RosterComplete())

	stranger := &Player{Identity: "mallory", Position: 3}
	_, err = LoadTableState(src.Table, stranger)
	assert.ErrorIs(t, err, ErrNotAtTable)

	misplaced := &Player{Identity: TestIdentity(0), Position: 12}
	_, err = LoadTableState(src.Table, misplaced)
	assert.ErrorIs(t, err, ErrInvalidPosition)
}

func TestPlayerByIdentity(t *testing.T) {
	ts := HeadsUpTable()

	p, err := ts.PlayerByIdentity(TestIdentity(1))
	require.NoError(t, err)
	assert.Equal(t, 1, p.Position)

	_, err = ts.PlayerByIdentity("nobody")
	assert.ErrorIs(t, err, ErrNotAtTable)
}

func TestValidateChipConservation(t *testing.T) {
	ts := startedHand(t, HeadsUpTable())

	assert.Equal(t, 10000, ts.TotalChips())
	assert.NoError(t, ts.ValidateChipConservation(10000))

	ts.Table.Pot += 5
	assert.ErrorContains(t, ts.ValidateChipConservation(10000), "difference: 5")
}

func TestIsRuleViolation(t *testing.T) {
	ts := HeadsUpTable()
	_, err := ts.JoinTable("carol", 1, 5)

	assert.True(t, IsRuleViolation(err))
	assert.False(t, IsRuleViolation(assert.AnError))
	assert.False(t, IsRuleViolation(nil))
}
