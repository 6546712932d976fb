package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlindSeats(t *testing.T) {
	t.Run("four handed", func(t *testing.T) {
		ts := FourHandedTable()
		require.NoError(t, ts.StartHand())

		assert.Equal(t, 1, ts.Table.Button)
		assert.Equal(t, 2, ts.Table.SmallBlindSeat())
		assert.Equal(t, 3, ts.Table.BigBlindSeat())
		assert.Equal(t, 0, ts.Table.Turn, "under the gun wraps past the empty seats")
	})

	t.Run("skips empty seats", func(t *testing.T) {
		ts := NewTestTableState(WithSeats(0, 3, 7))
		require.NoError(t, ts.StartHand())

		assert.Equal(t, 3, ts.Table.Button)
		assert.Equal(t, 7, ts.Table.SmallBlindSeat())
		assert.Equal(t, 0, ts.Table.BigBlindSeat())
	})

	t.Run("heads-up follows the ring", func(t *testing.T) {
		ts := HeadsUpTable()
		require.NoError(t, ts.StartHand())

		// Button moves off seat 0, so seat 0 posts the small blind and
		// the button posts the big blind.
		assert.Equal(t, 1, ts.Table.Button)
		assert.Equal(t, 0, ts.Table.SmallBlindSeat())
		assert.Equal(t, 1, ts.Table.BigBlindSeat())
		assert.Equal(t, 0, ts.Table.Turn)
	})
}

func TestPostBlind(t *testing.T) {
	ts := FourHandedTable()
	require.NoError(t, ts.StartHand())

	sb, err := ts.PostBlind(2)
	require.NoError(t, err)
	assert.Equal(t, BlindResult{Seat: 2, Amount: 10}, sb)

	bb, err := ts.PostBlind(3)
	require.NoError(t, err)
	assert.Equal(t, BlindResult{Seat: 3, Amount: 20}, bb)

	assert.Equal(t, 30, ts.Table.Pot)
	assert.Equal(t, 4990, ts.Players[2].Stack)
	assert.Equal(t, 4980, ts.Players[3].Stack)
	assert.Equal(t, 10, ts.Players[2].CurrentBet)
	assert.Equal(t, 20, ts.Players[3].CurrentBet)
	assert.True(t, ts.Players[2].HasActed)
	assert.True(t, ts.Players[3].HasActed)
	assert.True(t, ts.Table.BlindsPosted.Has(2))
	assert.True(t, ts.Table.BlindsPosted.Has(3))
	assert.False(t, ts.Table.BlindsPosted.Has(0))
}

func TestPostBlindTwice(t *testing.T) {
	ts := HeadsUpTable()
	require.NoError(t, ts.StartHand())

	_, err := ts.PostBlind(0)
	require.NoError(t, err)

	before := ts.Clone()
	_, err = ts.PostBlind(0)
	require.ErrorIs(t, err, ErrAlreadyPostedBlind)

	assert.Equal(t, before, ts, "second post must not move chips")
	assert.Equal(t, 4990, ts.Players[0].Stack, "first post stays applied")
	assert.Equal(t, 10, ts.Table.Pot)
}

func TestPostBlindRejections(t *testing.T) {
	t.Run("wrong game state", func(t *testing.T) {
		ts := HeadsUpTable()
		_, err := ts.PostBlind(0)
		assert.ErrorIs(t, err, ErrWrongGameState)
	})

	t.Run("not a blind seat", func(t *testing.T) {
		ts := FourHandedTable()
		require.NoError(t, ts.StartHand())
		_, err := ts.PostBlind(0)
		assert.ErrorIs(t, err, ErrNotBlindPosition)
	})

	t.Run("empty seat", func(t *testing.T) {
		ts := FourHandedTable()
		require.NoError(t, ts.StartHand())
		_, err := ts.PostBlind(6)
		assert.ErrorIs(t, err, ErrNotAtTable)
	})

	t.Run("insufficient funds", func(t *testing.T) {
		ts := FourHandedTable()
		require.NoError(t, ts.StartHand())
		ts.Players[3].Stack = 15

		before := ts.Clone()
		_, err := ts.PostBlind(3)
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.Equal(t, before, ts)
	})
}
