package dealer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokertable/internal/game"
)

func TestLocalDeal(t *testing.T) {
	ctx := context.Background()
	d := Local{Salt: 11}

	ref, err := d.NewDeck(ctx, 3, 1)
	require.NoError(t, err)

	flop, err := d.Reveal(ctx, ref, game.Flop)
	require.NoError(t, err)
	require.Len(t, flop, 3)
	turn, err := d.Reveal(ctx, ref, game.Turn)
	require.NoError(t, err)
	require.Len(t, turn, 1)
	river, err := d.Reveal(ctx, ref, game.River)
	require.NoError(t, err)
	require.Len(t, river, 1)

	none, err := d.Reveal(ctx, ref, game.Showdown)
	require.NoError(t, err)
	assert.Empty(t, none)

	seen := map[uint8]bool{}
	for _, c := range append(append(flop, turn...), river...) {
		assert.GreaterOrEqual(t, c, uint8(1))
		assert.LessOrEqual(t, c, uint8(52))
		seen[c] = true
	}
	for seat := range game.MaxSeats {
		holeRef, err := d.HoleCards(ctx, ref, seat)
		require.NoError(t, err)
		cards, err := d.Cards(holeRef)
		require.NoError(t, err)
		for _, c := range cards {
			seen[c] = true
		}
	}
	assert.Len(t, seen, 5+2*game.MaxSeats, "no card is dealt twice")
}

func TestLocalIsDeterministic(t *testing.T) {
	ctx := context.Background()

	refA, _ := Local{}.NewDeck(ctx, 1, 1)
	refB, _ := Local{}.NewDeck(ctx, 1, 1)
	refC, _ := Local{}.NewDeck(ctx, 1, 2)
	require.Equal(t, refA, refB)

	a, err := Local{}.Reveal(ctx, refA, game.Flop)
	require.NoError(t, err)
	b, err := Local{}.Reveal(ctx, refB, game.Flop)
	require.NoError(t, err)
	c, err := Local{}.Reveal(ctx, refC, game.Flop)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c, "each hand gets its own shuffle")
}

func TestLocalRejectsForeignReferences(t *testing.T) {
	ctx := context.Background()

	_, err := Local{}.Reveal(ctx, "mpc:abc", game.Flop)
	assert.ErrorIs(t, err, ErrUnknownDeck)

	_, err = Local{}.HoleCards(ctx, "mpc:abc", 0)
	assert.ErrorIs(t, err, ErrUnknownDeck)

	ref, _ := Local{}.NewDeck(ctx, 1, 1)
	_, err = Local{}.HoleCards(ctx, ref, game.MaxSeats)
	assert.ErrorIs(t, err, game.ErrInvalidPosition)

	_, err = Local{}.Cards("local:0:1:1")
	assert.ErrorIs(t, err, ErrUnknownDeck)
}

func TestCardString(t *testing.T) {
	assert.Equal(t, "2c", CardString(1))
	assert.Equal(t, "Ac", CardString(13))
	assert.Equal(t, "2d", CardString(14))
	assert.Equal(t, "As", CardString(52))
	assert.Equal(t, "--", CardString(0))
}
