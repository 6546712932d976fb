package display

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokertable/internal/events"
	"github.com/lox/pokertable/internal/game"
)

func headsUpHand(t *testing.T) *game.TableState {
	t.Helper()
	tbl, err := game.InitializeTable(1, "host", game.DefaultConfig())
	require.NoError(t, err)
	ts := game.NewTableState(tbl)
	_, err = ts.JoinTable("alice", 5000, 0)
	require.NoError(t, err)
	_, err = ts.JoinTable("bob", 5000, 1)
	require.NoError(t, err)
	return ts
}

func TestRenderWaitingTable(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, PlainStyles())
	r.Table(headsUpHand(t))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Table #1 • 10/20 • waiting\n"), out)
	assert.Contains(t, out, "  Seat 0: alice - 5000\n")
	assert.Contains(t, out, "  Seat 1: bob - 5000\n")
	assert.NotContains(t, out, "Board:")
}

func TestRenderHandInProgress(t *testing.T) {
	ts := headsUpHand(t)
	require.NoError(t, ts.StartHand())
	_, err := ts.PostBlind(0)
	require.NoError(t, err)
	_, err = ts.PostBlind(1)
	require.NoError(t, err)
	ts.Table.Community = [5]uint8{13, 26, 40, 0, 0}

	var buf bytes.Buffer
	r := New(&buf, PlainStyles())
	r.Table(ts)

	out := buf.String()
	assert.Contains(t, out, "Table #1 • Hand #1 • 10/20 • preflop\n")
	assert.Contains(t, out, "Board: [Ac Ad 2s]\n")
	assert.Contains(t, out, "Pot: 30 • Bet: 20\n")
	assert.Contains(t, out, "> Seat 0: alice SB - 4990 (bet 10)\n")
	assert.Contains(t, out, "  Seat 1: bob BTN/BB - 4980 (bet 20)\n")

	_, err = ts.ApplyAction(0, game.Fold, 0)
	require.NoError(t, err)
	buf.Reset()
	r.Table(ts)
	assert.Contains(t, buf.String(), "Seat 0: alice SB - 4990 (bet 10) folded\n")
}

func TestRenderPartialRoster(t *testing.T) {
	ts := headsUpHand(t)
	ts.Players[1] = nil

	var buf bytes.Buffer
	New(&buf, PlainStyles()).Table(ts)
	assert.Contains(t, buf.String(), "Seat 1: bob (not loaded)\n")
}

func TestRenderValidActions(t *testing.T) {
	ts := headsUpHand(t)
	require.NoError(t, ts.StartHand())
	_, err := ts.PostBlind(0)
	require.NoError(t, err)
	_, err = ts.PostBlind(1)
	require.NoError(t, err)

	var buf bytes.Buffer
	r := New(&buf, PlainStyles())
	r.ValidActions(ts.ValidActions(0))
	assert.Equal(t, "Actions: fold, call 10, raise 20-4980\n", buf.String())

	buf.Reset()
	r.ValidActions(ts.ValidActions(1))
	assert.Equal(t, "No actions available\n", buf.String())
}

func TestRenderEvents(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, PlainStyles())
	ctx := context.Background()

	flop := events.New(events.KindStreetAdvanced, 1, 1)
	flop.Street, flop.Pot, flop.Cards = "flop", 120, []int{13, 26, 40}
	require.NoError(t, r.Publish(ctx, flop))

	call := events.New(events.KindPlayerActioned, 1, 1)
	call.Identity, call.Action, call.Amount, call.Pot = "bob", "call", 20, 140
	require.NoError(t, r.Publish(ctx, call))

	won := events.New(events.KindHandComplete, 1, 1)
	won.Identity, won.Amount = "bob", 140
	require.NoError(t, r.Publish(ctx, won))

	assert.Equal(t,
		"\n*** FLOP *** [Ac Ad 2s] (pot: 120)\n"+
			"bob: calls 20 (pot now: 140)\n"+
			"bob: collected 140 from pot\n",
		buf.String())
}

func TestCardColours(t *testing.T) {
	r := New(&bytes.Buffer{}, PlainStyles())
	assert.Equal(t, "Ah", r.Card(39))
	assert.Equal(t, "--", r.Card(0))
	assert.Equal(t, "[]", r.Cards([]uint8{0, 5}))
}
