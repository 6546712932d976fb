// Package game implements the rules engine for a single no-limit hold'em
// table: seat and turn sequencing, blinds, betting legality, round
// completion, street advancement and pot resolution.
//
// The package is a pure state-transition library. Callers own persistence,
// identity checks and concurrency control; every operation reads a
// TableState, mutates it in place on success and leaves it untouched when it
// returns an error.
//
// # Basic Usage
//
//	t, _ := game.InitializeTable(1, "creator", game.DefaultConfig())
//	ts := game.NewTableState(t)
//	ts.JoinTable("alice", 5000, 0)
//	ts.JoinTable("bob", 5000, 1)
//	ts.StartHand()
//	ts.PostBlind(ts.Table.SmallBlindSeat())
//	ts.PostBlind(ts.Table.BigBlindSeat())
//	ts.ApplyAction(ts.Table.Turn, game.Raise, 40)
//
// # Architecture
//
// TableState delegates responsibilities to small components:
//   - SeatRing (ring.go): scans the fixed seat array, skipping empty and
//     ineligible seats
//   - BlindAssigner (blinds.go): derives blind seats from the button and
//     guards against duplicate posts
//   - BettingRound (betting.go): validates and applies player actions and
//     decides when a street is finished
//   - HandLifecycle (hand.go): starts hands, advances streets and awards the
//     pot
//
// Only a single pot with a single winner is modelled. Side pots and showdown
// ranking belong to the caller.
package game
