package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokertable/internal/config"
	"github.com/lox/pokertable/internal/game"
)

func testApp(t *testing.T, dir string, out *bytes.Buffer) *app {
	t.Helper()
	g := &Globals{
		Config:   filepath.Join(dir, "pokertable.hcl"),
		LogLevel: "error",
		Backend:  "file",
		Path:     filepath.Join(dir, "ledger"),
		NoColor:  true,
	}
	a, err := newApp(g, out)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestCommandsPlayAHand(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	a := testApp(t, dir, &out)

	require.NoError(t, (&InitCmd{Table: 1, Creator: "host"}).Run(a))
	require.NoError(t, (&JoinCmd{Table: 1, Identity: "alice", Seat: 0}).Run(a))
	require.NoError(t, (&JoinCmd{Table: 1, Identity: "bob", Seat: 1, BuyIn: 2000}).Run(a))
	require.NoError(t, (&StartCmd{Table: 1, Blinds: true}).Run(a))

	err := (&AdvanceCmd{Table: 1, Validated: true}).Run(a)
	assert.ErrorIs(t, err, game.ErrBettingRoundNotComplete)
	assert.True(t, game.IsRuleViolation(err))

	require.NoError(t, (&ActCmd{Table: 1, Identity: "alice", Action: "call"}).Run(a))
	require.NoError(t, (&ActCmd{Table: 1, Identity: "bob", Action: "check"}).Run(a))
	require.NoError(t, (&AdvanceCmd{Table: 1, Validated: true}).Run(a))

	history := out.String()
	assert.Contains(t, history, "alice: sits at seat 0 with 1000")
	assert.Contains(t, history, "bob: sits at seat 1 with 2000")
	assert.Contains(t, history, "alice: calls 10 (pot now: 40)")
	assert.Contains(t, history, "*** FLOP ***")

	// A second process sees the same table
	out.Reset()
	b := testApp(t, dir, &out)
	require.NoError(t, (&ShowCmd{Table: 1}).Run(b))
	shown := out.String()
	assert.Contains(t, shown, "Table #1 • Hand #1 • 10/20 • flop")
	assert.Contains(t, shown, "Pot: 40")
	assert.Contains(t, shown, "Actions: fold, check, raise 20-")

	err = (&ActCmd{Table: 1, Identity: "alice", Action: "raise"}).Run(b)
	assert.ErrorIs(t, err, game.ErrRaiseTooSmall)
}

func TestCommandsFoldAndAutowin(t *testing.T) {
	var out bytes.Buffer
	a := testApp(t, t.TempDir(), &out)

	require.NoError(t, (&InitCmd{Table: 5}).Run(a))
	require.NoError(t, (&JoinCmd{Table: 5, Identity: "alice", Seat: 3}).Run(a))
	require.NoError(t, (&JoinCmd{Table: 5, Seat: 7}).Run(a))
	require.NoError(t, (&StartCmd{Table: 5}).Run(a))

	ts, err := a.svc.Snapshot(t.Context(), 5)
	require.NoError(t, err)
	sb, bb := ts.Table.Seats[ts.Table.SmallBlindSeat()], ts.Table.Seats[ts.Table.BigBlindSeat()]
	require.NoError(t, (&BlindCmd{Table: 5, Identity: sb}).Run(a))
	require.NoError(t, (&BlindCmd{Table: 5, Identity: bb}).Run(a))

	require.NoError(t, (&ActCmd{Table: 5, Identity: ts.Table.Seats[ts.Table.Turn], Action: "fold"}).Run(a))
	require.NoError(t, (&AutowinCmd{Table: 5}).Run(a))
	assert.Contains(t, out.String(), "collected 30 from pot")

	require.NoError(t, (&LeaveCmd{Table: 5, Identity: "alice"}).Run(a))
	ts, err = a.svc.Snapshot(t.Context(), 5)
	require.NoError(t, err)
	assert.Equal(t, game.WaitingForPlayers, ts.Table.State)

	out.Reset()
	require.NoError(t, (&ShowCmd{}).Run(a))
	assert.Contains(t, out.String(), "Table #5")
}

func TestCommandsShowdown(t *testing.T) {
	var out bytes.Buffer
	a := testApp(t, t.TempDir(), &out)

	require.NoError(t, (&InitCmd{Table: 2}).Run(a))
	require.NoError(t, (&JoinCmd{Table: 2, Identity: "alice", Seat: 0}).Run(a))
	require.NoError(t, (&JoinCmd{Table: 2, Identity: "bob", Seat: 1}).Run(a))
	require.NoError(t, (&StartCmd{Table: 2, Blinds: true}).Run(a))
	for i := 0; i < 4; i++ {
		require.NoError(t, (&AdvanceCmd{Table: 2}).Run(a))
	}
	require.NoError(t, (&EndCmd{Table: 2, Winner: 1}).Run(a))
	assert.Contains(t, out.String(), "bob: collected 30 from pot")
}

func TestNamedStakesFromConfig(t *testing.T) {
	dir := t.TempDir()
	hcl := `
log_level = "error"

table "micro" {
  small_blind = 1
  big_blind   = 2
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pokertable.hcl"), []byte(hcl), 0o644))

	var out bytes.Buffer
	a := testApp(t, dir, &out)
	require.NoError(t, (&InitCmd{Table: 9, Stakes: "micro"}).Run(a))

	ts, err := a.svc.Snapshot(t.Context(), 9)
	require.NoError(t, err)
	assert.Equal(t, 2, ts.Table.BigBlind)
	assert.Equal(t, 100, ts.Table.MinBuyIn)

	assert.Error(t, (&InitCmd{Table: 10, Stakes: "nosuch"}).Run(a))
}

func TestSimulateCommand(t *testing.T) {
	var out bytes.Buffer
	a := testApp(t, t.TempDir(), &out)

	require.NoError(t, (&SimulateCmd{Tables: 2, Hands: 10, Players: 4, FirstTable: 1000}).Run(a))
	assert.Contains(t, out.String(), "Tables: 2\n")
	assert.Contains(t, out.String(), "Hands: 20 ")
	assert.NotContains(t, out.String(), "***", "hand history is suppressed")
}

func TestNewAppRejectsBadConfig(t *testing.T) {
	g := &Globals{Config: filepath.Join(t.TempDir(), "missing.hcl"), Backend: "postgres"}
	_, err := newApp(g, &bytes.Buffer{})
	assert.ErrorContains(t, err, "invalid ledger backend")
}

func TestRedisOptionsUseLedgerPrefix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pokertable.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
ledger {
  redis_addr   = "redis:6379"
  redis_db     = 3
  redis_prefix = "ledger-keys"
}

events {
  subject_prefix = "table-events"
}
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	opts := redisOptions(cfg.Ledger)
	assert.Equal(t, "redis:6379", opts.Addr)
	assert.Equal(t, 3, opts.DB)
	assert.Equal(t, "ledger-keys", opts.Prefix)
}
