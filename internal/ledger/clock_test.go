package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokertable/internal/events"
	"github.com/lox/pokertable/internal/game"
)

const testTimeout = 30 * time.Second

func seatStatus(t *testing.T, svc *Service, seat int) func() game.PlayerStatus {
	return func() game.PlayerStatus {
		ts, err := svc.Snapshot(context.Background(), 1)
		require.NoError(t, err)
		return ts.Players[seat].Status
	}
}

func TestActionTimeoutFoldsTurnHolder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mClock := quartz.NewMock(t)
	svc, rec := newTestService(t, NewMemoryStore(), WithActionTimeout(mClock, testTimeout))
	startHeadsUp(t, svc)
	require.True(t, svc.clock.Armed(1))

	status := seatStatus(t, svc, 0)
	mClock.Advance(testTimeout).MustWait(ctx)

	require.Eventually(t, func() bool { return status() == game.Folded }, time.Second, 5*time.Millisecond)
	assert.Contains(t, rec.Kinds(), events.KindActionTimeout)

	// The turn moved to bob, who gets a fresh clock
	require.Eventually(t, func() bool { return svc.clock.Armed(1) }, time.Second, 5*time.Millisecond)

	payout, ok, err := svc.CheckAutoWin(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "bob", payout.Identity)
	assert.False(t, svc.clock.Armed(1))
}

func TestActionResetsTimer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mClock := quartz.NewMock(t)
	svc, rec := newTestService(t, NewMemoryStore(), WithActionTimeout(mClock, testTimeout))
	startHeadsUp(t, svc)

	mClock.Advance(20 * time.Second).MustWait(ctx)
	_, err := svc.Act(ctx, 1, "alice", game.Call, 0)
	require.NoError(t, err)

	// alice's timer would have fired here
	mClock.Advance(10 * time.Second).MustWait(ctx)
	assert.Equal(t, game.Active, seatStatus(t, svc, 0)())
	assert.Equal(t, game.Active, seatStatus(t, svc, 1)())
	assert.NotContains(t, rec.Kinds(), events.KindActionTimeout)

	mClock.Advance(20 * time.Second).MustWait(ctx)
	require.Eventually(t, func() bool { return seatStatus(t, svc, 1)() == game.Folded }, time.Second, 5*time.Millisecond)
	assert.Equal(t, game.Active, seatStatus(t, svc, 0)())
}

func TestStaleTimeoutIsIgnored(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, rec := newTestService(t, NewMemoryStore())
	startHeadsUp(t, svc)

	before, err := svc.Snapshot(ctx, 1)
	require.NoError(t, err)
	rec.Reset()

	// Wrong seat, then an earlier hand
	svc.handleTimeout(Turn{TableID: 1, Hand: 1, Street: game.PreFlop, Seat: 1})
	svc.handleTimeout(Turn{TableID: 1, Hand: 0, Street: game.PreFlop, Seat: 0})
	svc.handleTimeout(Turn{TableID: 7, Hand: 1, Street: game.PreFlop, Seat: 0})

	after, err := svc.Snapshot(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Empty(t, rec.Events())
}

func TestClockWithoutTimeout(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t, NewMemoryStore())
	startHeadsUp(t, svc)

	assert.Nil(t, svc.clock)
	assert.False(t, svc.clock.Armed(1))
	assert.Zero(t, svc.clock.Timeout())
}

func TestActionClockDisarmAndClose(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mClock := quartz.NewMock(t)
	fired := make(chan Turn, 4)
	clock := NewActionClock(mClock, testTimeout, quietLogger(), func(turn Turn) { fired <- turn })

	clock.Arm(Turn{TableID: 1, Hand: 1, Seat: 2})
	clock.Arm(Turn{TableID: 2, Hand: 1, Seat: 4})
	clock.Disarm(1)
	assert.False(t, clock.Armed(1))
	assert.True(t, clock.Armed(2))

	mClock.Advance(testTimeout).MustWait(ctx)
	select {
	case turn := <-fired:
		assert.Equal(t, Turn{TableID: 2, Hand: 1, Seat: 4}, turn)
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}

	clock.Arm(Turn{TableID: 3, Hand: 1, Seat: 0})
	clock.Close()
	assert.False(t, clock.Armed(3))
	clock.Arm(Turn{TableID: 3, Hand: 2, Seat: 0})
	assert.False(t, clock.Armed(3), "closed clock ignores Arm")
	assert.Empty(t, fired)
}
