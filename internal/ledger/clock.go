package ledger

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/pokertable/internal/game"
)

// Turn identifies who held the action and when
type Turn struct {
	TableID uint64
	Hand    uint64
	Street  game.GameState
	Seat    int
}

func turnOf(t *game.Table) Turn {
	return Turn{TableID: t.ID, Hand: t.HandNumber, Street: t.State, Seat: t.Turn}
}

type armedTimer struct {
	timer *quartz.Timer
	gen   uint64
}

// ActionClock gives each table one timer for the seat holding the turn.
// When a timer fires, onTimeout runs in its own goroutine with the turn that
// was armed; the handler decides whether that turn is still current.
type ActionClock struct {
	clock     quartz.Clock
	timeout   time.Duration
	onTimeout func(Turn)
	logger    *log.Logger

	mu     sync.Mutex
	timers map[uint64]armedTimer
	gen    uint64
	closed bool
	wg     sync.WaitGroup
}

// NewActionClock creates a clock. A zero timeout disables it.
func NewActionClock(clock quartz.Clock, timeout time.Duration, logger *log.Logger, onTimeout func(Turn)) *ActionClock {
	return &ActionClock{
		clock:     clock,
		timeout:   timeout,
		onTimeout: onTimeout,
		logger:    logger.WithPrefix("clock"),
		timers:    make(map[uint64]armedTimer),
	}
}

// Timeout returns how long a seat may hold the turn
func (c *ActionClock) Timeout() time.Duration {
	if c == nil {
		return 0
	}
	return c.timeout
}

// Arm starts the timer for turn, replacing any timer for the same table
func (c *ActionClock) Arm(turn Turn) {
	if c == nil || c.timeout <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if armed, ok := c.timers[turn.TableID]; ok {
		armed.timer.Stop()
	}

	c.gen++
	gen := c.gen
	// The callback must not block: the mock clock runs it while advancing
	timer := c.clock.AfterFunc(c.timeout, func() {
		go c.fire(turn, gen)
	}, "ledger", "action")
	c.timers[turn.TableID] = armedTimer{timer: timer, gen: gen}
}

func (c *ActionClock) fire(turn Turn, gen uint64) {
	c.mu.Lock()
	armed, ok := c.timers[turn.TableID]
	if c.closed || !ok || armed.gen != gen {
		c.mu.Unlock()
		return
	}
	delete(c.timers, turn.TableID)
	c.wg.Add(1)
	c.mu.Unlock()

	defer c.wg.Done()
	c.logger.Debug("Action timeout", "table", turn.TableID, "hand", turn.Hand, "seat", turn.Seat)
	c.onTimeout(turn)
}

// Disarm stops the table's timer, if any
func (c *ActionClock) Disarm(tableID uint64) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if armed, ok := c.timers[tableID]; ok {
		armed.timer.Stop()
		delete(c.timers, tableID)
	}
}

// Armed reports whether the table has a running timer
func (c *ActionClock) Armed(tableID uint64) bool {
	if c == nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.timers[tableID]
	return ok
}

// Close stops every timer and waits for running timeout handlers
func (c *ActionClock) Close() {
	if c == nil {
		return
	}

	c.mu.Lock()
	c.closed = true
	for id, armed := range c.timers {
		armed.timer.Stop()
		delete(c.timers, id)
	}
	c.mu.Unlock()

	c.wg.Wait()
}
