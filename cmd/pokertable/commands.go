package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lox/pokertable/internal/game"
	"github.com/lox/pokertable/internal/simulator"
)

// InitCmd creates a table
type InitCmd struct {
	Table   uint64 `arg:"" help:"Table id"`
	Creator string `default:"cli" help:"Recorded as the table's creator"`
	Stakes  string `help:"Named table stakes from the config file (default stakes when empty)"`
}

func (c *InitCmd) Run(a *app) error {
	stakes, err := a.cfg.Stakes(c.Stakes)
	if err != nil {
		return err
	}
	_, err = a.svc.InitializeTable(context.Background(), c.Table, c.Creator, stakes)
	return err
}

// JoinCmd seats a player
type JoinCmd struct {
	Table    uint64 `arg:"" help:"Table id"`
	Identity string `arg:"" optional:"" help:"Player identity (a new UUID when empty)"`
	Seat     int    `required:"" short:"s" help:"Seat 0-8"`
	BuyIn    int    `short:"b" help:"Chips to bring (table minimum when zero)"`
}

func (c *JoinCmd) Run(a *app) error {
	ctx := context.Background()
	identity := c.Identity
	if identity == "" {
		identity = uuid.NewString()
	}

	buyIn := c.BuyIn
	if buyIn == 0 {
		ts, err := a.svc.Snapshot(ctx, c.Table)
		if err != nil {
			return err
		}
		buyIn = ts.Table.MinBuyIn
	}

	_, err := a.svc.JoinTable(ctx, c.Table, identity, buyIn, c.Seat)
	return err
}

// LeaveCmd removes a player
type LeaveCmd struct {
	Table    uint64 `arg:"" help:"Table id"`
	Identity string `arg:"" help:"Player identity"`
}

func (c *LeaveCmd) Run(a *app) error {
	_, err := a.svc.LeaveTable(context.Background(), c.Table, c.Identity)
	return err
}

// StartCmd starts a hand
type StartCmd struct {
	Table  uint64 `arg:"" help:"Table id"`
	Blinds bool   `help:"Post both blinds after starting"`
}

func (c *StartCmd) Run(a *app) error {
	ctx := context.Background()
	ts, err := a.svc.StartHand(ctx, c.Table)
	if err != nil {
		return err
	}
	if c.Blinds {
		t := ts.Table
		for _, seat := range []int{t.SmallBlindSeat(), t.BigBlindSeat()} {
			if _, err := a.svc.PostBlind(ctx, c.Table, t.Seats[seat]); err != nil {
				return err
			}
		}
	}
	return nil
}

// BlindCmd posts a blind
type BlindCmd struct {
	Table    uint64 `arg:"" help:"Table id"`
	Identity string `arg:"" help:"Player identity"`
}

func (c *BlindCmd) Run(a *app) error {
	_, err := a.svc.PostBlind(context.Background(), c.Table, c.Identity)
	return err
}

// ActCmd applies a betting action
type ActCmd struct {
	Table    uint64 `arg:"" help:"Table id"`
	Identity string `arg:"" help:"Player identity"`
	Action   string `arg:"" enum:"fold,check,call,raise" help:"fold, check, call or raise"`
	Amount   int    `arg:"" optional:"" help:"Raise size on top of the current bet"`
}

func (c *ActCmd) Run(a *app) error {
	action, err := game.ParseAction(c.Action)
	if err != nil {
		return err
	}
	if action == game.Raise && c.Amount <= 0 {
		return fmt.Errorf("%w: raise needs an amount", game.ErrRaiseTooSmall)
	}
	_, err = a.svc.Act(context.Background(), c.Table, c.Identity, action, c.Amount)
	return err
}

// AdvanceCmd moves to the next street
type AdvanceCmd struct {
	Table     uint64 `arg:"" help:"Table id"`
	Validated bool   `default:"true" negatable:"" help:"Require the betting round to be complete"`
}

func (c *AdvanceCmd) Run(a *app) error {
	ctx := context.Background()
	if c.Validated {
		_, err := a.svc.AdvanceStreetValidated(ctx, c.Table)
		return err
	}
	_, err := a.svc.AdvanceStreet(ctx, c.Table)
	return err
}

// AutowinCmd awards the pot to the last active player
type AutowinCmd struct {
	Table uint64 `arg:"" help:"Table id"`
}

func (c *AutowinCmd) Run(a *app) error {
	_, ok, err := a.svc.CheckAutoWin(context.Background(), c.Table)
	if err != nil {
		return err
	}
	if !ok {
		a.logger.Info("Hand continues", "table", c.Table)
	}
	return nil
}

// EndCmd awards the pot after a showdown
type EndCmd struct {
	Table  uint64 `arg:"" help:"Table id"`
	Winner int    `arg:"" help:"Winning seat"`
}

func (c *EndCmd) Run(a *app) error {
	_, err := a.svc.EndHand(context.Background(), c.Table, c.Winner)
	return err
}

// ShowCmd prints a table, or the ids of every table
type ShowCmd struct {
	Table uint64 `arg:"" optional:"" help:"Table id (lists tables when omitted)"`
}

func (c *ShowCmd) Run(a *app) error {
	ctx := context.Background()
	if c.Table == 0 {
		ids, err := a.svc.Tables(ctx)
		if err != nil {
			return err
		}
		for _, id := range ids {
			ts, err := a.svc.Snapshot(ctx, id)
			if err != nil {
				return err
			}
			a.out.Table(ts)
		}
		return nil
	}

	ts, err := a.svc.Snapshot(ctx, c.Table)
	if err != nil {
		return err
	}
	a.out.Table(ts)
	if ts.Table.State.IsBettingStreet() {
		a.out.ValidActions(ts.ValidActions(ts.Table.Turn))
	}
	return nil
}

// SimulateCmd plays random hands through the ledger
type SimulateCmd struct {
	Tables      int    `default:"10" help:"Number of tables"`
	Hands       int    `default:"100" help:"Hands per table"`
	Players     int    `default:"6" help:"Players per table"`
	Seed        uint64 `help:"Seed for the players' decisions"`
	Concurrency int    `help:"Tables played at once (all when zero)"`
	FirstTable  uint64 `default:"1000" help:"Id of the first simulated table"`
	Stakes      string `help:"Named table stakes from the config file"`
}

func (c *SimulateCmd) Run(a *app) error {
	stakes, err := a.cfg.Stakes(c.Stakes)
	if err != nil {
		return err
	}

	// Per-hand output from thousands of hands is noise
	a.bus.Unsubscribe(a.out)
	if a.evlog != nil {
		a.bus.Unsubscribe(a.evlog)
	}

	sim := simulator.New(a.svc, simulator.Config{
		Tables:       c.Tables,
		Hands:        c.Hands,
		Players:      c.Players,
		Seed:         c.Seed,
		FirstTableID: c.FirstTable,
		Concurrency:  c.Concurrency,
		Stakes:       stakes,
		Logger:       a.logger,
	})
	res, err := sim.Run(context.Background())
	if err != nil {
		return err
	}

	summary, err := simulator.Summary(res)
	if err != nil {
		return err
	}
	fmt.Fprint(a.stdout, summary)
	return nil
}
