// Package simulator drives many tables through a ledger.Service at once,
// playing random but legal hands and checking that no chips are created or
// destroyed along the way.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lox/pokertable/internal/game"
	"github.com/lox/pokertable/internal/ledger"
	"github.com/lox/pokertable/internal/randutil"
	"github.com/lox/pokertable/internal/statistics"
)

// maxActionsPerHand stops a hand that never reaches a terminal state
const maxActionsPerHand = 500

// Config holds configuration for running simulations
type Config struct {
	Tables       int
	Hands        int // Per table
	Players      int // Seats filled per table, 2-9
	Seed         uint64
	FirstTableID uint64
	Concurrency  int // Tables played at once, all of them when zero
	Stakes       game.Config
	Logger       *log.Logger
}

// Result summarises a run
type Result struct {
	Tables     int
	Hands      int
	Actions    int
	Rejections int // Illegal actions attempted and refused
	Rebuys     int
	Pots       statistics.Statistics
	Duration   time.Duration
}

func (r *Result) add(o Result) {
	r.Tables += o.Tables
	r.Hands += o.Hands
	r.Actions += o.Actions
	r.Rejections += o.Rejections
	r.Rebuys += o.Rebuys
	r.Pots.Merge(&o.Pots)
}

// Simulator runs table simulations against a service
type Simulator struct {
	config Config
	svc    *ledger.Service
}

// New creates a simulator, filling unset config with defaults
func New(svc *ledger.Service, config Config) *Simulator {
	if config.Tables <= 0 {
		config.Tables = 1
	}
	if config.Players < 2 || config.Players > game.MaxSeats {
		config.Players = 6
	}
	if config.FirstTableID == 0 {
		config.FirstTableID = 1
	}
	if config.Stakes == (game.Config{}) {
		config.Stakes = game.DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}
	config.Logger = config.Logger.WithPrefix("simulator")
	return &Simulator{config: config, svc: svc}
}

// Run plays every table to completion. The first failure cancels the rest.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	if s.config.Concurrency > 0 {
		g.SetLimit(s.config.Concurrency)
	}

	for i := 0; i < s.config.Tables; i++ {
		id := s.config.FirstTableID + uint64(i)
		g.Go(func() error {
			tr, err := s.newTableRun(id).play(ctx)
			if err != nil {
				return fmt.Errorf("table %d: %w", id, err)
			}
			mu.Lock()
			result.add(tr)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	result.Duration = time.Since(start)
	return result, nil
}

// tableRun plays the hands of one table
type tableRun struct {
	*Simulator
	id     uint64
	rng    *rand.Rand
	logger *log.Logger

	chips  int // Chips that should be on the table
	result Result
}

func (s *Simulator) newTableRun(id uint64) *tableRun {
	return &tableRun{
		Simulator: s,
		id:        id,
		rng:       randutil.NewStream(s.config.Seed, id),
		logger:    s.config.Logger.With("table", id),
		result:    Result{Tables: 1},
	}
}

func (r *tableRun) play(ctx context.Context) (Result, error) {
	if _, err := r.svc.InitializeTable(ctx, r.id, "simulator", r.config.Stakes); err != nil {
		return Result{}, err
	}
	if err := r.fillSeats(ctx); err != nil {
		return Result{}, err
	}

	for hand := 0; hand < r.config.Hands; hand++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if err := r.playHand(ctx); err != nil {
			return Result{}, fmt.Errorf("hand %d: %w", hand+1, err)
		}
		if err := r.checkChips(ctx); err != nil {
			return Result{}, fmt.Errorf("hand %d: %w", hand+1, err)
		}
		if err := r.reseat(ctx); err != nil {
			return Result{}, err
		}
	}

	if r.result.Hands > 0 {
		if err := r.result.Pots.Validate(); err != nil {
			return Result{}, err
		}
	}
	r.logger.Info("Table finished", "hands", r.result.Hands, "actions", r.result.Actions, "rebuys", r.result.Rebuys)
	return r.result, nil
}

// fillSeats joins fresh players on random empty seats until the table holds
// the configured number of players
func (r *tableRun) fillSeats(ctx context.Context) error {
	ts, err := r.svc.Snapshot(ctx, r.id)
	if err != nil {
		return err
	}

	stakes := r.config.Stakes
	for _, seat := range r.rng.Perm(game.MaxSeats) {
		if ts.Table.PlayerCount >= r.config.Players {
			break
		}
		if ts.Table.Occupied(seat) {
			continue
		}
		buyIn := stakes.MinBuyIn + r.rng.IntN(stakes.MaxBuyIn-stakes.MinBuyIn+1)
		if _, err := r.svc.JoinTable(ctx, r.id, uuid.NewString(), buyIn, seat); err != nil {
			return fmt.Errorf("failed to seat player: %w", err)
		}
		r.chips += buyIn
		ts.Table.PlayerCount++
		ts.Table.Seats[seat] = "taken"
	}
	return nil
}

// reseat removes players who cannot cover the big blind. A table that drops
// below two players goes back to waiting and is refilled.
func (r *tableRun) reseat(ctx context.Context) error {
	ts, err := r.svc.Snapshot(ctx, r.id)
	if err != nil {
		return err
	}

	for _, p := range ts.Seated() {
		if p.Stack >= ts.Table.BigBlind {
			continue
		}
		left, err := r.svc.LeaveTable(ctx, r.id, p.Identity)
		if err != nil {
			return fmt.Errorf("failed to remove busted player: %w", err)
		}
		r.chips -= left.Stack
		r.logger.Debug("Player busted", "player", left.Identity, "stack", left.Stack)
	}

	ts, err = r.svc.Snapshot(ctx, r.id)
	if err != nil {
		return err
	}
	if ts.Table.State == game.WaitingForPlayers {
		before := ts.Table.PlayerCount
		if err := r.fillSeats(ctx); err != nil {
			return err
		}
		r.result.Rebuys += r.config.Players - before
	}
	return nil
}

func (r *tableRun) playHand(ctx context.Context) error {
	ts, err := r.svc.StartHand(ctx, r.id)
	if err != nil {
		return err
	}
	t := ts.Table
	for _, seat := range []int{t.SmallBlindSeat(), t.BigBlindSeat()} {
		if _, err := r.svc.PostBlind(ctx, r.id, t.Seats[seat]); err != nil {
			return fmt.Errorf("failed to post blind: %w", err)
		}
	}
	r.result.Hands++

	bets := 0
	for actions := 0; actions < maxActionsPerHand; actions++ {
		ts, err := r.svc.Snapshot(ctx, r.id)
		if err != nil {
			return err
		}
		t := ts.Table

		if t.State == game.Showdown {
			return r.showdown(ctx, ts, bets)
		}
		if ts.IsRoundComplete() {
			if _, err := r.svc.AdvanceStreetValidated(ctx, r.id); err != nil {
				return fmt.Errorf("failed to advance from %s: %w", t.State, err)
			}
			continue
		}

		p := ts.Player(t.Turn)
		if !p.CanAct() {
			return fmt.Errorf("turn stuck on seat %d on the %s", t.Turn, t.State)
		}
		if r.rng.IntN(20) == 0 {
			if err := r.tryIllegal(ctx, ts); err != nil {
				return err
			}
		}

		action, raise := r.chooseAction(ts.ValidActions(t.Turn))
		if _, err := r.svc.Act(ctx, r.id, p.Identity, action, raise); err != nil {
			return fmt.Errorf("%s failed to %s: %w", p.Identity, action, err)
		}
		r.result.Actions++
		bets++

		payout, won, err := r.svc.CheckAutoWin(ctx, r.id)
		if err != nil {
			return err
		}
		if won {
			r.result.Pots.Add(statistics.HandResult{
				TableID:  r.id,
				Hand:     t.HandNumber,
				Pot:      payout.Amount,
				BigBlind: t.BigBlind,
				Street:   t.State,
				Actions:  bets,
			})
			r.logger.Debug("Hand won uncontested", "hand", t.HandNumber, "winner", payout.Identity, "pot", payout.Amount)
			return nil
		}
	}
	return fmt.Errorf("no result after %d actions", maxActionsPerHand)
}

// showdown awards the pot to a random player still in the hand. Ranking
// hands is the card service's job, not the table's.
func (r *tableRun) showdown(ctx context.Context, ts *game.TableState, bets int) error {
	var contenders []int
	for _, p := range ts.Seated() {
		if p.InHand() {
			contenders = append(contenders, p.Position)
		}
	}
	if len(contenders) == 0 {
		return game.ErrNoActivePlayersRemaining
	}

	payout, err := r.svc.EndHand(ctx, r.id, contenders[r.rng.IntN(len(contenders))])
	if err != nil {
		return fmt.Errorf("failed to end hand: %w", err)
	}
	r.result.Pots.Add(statistics.HandResult{
		TableID:  r.id,
		Hand:     ts.Table.HandNumber,
		Pot:      payout.Amount,
		BigBlind: ts.Table.BigBlind,
		Street:   game.Showdown,
		Showdown: true,
		Actions:  bets,
	})
	r.logger.Debug("Showdown", "hand", ts.Table.HandNumber, "winner", payout.Identity, "pot", payout.Amount)
	return nil
}

// chooseAction picks from the valid actions: mostly calls and checks, some
// raises and the occasional fold
func (r *tableRun) chooseAction(valid []game.ValidAction) (game.Action, int) {
	var passive, raise *game.ValidAction
	for i := range valid {
		switch valid[i].Action {
		case game.Check, game.Call:
			passive = &valid[i]
		case game.Raise:
			raise = &valid[i]
		}
	}

	roll := r.rng.IntN(100)
	switch {
	case roll < 10 && passive != nil && passive.Action == game.Call:
		return game.Fold, 0
	case roll < 35 && raise != nil:
		upper := min(raise.MaxAmount, raise.MinAmount*3)
		return game.Raise, raise.MinAmount + r.rng.IntN(upper-raise.MinAmount+1)
	case passive != nil:
		return passive.Action, 0
	default:
		return game.Fold, 0
	}
}

// tryIllegal submits an action that must be refused: someone other than the
// turn holder acting, or a raise below the minimum
func (r *tableRun) tryIllegal(ctx context.Context, ts *game.TableState) error {
	t := ts.Table
	identity := t.Seats[t.Turn]
	action, raise := game.Raise, 1

	if other := game.NextOccupied(t.Seats, t.Turn); other != t.Turn {
		identity, action, raise = t.Seats[other], game.Call, 0
	}

	_, err := r.svc.Act(ctx, r.id, identity, action, raise)
	switch {
	case err == nil:
		return fmt.Errorf("illegal %s by %s was accepted", action, identity)
	case !game.IsRuleViolation(err):
		return err
	}
	r.result.Rejections++
	return nil
}

func (r *tableRun) checkChips(ctx context.Context) error {
	ts, err := r.svc.Snapshot(ctx, r.id)
	if err != nil {
		return err
	}
	if ts.Table.Pot != 0 {
		return fmt.Errorf("pot of %d left after the hand", ts.Table.Pot)
	}
	return ts.ValidateChipConservation(r.chips)
}

// ErrNoTables is returned by Summary for an empty result
var ErrNoTables = errors.New("no tables were simulated")

// Summary formats a result for printing
func Summary(res *Result) (string, error) {
	if res == nil || res.Tables == 0 {
		return "", ErrNoTables
	}
	perSecond := 0.0
	if res.Duration > 0 {
		perSecond = float64(res.Hands) / res.Duration.Seconds()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Tables: %d\nHands: %d (%.0f/s)\nActions: %d\nRejected illegal actions: %d\n",
		res.Tables, res.Hands, perSecond, res.Actions, res.Rejections)

	pots := &res.Pots
	fmt.Fprintf(&b, "Won uncontested: %d\nShowdowns: %d\nRebuys: %d\n", pots.Uncontested, pots.Showdowns, res.Rebuys)
	if pots.Hands > 0 {
		low, high := pots.ConfidenceInterval95()
		fmt.Fprintf(&b, "Pot: mean %.1f bb (95%% CI %.1f to %.1f), median %.1f bb, p95 %.1f bb\n",
			pots.Mean(), low, high, pots.Median(), pots.Percentile(0.95))
		fmt.Fprintf(&b, "Largest pot: %d (%.1f bb)\n", pots.MaxPotChips, pots.MaxPotBB)
		fmt.Fprintf(&b, "Hands ending: preflop %d, flop %d, turn %d, river %d, showdown %d\n",
			pots.Streets[game.PreFlop], pots.Streets[game.Flop], pots.Streets[game.Turn],
			pots.Streets[game.River], pots.Streets[game.Showdown])
	}
	return b.String(), nil
}
