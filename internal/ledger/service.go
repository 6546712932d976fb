// Package ledger hosts tables on top of a Store: it loads records, runs one
// rules operation under a per-table lock, persists the result and publishes
// what happened.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/pokertable/internal/dealer"
	"github.com/lox/pokertable/internal/events"
	"github.com/lox/pokertable/internal/game"
)

// Payout describes chips awarded from the pot
type Payout struct {
	Seat     int
	Identity string
	Amount   int
}

// Service is the operation surface for hosted tables. Operations on one
// table are serialized; different tables proceed in parallel.
type Service struct {
	store     Store
	dealer    dealer.Dealer
	publisher events.Publisher
	logger    *log.Logger

	clock   *ActionClock
	ticker  quartz.Clock
	timeout time.Duration

	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
}

// Option configures a Service
type Option func(*Service)

// WithDealer sets the card service, dealer.Local by default
func WithDealer(d dealer.Dealer) Option {
	return func(s *Service) { s.dealer = d }
}

// WithPublisher sets where events go, nowhere by default
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithActionTimeout folds a seat that holds the turn for longer than timeout
func WithActionTimeout(clock quartz.Clock, timeout time.Duration) Option {
	return func(s *Service) {
		s.ticker = clock
		s.timeout = timeout
	}
}

// NewService creates a service backed by store
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		dealer:    dealer.Local{},
		publisher: events.Discard{},
		logger:    log.Default(),
		locks:     make(map[uint64]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithPrefix("ledger")
	if s.timeout > 0 {
		s.clock = NewActionClock(s.ticker, s.timeout, s.logger, s.handleTimeout)
	}
	return s
}

// Close stops the action clock
func (s *Service) Close() {
	s.clock.Close()
}

// lock serializes operations on one table
func (s *Service) lock(id uint64) func() {
	s.mu.Lock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func (s *Service) loadState(ctx context.Context, id uint64) (*game.TableState, error) {
	t, err := s.store.LoadTable(ctx, id)
	if err != nil {
		return nil, err
	}
	players, err := s.store.LoadPlayers(ctx, id)
	if err != nil {
		return nil, err
	}
	return game.LoadTableState(t, players...)
}

// loadWith loads the table and only the named players
func (s *Service) loadWith(ctx context.Context, id uint64, identities ...string) (*game.TableState, error) {
	t, err := s.store.LoadTable(ctx, id)
	if err != nil {
		return nil, err
	}
	players := make([]*game.Player, 0, len(identities))
	for _, identity := range identities {
		p, err := s.store.LoadPlayer(ctx, id, identity)
		if errors.Is(err, ErrNotFound) {
			continue
		} else if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return game.LoadTableState(t, players...)
}

func (s *Service) commit(ctx context.Context, t *game.Table, players ...*game.Player) error {
	if c, ok := s.store.(Committer); ok {
		return c.Commit(ctx, t, players...)
	}
	if err := s.store.SaveTable(ctx, t); err != nil {
		return err
	}
	for _, p := range players {
		if err := s.store.SavePlayer(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("Failed to publish event", "table", e.TableID, "kind", e.Kind, "error", err)
	}
}

// armTurn restarts the action clock for whoever holds the turn now
func (s *Service) armTurn(ts *game.TableState) {
	t := ts.Table
	if p := ts.Player(t.Turn); t.State.IsBettingStreet() && p.CanAct() {
		s.clock.Arm(turnOf(t))
		return
	}
	s.clock.Disarm(t.ID)
}

// InitializeTable creates a table waiting for players
func (s *Service) InitializeTable(ctx context.Context, id uint64, creator string, cfg game.Config) (*game.Table, error) {
	unlock := s.lock(id)
	defer unlock()

	t, err := game.InitializeTable(id, creator, cfg)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateTable(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create table %d: %w", id, err)
	}

	s.logger.Info("Table created", "table", id, "blinds", fmt.Sprintf("%d/%d", cfg.SmallBlind, cfg.BigBlind))
	e := events.New(events.KindTableCreated, id, 0)
	e.Identity = creator
	s.publish(ctx, e)
	return t, nil
}

// JoinTable seats identity at position with buyIn chips
func (s *Service) JoinTable(ctx context.Context, id uint64, identity string, buyIn, position int) (*game.Player, error) {
	unlock := s.lock(id)
	defer unlock()

	ts, err := s.loadWith(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load table %d: %w", id, err)
	}
	p, err := ts.JoinTable(identity, buyIn, position)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreatePlayer(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create player %s: %w", identity, err)
	}
	if err := s.store.SaveTable(ctx, ts.Table); err != nil {
		if rbErr := s.store.DeletePlayer(ctx, id, identity); rbErr != nil {
			s.logger.Error("Failed to roll back player record", "table", id, "player", identity, "error", rbErr)
		}
		return nil, fmt.Errorf("failed to save table %d: %w", id, err)
	}

	s.logger.Debug("Player joined", "table", id, "player", identity, "seat", position, "stack", buyIn)
	e := events.New(events.KindPlayerJoined, id, ts.Table.HandNumber)
	e.Identity, e.Seat, e.Amount = identity, position, buyIn
	s.publish(ctx, e)
	return p, nil
}

// LeaveTable removes identity from the table. The returned record holds the
// stack to pay out.
func (s *Service) LeaveTable(ctx context.Context, id uint64, identity string) (*game.Player, error) {
	unlock := s.lock(id)
	defer unlock()

	ts, err := s.loadWith(ctx, id, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to load table %d: %w", id, err)
	}
	p, err := ts.LeaveTable(identity)
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveTable(ctx, ts.Table); err != nil {
		return nil, fmt.Errorf("failed to save table %d: %w", id, err)
	}
	if err := s.store.DeletePlayer(ctx, id, identity); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to delete player %s: %w", identity, err)
	}

	e := events.New(events.KindPlayerLeft, id, ts.Table.HandNumber)
	e.Identity = identity
	if p != nil {
		e.Seat, e.Amount = p.Position, p.Stack
	}
	s.publish(ctx, e)
	return p, nil
}

// StartHand begins the next hand, shuffles a deck and deals hole cards
func (s *Service) StartHand(ctx context.Context, id uint64) (*game.TableState, error) {
	unlock := s.lock(id)
	defer unlock()

	ts, err := s.loadState(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load table %d: %w", id, err)
	}
	if err := ts.StartHand(); err != nil {
		return nil, err
	}

	t := ts.Table
	t.DeckRef, err = s.dealer.NewDeck(ctx, id, t.HandNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to shuffle deck: %w", err)
	}
	for _, p := range ts.Seated() {
		p.HoleCardsRef, err = s.dealer.HoleCards(ctx, t.DeckRef, p.Position)
		if err != nil {
			return nil, fmt.Errorf("failed to deal to %s: %w", p.Identity, err)
		}
	}

	if err := s.commit(ctx, t, ts.Seated()...); err != nil {
		return nil, fmt.Errorf("failed to save table %d: %w", id, err)
	}

	s.logger.Info("Hand started", "table", id, "hand", t.HandNumber, "button", t.Button, "players", t.PlayerCount)
	e := events.New(events.KindHandStarted, id, t.HandNumber)
	e.Seat = t.Button
	s.publish(ctx, e)
	s.armTurn(ts)
	return ts, nil
}

// PostBlind posts the blind owed by identity
func (s *Service) PostBlind(ctx context.Context, id uint64, identity string) (game.BlindResult, error) {
	unlock := s.lock(id)
	defer unlock()

	ts, err := s.loadWith(ctx, id, identity)
	if err != nil {
		return game.BlindResult{}, fmt.Errorf("failed to load table %d: %w", id, err)
	}
	p, err := ts.PlayerByIdentity(identity)
	if err != nil {
		return game.BlindResult{}, err
	}
	res, err := ts.PostBlind(p.Position)
	if err != nil {
		return game.BlindResult{}, err
	}

	if err := s.commit(ctx, ts.Table, p); err != nil {
		return game.BlindResult{}, fmt.Errorf("failed to save table %d: %w", id, err)
	}

	e := events.New(events.KindBlindPosted, id, ts.Table.HandNumber)
	e.Identity, e.Seat, e.Amount, e.Pot = identity, res.Seat, res.Amount, ts.Table.Pot
	s.publish(ctx, e)
	return res, nil
}

// Act applies a betting action for identity
func (s *Service) Act(ctx context.Context, id uint64, identity string, action game.Action, raiseAmount int) (game.ActionResult, error) {
	unlock := s.lock(id)
	defer unlock()

	ts, err := s.loadState(ctx, id)
	if err != nil {
		return game.ActionResult{}, fmt.Errorf("failed to load table %d: %w", id, err)
	}
	p, err := ts.PlayerByIdentity(identity)
	if err != nil {
		return game.ActionResult{}, err
	}
	return s.act(ctx, ts, p, action, raiseAmount)
}

func (s *Service) act(ctx context.Context, ts *game.TableState, p *game.Player, action game.Action, raiseAmount int) (game.ActionResult, error) {
	t := ts.Table
	res, err := ts.ApplyAction(p.Position, action, raiseAmount)
	if err != nil {
		return game.ActionResult{}, err
	}

	if err := s.commit(ctx, t, p); err != nil {
		return game.ActionResult{}, fmt.Errorf("failed to save table %d: %w", t.ID, err)
	}

	if res.DegradedTurn {
		s.logger.Warn("Turn advanced without full roster", "table", t.ID, "turn", res.NextTurn)
	}
	e := events.New(events.KindPlayerActioned, t.ID, t.HandNumber)
	e.Identity, e.Seat, e.Action, e.Amount, e.Pot = p.Identity, p.Position, action.String(), res.Amount, t.Pot
	e.Street = t.State.String()
	s.publish(ctx, e)
	s.armTurn(ts)
	return res, nil
}

// handleTimeout folds the seat named by turn if it still holds the action
func (s *Service) handleTimeout(turn Turn) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	unlock := s.lock(turn.TableID)
	defer unlock()

	ts, err := s.loadState(ctx, turn.TableID)
	if err != nil {
		s.logger.Error("Failed to load table for timeout", "table", turn.TableID, "error", err)
		return
	}
	if turnOf(ts.Table) != turn {
		return
	}
	p := ts.Player(turn.Seat)
	if !p.CanAct() {
		return
	}

	s.logger.Info("Player timed out", "table", turn.TableID, "hand", turn.Hand, "player", p.Identity)
	e := events.New(events.KindActionTimeout, turn.TableID, turn.Hand)
	e.Identity, e.Seat = p.Identity, p.Position
	s.publish(ctx, e)

	if _, err := s.act(ctx, ts, p, game.Fold, 0); err != nil {
		s.logger.Error("Failed to fold timed out player", "table", turn.TableID, "player", p.Identity, "error", err)
	}
}

// AdvanceStreet moves to the next street without checking the betting
// round. Only the table record is loaded and saved.
func (s *Service) AdvanceStreet(ctx context.Context, id uint64) (*game.Table, error) {
	unlock := s.lock(id)
	defer unlock()

	ts, err := s.loadWith(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load table %d: %w", id, err)
	}
	if err := ts.AdvanceStreet(); err != nil {
		return nil, err
	}
	cards, err := s.reveal(ctx, ts.Table)
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveTable(ctx, ts.Table); err != nil {
		return nil, fmt.Errorf("failed to save table %d: %w", id, err)
	}

	s.streetAdvanced(ctx, ts.Table, cards)
	// Without the roster the turn holder's status is unknown, so the clock
	// runs for whoever holds the turn
	if ts.Table.State.IsBettingStreet() {
		s.clock.Arm(turnOf(ts.Table))
	} else {
		s.clock.Disarm(id)
	}
	return ts.Table, nil
}

// AdvanceStreetValidated moves to the next street once the betting round
// is complete
func (s *Service) AdvanceStreetValidated(ctx context.Context, id uint64) (*game.TableState, error) {
	unlock := s.lock(id)
	defer unlock()

	ts, err := s.loadState(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load table %d: %w", id, err)
	}
	if err := ts.AdvanceStreetValidated(); err != nil {
		return nil, err
	}
	cards, err := s.reveal(ctx, ts.Table)
	if err != nil {
		return nil, err
	}

	if err := s.commit(ctx, ts.Table, ts.Seated()...); err != nil {
		return nil, fmt.Errorf("failed to save table %d: %w", id, err)
	}

	s.streetAdvanced(ctx, ts.Table, cards)
	s.armTurn(ts)
	return ts, nil
}

// reveal records the community cards dealt for the table's current street
func (s *Service) reveal(ctx context.Context, t *game.Table) ([]uint8, error) {
	if t.DeckRef == "" {
		return nil, nil
	}
	cards, err := s.dealer.Reveal(ctx, t.DeckRef, t.State)
	if err != nil {
		return nil, fmt.Errorf("failed to reveal %s: %w", t.State, err)
	}

	offset := 0
	switch t.State {
	case game.Turn:
		offset = 3
	case game.River:
		offset = 4
	}
	copy(t.Community[offset:], cards)
	return cards, nil
}

func (s *Service) streetAdvanced(ctx context.Context, t *game.Table, cards []uint8) {
	s.logger.Debug("Street advanced", "table", t.ID, "hand", t.HandNumber, "street", t.State, "pot", t.Pot)
	e := events.New(events.KindStreetAdvanced, t.ID, t.HandNumber)
	e.Street, e.Pot, e.Seat = t.State.String(), t.Pot, t.Turn
	for _, c := range cards {
		e.Cards = append(e.Cards, int(c))
	}
	s.publish(ctx, e)
}

// CheckAutoWin awards the pot when a single active player remains. ok is
// false when the hand goes on.
func (s *Service) CheckAutoWin(ctx context.Context, id uint64) (Payout, bool, error) {
	unlock := s.lock(id)
	defer unlock()

	ts, err := s.loadState(ctx, id)
	if err != nil {
		return Payout{}, false, fmt.Errorf("failed to load table %d: %w", id, err)
	}
	seat, won, ok := ts.CheckAutoWin()
	if !ok {
		return Payout{}, false, nil
	}

	winner := ts.Players[seat]
	if err := s.commit(ctx, ts.Table, winner); err != nil {
		return Payout{}, false, fmt.Errorf("failed to save table %d: %w", id, err)
	}

	payout := Payout{Seat: seat, Identity: winner.Identity, Amount: won}
	s.handComplete(ctx, ts.Table, payout)
	return payout, true, nil
}

// EndHand awards the pot to the player at winnerPosition
func (s *Service) EndHand(ctx context.Context, id uint64, winnerPosition int) (Payout, error) {
	unlock := s.lock(id)
	defer unlock()

	t, err := s.store.LoadTable(ctx, id)
	if err != nil {
		return Payout{}, fmt.Errorf("failed to load table %d: %w", id, err)
	}
	var winner *game.Player
	if t.Occupied(winnerPosition) {
		winner, err = s.store.LoadPlayer(ctx, id, t.Seats[winnerPosition])
		if err != nil && !errors.Is(err, ErrNotFound) {
			return Payout{}, fmt.Errorf("failed to load winner: %w", err)
		}
	}

	ts, err := game.LoadTableState(t, winner)
	if err != nil {
		return Payout{}, err
	}
	won, err := ts.EndHand(winnerPosition, winner)
	if err != nil {
		return Payout{}, err
	}

	if err := s.commit(ctx, t, winner); err != nil {
		return Payout{}, fmt.Errorf("failed to save table %d: %w", id, err)
	}

	payout := Payout{Seat: winnerPosition, Identity: winner.Identity, Amount: won}
	s.handComplete(ctx, t, payout)
	return payout, nil
}

func (s *Service) handComplete(ctx context.Context, t *game.Table, payout Payout) {
	s.clock.Disarm(t.ID)
	s.logger.Info("Hand complete", "table", t.ID, "hand", t.HandNumber, "winner", payout.Identity, "pot", payout.Amount)
	e := events.New(events.KindHandComplete, t.ID, t.HandNumber)
	e.Identity, e.Seat, e.Amount = payout.Identity, payout.Seat, payout.Amount
	s.publish(ctx, e)
}

// Snapshot returns the table with its full roster
func (s *Service) Snapshot(ctx context.Context, id uint64) (*game.TableState, error) {
	unlock := s.lock(id)
	defer unlock()

	ts, err := s.loadState(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load table %d: %w", id, err)
	}
	return ts, nil
}

// Tables lists the ids of every stored table
func (s *Service) Tables(ctx context.Context) ([]uint64, error) {
	return s.store.ListTables(ctx)
}
