// Package events describes what happened at a table and delivers those
// events to interested parties: logs, NATS subjects and in-process
// subscribers.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind represents an event type
type Kind string

// Kinds of table event
const (
	KindTableCreated   Kind = "table_created"
	KindPlayerJoined   Kind = "player_joined"
	KindPlayerLeft     Kind = "player_left"
	KindHandStarted    Kind = "hand_started"
	KindBlindPosted    Kind = "blind_posted"
	KindPlayerActioned Kind = "player_actioned"
	KindStreetAdvanced Kind = "street_advanced"
	KindHandComplete   Kind = "hand_complete"
	KindActionTimeout  Kind = "action_timeout"
)

func (k Kind) String() string {
	return string(k)
}

// Event is a single fact about a table. Fields that do not apply to the kind
// are left zero.
type Event struct {
	ID       uuid.UUID `json:"id"`
	Kind     Kind      `json:"kind"`
	TableID  uint64    `json:"table_id"`
	Hand     uint64    `json:"hand"`
	Time     time.Time `json:"time"`
	Seat     int       `json:"seat"`
	Identity string    `json:"identity,omitempty"`
	Action   string    `json:"action,omitempty"`
	Amount   int       `json:"amount,omitempty"`
	Street   string    `json:"street,omitempty"`
	Pot      int       `json:"pot"`
	Cards    []int     `json:"cards,omitempty"`
}

// New creates an event stamped with a time-ordered ID
func New(kind Kind, tableID, hand uint64) Event {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return Event{
		ID:      id,
		Kind:    kind,
		TableID: tableID,
		Hand:    hand,
		Time:    time.Now(),
		Seat:    -1,
	}
}

// String formats the event as a hand-history style line
func (e Event) String() string {
	who := e.Identity
	if who == "" {
		who = fmt.Sprintf("seat %d", e.Seat)
	}

	switch e.Kind {
	case KindTableCreated:
		return fmt.Sprintf("Table %d created by %s", e.TableID, who)
	case KindPlayerJoined:
		return fmt.Sprintf("%s: sits at seat %d with %d", who, e.Seat, e.Amount)
	case KindPlayerLeft:
		return fmt.Sprintf("%s: leaves seat %d with %d", who, e.Seat, e.Amount)
	case KindHandStarted:
		return fmt.Sprintf("Hand #%d: button on seat %d", e.Hand, e.Seat)
	case KindBlindPosted:
		return fmt.Sprintf("%s: posts blind %d", who, e.Amount)
	case KindPlayerActioned:
		switch e.Action {
		case "fold":
			return fmt.Sprintf("%s: folds", who)
		case "check":
			return fmt.Sprintf("%s: checks", who)
		case "call":
			return fmt.Sprintf("%s: calls %d (pot now: %d)", who, e.Amount, e.Pot)
		default:
			return fmt.Sprintf("%s: raises %d (pot now: %d)", who, e.Amount, e.Pot)
		}
	case KindStreetAdvanced:
		return fmt.Sprintf("*** %s *** (pot: %d)", e.Street, e.Pot)
	case KindHandComplete:
		return fmt.Sprintf("%s: collected %d from pot", who, e.Amount)
	case KindActionTimeout:
		return fmt.Sprintf("%s: times out", who)
	default:
		return fmt.Sprintf("%s on table %d", e.Kind, e.TableID)
	}
}

// Publisher delivers events
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Bus fans events out to every subscribed publisher
type Bus struct {
	mu          sync.RWMutex
	subscribers []Publisher
}

// NewBus creates a bus with the given subscribers
func NewBus(subscribers ...Publisher) *Bus {
	return &Bus{subscribers: subscribers}
}

// Subscribe adds a subscriber to receive events
func (b *Bus) Subscribe(p Publisher) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, p)
}

// Unsubscribe removes a subscriber from receiving events
func (b *Bus) Unsubscribe(p Publisher) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subscribers {
		if sub == p {
			b.subscribers = append(b.subscribers[:i:i], b.subscribers[i+1:]...)
			return
		}
	}
}

// Publish sends e to every subscriber, returning the first delivery error.
// A failing subscriber does not stop delivery to the rest.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	b.mu.RLock()
	subscribers := b.subscribers
	b.mu.RUnlock()

	var first error
	for _, sub := range subscribers {
		if err := sub.Publish(ctx, e); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Recorder keeps every published event in memory
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish records e
func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Kinds returns the kinds of the recorded events in order
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]Kind, len(r.events))
	for i, e := range r.events {
		kinds[i] = e.Kind
	}
	return kinds
}

// Reset drops every recorded event
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Discard drops every event
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
