package game

import "fmt"

// PlayerStatus is a seated player's standing in the current hand
type PlayerStatus int

const (
	Active PlayerStatus = iota
	Folded
	AllIn
)

func (s PlayerStatus) String() string {
	switch s {
	case Active:
		return "active"
	case Folded:
		return "folded"
	case AllIn:
		return "allin"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name so stored records stay readable
func (s PlayerStatus) MarshalText() ([]byte, error) {
	if s < Active || s > AllIn {
		return nil, fmt.Errorf("invalid player status %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status written by MarshalText
func (s *PlayerStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "active":
		*s = Active
	case "folded":
		*s = Folded
	case "allin":
		*s = AllIn
	default:
		return fmt.Errorf("invalid player status %q", string(text))
	}
	return nil
}

// Player is the per-seat record for one table member. It lives from
// JoinTable to LeaveTable; Stack carries across hands, the betting fields are
// reset by the hand lifecycle.
type Player struct {
	Identity     string       `json:"identity"`
	TableID      uint64       `json:"table_id"`
	Stack        int          `json:"stack"`
	CurrentBet   int          `json:"current_bet"` // Committed this street
	Position     int          `json:"position"`
	Status       PlayerStatus `json:"status"`
	HasActed     bool         `json:"has_acted"`
	HoleCardsRef string       `json:"hole_cards_ref,omitempty"` // Opaque card service reference
}

// CanAct returns true if the player may still take a betting action
func (p *Player) CanAct() bool {
	return p != nil && p.Status == Active
}

// InHand returns true if the player has not folded
func (p *Player) InHand() bool {
	return p != nil && p.Status != Folded
}

// Clone returns an independent copy of the record
func (p *Player) Clone() *Player {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func (p *Player) resetForNewHand() {
	p.Status = Active
	p.CurrentBet = 0
	p.HasActed = false
	p.HoleCardsRef = ""
}

func (p *Player) resetForNewStreet() {
	p.CurrentBet = 0
	p.HasActed = false
}

// commit moves chips from the stack into the current street's bet. The
// caller has already checked that the stack covers amount.
func (p *Player) commit(amount int) {
	p.Stack -= amount
	p.CurrentBet += amount
}

func (p *Player) String() string {
	return fmt.Sprintf("%s (seat %d, stack %d, bet %d, %s)", p.Identity, p.Position, p.Stack, p.CurrentBet, p.Status)
}
