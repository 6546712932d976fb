// Package dealer is the boundary to the card service. Tables only ever hold
// the opaque references a Dealer hands out, plus community cards once they
// are revealed.
package dealer

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/lox/pokertable/internal/game"
	"github.com/lox/pokertable/internal/randutil"
)

// ErrUnknownDeck is returned for a reference this dealer did not issue
var ErrUnknownDeck = errors.New("unknown deck reference")

// Dealer shuffles and deals on behalf of a table
type Dealer interface {
	// NewDeck shuffles a deck for a hand and returns its reference
	NewDeck(ctx context.Context, tableID, hand uint64) (string, error)
	// HoleCards deals the player at seat and returns a reference to the cards
	HoleCards(ctx context.Context, deckRef string, seat int) (string, error)
	// Reveal returns the community cards dealt on street: three on the
	// flop, one on the turn and river, none otherwise. Cards are 1-52.
	Reveal(ctx context.Context, deckRef string, street game.GameState) ([]uint8, error)
}

const localPrefix = "local"

// Local is a deterministic in-process dealer. The deck order is derived from
// the reference itself, so any process holding the reference sees the same
// cards.
type Local struct {
	// Salt varies the shuffles between otherwise identical tables
	Salt uint64
}

// NewDeck returns a reference seeded by table, hand and salt
func (l Local) NewDeck(_ context.Context, tableID, hand uint64) (string, error) {
	return fmt.Sprintf("%s:%d:%d:%d", localPrefix, l.Salt, tableID, hand), nil
}

// HoleCards returns a reference to the two cards dealt to seat
func (l Local) HoleCards(_ context.Context, deckRef string, seat int) (string, error) {
	if !strings.HasPrefix(deckRef, localPrefix+":") {
		return "", fmt.Errorf("%w: %q", ErrUnknownDeck, deckRef)
	}
	if seat < 0 || seat >= game.MaxSeats {
		return "", fmt.Errorf("%w: %d", game.ErrInvalidPosition, seat)
	}
	return fmt.Sprintf("%s#%d", deckRef, seat), nil
}

// Reveal returns the community cards for street
func (l Local) Reveal(_ context.Context, deckRef string, street game.GameState) ([]uint8, error) {
	deck, err := shuffled(deckRef)
	if err != nil {
		return nil, err
	}

	// Community cards come off the top, hole cards after them
	switch street {
	case game.Flop:
		return append([]uint8(nil), deck[0:3]...), nil
	case game.Turn:
		return []uint8{deck[3]}, nil
	case game.River:
		return []uint8{deck[4]}, nil
	default:
		return nil, nil
	}
}

// Cards resolves a hole card reference issued by HoleCards
func (l Local) Cards(holeRef string) ([2]uint8, error) {
	deckRef, seatStr, ok := strings.Cut(holeRef, "#")
	if !ok {
		return [2]uint8{}, fmt.Errorf("%w: %q", ErrUnknownDeck, holeRef)
	}
	seat, err := strconv.Atoi(seatStr)
	if err != nil || seat < 0 || seat >= game.MaxSeats {
		return [2]uint8{}, fmt.Errorf("%w: %q", ErrUnknownDeck, holeRef)
	}
	deck, err := shuffled(deckRef)
	if err != nil {
		return [2]uint8{}, err
	}
	return [2]uint8{deck[5+2*seat], deck[6+2*seat]}, nil
}

func shuffled(deckRef string) ([52]uint8, error) {
	var deck [52]uint8
	if !strings.HasPrefix(deckRef, localPrefix+":") {
		return deck, fmt.Errorf("%w: %q", ErrUnknownDeck, deckRef)
	}

	h := fnv.New64a()
	h.Write([]byte(deckRef))
	rng := randutil.New(h.Sum64())

	for i := range deck {
		deck[i] = uint8(i + 1)
	}
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck, nil
}

// CardString formats a card number 1-52 as rank and suit, e.g. "As"
func CardString(card uint8) string {
	if card < 1 || card > 52 {
		return "--"
	}
	const ranks = "23456789TJQKA"
	const suits = "cdhs"
	i := int(card - 1)
	return string(ranks[i%13]) + string(suits[i/13])
}
