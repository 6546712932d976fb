// Package display renders tables and hand-history events for the terminal.
package display

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/pokertable/internal/dealer"
	"github.com/lox/pokertable/internal/events"
	"github.com/lox/pokertable/internal/game"
)

// Styles contains styling for table display
type Styles struct {
	Header    lipgloss.Style
	SubHeader lipgloss.Style
	Action    lipgloss.Style
	Winner    lipgloss.Style
	CardRed   lipgloss.Style
	CardBlack lipgloss.Style
	Pot       lipgloss.Style
	Separator lipgloss.Style
	Marker    lipgloss.Style // BTN, SB and BB
	Muted     lipgloss.Style // folded and empty seats
	Street    lipgloss.Style // "*** FLOP ***"
}

// NewStyles creates the coloured styles
func NewStyles() *Styles {
	return &Styles{
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 2).
			Bold(true),
		SubHeader: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true),
		Action: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#74B9FF")),
		Winner: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true),
		CardRed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true),
		CardBlack: lipgloss.NewStyle().
			Bold(true),
		Pot: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true),
		Separator: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")),
		Marker: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")),
		Street: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true),
	}
}

// PlainStyles renders text without colour or padding
func PlainStyles() *Styles {
	plain := lipgloss.NewStyle()
	return &Styles{
		Header: plain, SubHeader: plain, Action: plain, Winner: plain,
		CardRed: plain, CardBlack: plain, Pot: plain, Separator: plain,
		Marker: plain, Muted: plain, Street: plain,
	}
}

// Renderer writes tables and events to w. It also implements
// events.Publisher so it can follow a table as a hand history.
type Renderer struct {
	styles *Styles

	mu sync.Mutex
	w  io.Writer
}

// New creates a renderer. A nil styles uses NewStyles.
func New(w io.Writer, styles *Styles) *Renderer {
	if styles == nil {
		styles = NewStyles()
	}
	return &Renderer{w: w, styles: styles}
}

func (r *Renderer) printf(format string, args ...any) {
	fmt.Fprintf(r.w, format, args...)
}

// Card formats a single card, red for hearts and diamonds
func (r *Renderer) Card(card uint8) string {
	s := dealer.CardString(card)
	if suit := s[len(s)-1]; suit == 'h' || suit == 'd' {
		return r.styles.CardRed.Render(s)
	}
	return r.styles.CardBlack.Render(s)
}

// Cards formats cards as "[Ah Kd 7c]", stopping at the first unrevealed card
func (r *Renderer) Cards(cards []uint8) string {
	parts := make([]string, 0, len(cards))
	for _, c := range cards {
		if c == 0 {
			break
		}
		parts = append(parts, r.Card(c))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Table prints the table header, board and one line per seat
func (r *Renderer) Table(ts *game.TableState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := ts.Table
	header := fmt.Sprintf("Table #%d", t.ID)
	if t.HandNumber > 0 {
		header += fmt.Sprintf(" • Hand #%d", t.HandNumber)
	}
	header += fmt.Sprintf(" • %d/%d • %s", t.SmallBlind, t.BigBlind, t.State)
	r.printf("%s\n", r.styles.Header.Render(header))

	if t.Community[0] != 0 {
		r.printf("Board: %s\n", r.Cards(t.Community[:]))
	}
	r.printf("Pot: %s", r.styles.Pot.Render(fmt.Sprintf("%d", t.Pot)))
	if t.State.IsBettingStreet() {
		r.printf(" • Bet: %d", t.CurrentBet)
	}
	r.printf("\n%s\n", r.styles.Separator.Render(strings.Repeat("─", 40)))

	for seat := range t.Seats {
		if !t.Occupied(seat) {
			continue
		}
		r.printf("%s\n", r.seatLine(ts, seat))
	}
}

func (r *Renderer) seatLine(ts *game.TableState, seat int) string {
	t := ts.Table
	inHand := t.State != game.WaitingForPlayers

	cursor := " "
	if inHand && t.State.IsBettingStreet() && t.Turn == seat {
		cursor = r.styles.SubHeader.Render(">")
	}

	var markers []string
	if inHand {
		if seat == t.Button {
			markers = append(markers, "BTN")
		}
		switch seat {
		case t.SmallBlindSeat():
			markers = append(markers, "SB")
		case t.BigBlindSeat():
			markers = append(markers, "BB")
		}
	}
	marker := ""
	if len(markers) > 0 {
		marker = " " + r.styles.Marker.Render(strings.Join(markers, "/"))
	}

	p := ts.Player(seat)
	if p == nil {
		return fmt.Sprintf("%s Seat %d: %s%s %s", cursor, seat, t.Seats[seat], marker, r.styles.Muted.Render("(not loaded)"))
	}

	line := fmt.Sprintf("%s Seat %d: %s%s - %d", cursor, seat, p.Identity, marker, p.Stack)
	if !inHand {
		return line
	}
	if p.CurrentBet > 0 {
		line += fmt.Sprintf(" (bet %d)", p.CurrentBet)
	}
	switch p.Status {
	case game.Folded:
		return r.styles.Muted.Render(line + " folded")
	case game.AllIn:
		line += " " + r.styles.Winner.Render("all-in")
	}
	return line
}

// ValidActions prints the actions open to the player holding the turn
func (r *Renderer) ValidActions(actions []game.ValidAction) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(actions) == 0 {
		r.printf("%s\n", r.styles.Muted.Render("No actions available"))
		return
	}
	parts := make([]string, 0, len(actions))
	for _, a := range actions {
		switch a.Action {
		case game.Call:
			parts = append(parts, fmt.Sprintf("call %d", a.MinAmount))
		case game.Raise:
			parts = append(parts, fmt.Sprintf("raise %d-%d", a.MinAmount, a.MaxAmount))
		default:
			parts = append(parts, a.Action.String())
		}
	}
	r.printf("Actions: %s\n", r.styles.Action.Render(strings.Join(parts, ", ")))
}

// Event prints e as a hand-history line
func (r *Renderer) Event(e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch e.Kind {
	case events.KindHandStarted:
		r.printf("\n%s\n", r.styles.Header.Render(e.String()))
	case events.KindStreetAdvanced:
		r.printf("\n%s", r.styles.Street.Render(fmt.Sprintf("*** %s ***", strings.ToUpper(e.Street))))
		if len(e.Cards) > 0 {
			cards := make([]uint8, len(e.Cards))
			for i, c := range e.Cards {
				cards[i] = uint8(c)
			}
			r.printf(" %s", r.Cards(cards))
		}
		r.printf(" (pot: %s)\n", r.styles.Pot.Render(fmt.Sprintf("%d", e.Pot)))
	case events.KindPlayerActioned, events.KindBlindPosted:
		r.printf("%s\n", r.styles.Action.Render(e.String()))
	case events.KindHandComplete:
		r.printf("%s\n", r.styles.Winner.Render(e.String()))
	case events.KindActionTimeout:
		r.printf("%s\n", r.styles.Muted.Render(e.String()))
	default:
		r.printf("%s\n", e.String())
	}
}

// Publish prints e
func (r *Renderer) Publish(_ context.Context, e events.Event) error {
	r.Event(e)
	return nil
}
