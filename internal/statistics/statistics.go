// Package statistics summarises simulated hands: how big the pots got, how
// far hands went and how many ended uncontested.
package statistics

import (
	"fmt"
	"math"
	"sort"

	"github.com/lox/pokertable/internal/game"
)

// bigPotBB is the size, in big blinds, from which a pot counts as big
const bigPotBB = 50

// HandResult represents the outcome of a single hand
type HandResult struct {
	TableID  uint64
	Hand     uint64
	Pot      int            // Chips awarded to the winner
	BigBlind int            // Stakes the pot is measured in
	Street   game.GameState // Street the hand ended on, Showdown if it got there
	Showdown bool
	Actions  int // Betting actions taken, blinds excluded
}

// PotBB returns the pot in big blinds
func (r HandResult) PotBB() float64 {
	if r.BigBlind <= 0 {
		return 0
	}
	return float64(r.Pot) / float64(r.BigBlind)
}

// Statistics tracks hand outcomes across one or more tables
type Statistics struct {
	Hands  int
	SumBB  float64
	SumBB2 float64   // Sum of squares for variance calculation
	Values []float64 // Pot of every hand in big blinds, for median/percentile

	Showdowns   int
	Uncontested int
	Streets     [game.HandComplete + 1]int // Hands ending on each street
	Actions     int

	MaxPotChips int
	MaxPotBB    float64
	BigPots     int // Pots of 50bb or more
}

// Add incorporates a new hand result into the statistics
func (s *Statistics) Add(result HandResult) {
	potBB := result.PotBB()
	s.Hands++
	s.SumBB += potBB
	s.SumBB2 += potBB * potBB
	s.Values = append(s.Values, potBB)

	if result.Showdown {
		s.Showdowns++
	} else {
		s.Uncontested++
	}
	if result.Street >= 0 && int(result.Street) < len(s.Streets) {
		s.Streets[result.Street]++
	}
	s.Actions += result.Actions

	if result.Pot > s.MaxPotChips {
		s.MaxPotChips = result.Pot
		s.MaxPotBB = potBB
	}
	if potBB >= bigPotBB {
		s.BigPots++
	}
}

// Merge adds every hand recorded in o
func (s *Statistics) Merge(o *Statistics) {
	s.Hands += o.Hands
	s.SumBB += o.SumBB
	s.SumBB2 += o.SumBB2
	s.Values = append(s.Values, o.Values...)
	s.Showdowns += o.Showdowns
	s.Uncontested += o.Uncontested
	for i := range s.Streets {
		s.Streets[i] += o.Streets[i]
	}
	s.Actions += o.Actions
	if o.MaxPotChips > s.MaxPotChips {
		s.MaxPotChips = o.MaxPotChips
		s.MaxPotBB = o.MaxPotBB
	}
	s.BigPots += o.BigPots
}

// Mean returns the average pot in big blinds
func (s *Statistics) Mean() float64 {
	if s.Hands == 0 {
		return 0
	}
	return s.SumBB / float64(s.Hands)
}

// Variance returns the sample variance of pot sizes
func (s *Statistics) Variance() float64 {
	if s.Hands < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumBB2 - float64(s.Hands)*mean*mean) / float64(s.Hands-1)
}

// StdDev returns the sample standard deviation of pot sizes
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.Hands == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Hands))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Median returns the median pot in big blinds
func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the pot at the given percentile (0.0 to 1.0)
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// ActionsPerHand returns the average number of betting actions per hand
func (s *Statistics) ActionsPerHand() float64 {
	if s.Hands == 0 {
		return 0
	}
	return float64(s.Actions) / float64(s.Hands)
}

// Validate checks that the counters agree with each other
func (s *Statistics) Validate() error {
	if s.Hands <= 0 {
		return fmt.Errorf("invalid hands count: %d", s.Hands)
	}
	if len(s.Values) != s.Hands {
		return fmt.Errorf("values array length (%d) does not match hands count (%d)", len(s.Values), s.Hands)
	}
	if s.Showdowns+s.Uncontested != s.Hands {
		return fmt.Errorf("showdowns (%d) plus uncontested (%d) does not match hands (%d)",
			s.Showdowns, s.Uncontested, s.Hands)
	}

	streetHands := 0
	for _, n := range s.Streets {
		streetHands += n
	}
	if streetHands != s.Hands {
		return fmt.Errorf("street totals (%d) do not match hands (%d)", streetHands, s.Hands)
	}
	if s.Streets[game.Showdown] != s.Showdowns {
		return fmt.Errorf("hands ending at showdown (%d) do not match showdowns (%d)", s.Streets[game.Showdown], s.Showdowns)
	}
	return nil
}
