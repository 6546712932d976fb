package game

// Seat scans over the fixed seat array. Every position-derived seat (button,
// blinds, first to act, next to act) goes through these helpers.

// OccupiedFrom returns the first occupied seat scanning from start inclusive,
// wrapping around the table. Returns NoSeat if every seat is empty.
func OccupiedFrom(seats [MaxSeats]string, start int) int {
	for step := 0; step < MaxSeats; step++ {
		seat := ringIndex(start + step)
		if seats[seat] != "" {
			return seat
		}
	}
	return NoSeat
}

// NextOccupied returns the first occupied seat strictly after from
func NextOccupied(seats [MaxSeats]string, from int) int {
	return OccupiedFrom(seats, from+1)
}

// NextEligible returns the first occupied seat after from for which eligible
// returns true. It scans one full cycle, so from itself is the last seat
// considered.
func NextEligible(seats [MaxSeats]string, eligible func(seat int) bool, from int) (int, error) {
	for step := 1; step <= MaxSeats; step++ {
		seat := ringIndex(from + step)
		if seats[seat] != "" && eligible(seat) {
			return seat, nil
		}
	}
	return NoSeat, ErrNoActivePlayersRemaining
}

// NextToAct picks the seat whose turn follows from. With a complete roster it
// skips seats that cannot act; when some occupied seat has no loaded record
// it degrades to the next occupied seat and reports degraded=true, since
// eligibility cannot be judged.
func (ts *TableState) NextToAct(from int) (seat int, degraded bool, err error) {
	if !ts.RosterComplete() {
		seat = NextOccupied(ts.Table.Seats, from)
		if seat == NoSeat {
			return NoSeat, true, ErrNoActivePlayersRemaining
		}
		return seat, true, nil
	}
	seat, err = NextEligible(ts.Table.Seats, ts.canAct, from)
	return seat, false, err
}

func (ts *TableState) canAct(seat int) bool {
	return ts.Players[seat].CanAct()
}

func ringIndex(i int) int {
	i %= MaxSeats
	if i < 0 {
		i += MaxSeats
	}
	return i
}
