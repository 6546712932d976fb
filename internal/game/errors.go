package game

import "errors"

// Capacity and setup errors
var (
	ErrTableFull        = errors.New("table is full")
	ErrInvalidBuyIn     = errors.New("invalid buy-in amount")
	ErrInvalidPosition  = errors.New("invalid position")
	ErrSeatTaken        = errors.New("seat is already taken")
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	ErrInvalidConfig    = errors.New("invalid table configuration")
	ErrAlreadySeated    = errors.New("player is already seated at this table")
)

// Lifecycle and ordering errors
var (
	ErrGameInProgress          = errors.New("game is already in progress")
	ErrWrongGameState          = errors.New("wrong game state")
	ErrCannotLeaveNow          = errors.New("cannot leave table during active hand")
	ErrBettingRoundNotComplete = errors.New("betting round is not complete")
)

// Turn and authorization errors
var (
	ErrNotYourTurn     = errors.New("not your turn")
	ErrPlayerNotActive = errors.New("player is not active")
	ErrNotAtTable      = errors.New("player is not at table")
)

// Betting legality errors
var (
	ErrCannotCheck        = errors.New("cannot check - must call or raise")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrRaiseTooSmall      = errors.New("raise amount is too small")
	ErrNotBlindPosition   = errors.New("not in blind position")
	ErrAlreadyPostedBlind = errors.New("blind already posted this hand")
)

// Terminal and resolution errors
var (
	ErrInvalidWinner            = errors.New("invalid winner")
	ErrNoActivePlayersRemaining = errors.New("no active players remaining")
)

var ruleViolations = []error{
	ErrTableFull, ErrInvalidBuyIn, ErrInvalidPosition, ErrSeatTaken,
	ErrNotEnoughPlayers, ErrInvalidConfig, ErrAlreadySeated,
	ErrGameInProgress, ErrWrongGameState, ErrCannotLeaveNow, ErrBettingRoundNotComplete,
	ErrNotYourTurn, ErrPlayerNotActive, ErrNotAtTable,
	ErrCannotCheck, ErrInsufficientFunds, ErrRaiseTooSmall, ErrNotBlindPosition, ErrAlreadyPostedBlind,
	ErrInvalidWinner, ErrNoActivePlayersRemaining,
}

// IsRuleViolation reports whether err is (or wraps) one of the rejections
// defined by this package, as opposed to an infrastructure failure.
func IsRuleViolation(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range ruleViolations {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
