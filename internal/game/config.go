package game

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidConfiguration is returned when the increment is odd or outside [MinIncrement, MaxIncrement].
	// It is always recovered by using DefaultIncrement.
	ErrInvalidConfiguration = errors.New("invalid increment")

	// ErrUnsupportedMode is returned when starting a game in a mode that is not implemented (online).
	ErrUnsupportedMode = errors.New("game mode not implemented")

	// ErrUnknownTarget is returned when a placement names a slot that doesn't exist.
	ErrUnknownTarget = errors.New("unknown target slot")

	// ErrCardNotInHand is returned when a placement names a card value the player doesn't hold.
	ErrCardNotInHand = errors.New("card not in hand")
)

// Messages shown to the user, as notices, for recoverable configuration problems.
const (
	InvalidIncrementNotice = "Invalid increment value. Using the default value of 2."
	OnlineModeNotice       = "Online game mode is not yet implemented."
)

// Mode of a game.
type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// CheckMode returns ErrUnsupportedMode for anything but offline games.
func CheckMode(m Mode) error {
	switch m {
	case ModeOffline, "":
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedMode, m)
	}
}

// ValidateIncrement checks the increment is an even number in [MinIncrement, MaxIncrement].
func ValidateIncrement(increment int) error {
	if increment < MinIncrement || increment > MaxIncrement || increment%2 != 0 {
		return fmt.Errorf("%w: %d is not an even number between %d and %d",
			ErrInvalidConfiguration, increment, MinIncrement, MaxIncrement)
	}
	return nil
}

// NormalizeIncrement returns increment if valid, DefaultIncrement otherwise.
func NormalizeIncrement(increment int) int {
	if ValidateIncrement(increment) != nil {
		return DefaultIncrement
	}
	return increment
}

// ParseIncrement parses the increment typed by the user.
//
// On any invalid input it returns DefaultIncrement along with an error wrapping
// ErrInvalidConfiguration, so callers can always use the returned value and
// only use the error to notify the user.
func ParseIncrement(input string) (int, error) {
	input = strings.TrimSpace(input)
	increment, err := strconv.Atoi(input)
	if err != nil {
		return DefaultIncrement, fmt.Errorf("%w: %q is not a number", ErrInvalidConfiguration, input)
	}
	if err := ValidateIncrement(increment); err != nil {
		return DefaultIncrement, err
	}
	return increment, nil
}
