package game

import "fmt"

// Version of the game.
// Bumping this number will eventually make clients reload the WASM.
//
// If you set this to an empty string, a random version number will be
// used, and force the reload of the WASM on every restart.
var Version = "v0.1.0"

const (
	// RoundDuration is the countdown length of a round, in seconds.
	RoundDuration = 60

	// MatchAward is the number of points a correct match is worth.
	MatchAward = 10

	// RegenerateEvery: the whole board is dealt again each time the total
	// score reaches a multiple of this value.
	RegenerateEvery = 40

	// BoardSize is the number of slots on the board.
	BoardSize = 4

	// HandSize is the number of cards dealt to the player.
	HandSize = 5

	MinIncrement     = 2
	MaxIncrement     = 50
	DefaultIncrement = 2

	// MaxCardValue bounds the board values: they are drawn from [1, max(1, MaxCardValue-increment)].
	// Hand cards are board values plus the increment, so they stay within MaxCardValue, except with
	// increment MaxIncrement, where the range is clamped to [1, 1] and the only hand card is 51.
	MaxCardValue = 50
)

// FormatTime renders a number of seconds as "MM:SS", the way the timer is displayed.
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
