package game

import (
	"math/rand/v2"
	"time"
)

// NewRand returns a random source seeded from the clock, used when no explicit source is given.
func NewRand() *rand.Rand {
	seed := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(seed, seed>>32|1))
}

// valueRange returns the largest value a board slot can display for the given increment.
// Board values are drawn from [1, valueRange(increment)].
func valueRange(increment int) int {
	return max(1, MaxCardValue-increment)
}

func drawValue(rng *rand.Rand, increment int) int {
	return 1 + rng.IntN(valueRange(increment))
}

// GenerateBoard deals a fresh board and a hand of HandSize cards for the given increment.
//
// Board values are drawn independently (duplicates are allowed) and shuffled.
// The hand holds every distinct board value plus the increment, topped up with
// random draws until it has HandSize distinct underlying values. The hand is
// shuffled before being returned. Card IDs are 0..len(hand)-1.
func GenerateBoard(rng *rand.Rand, increment int) ([]BoardSlot, []HandCard) {
	values := make([]int, BoardSize)
	for i := range values {
		values[i] = drawValue(rng, increment)
	}
	rng.Shuffle(len(values), func(i, j int) { values[i], values[j] = values[j], values[i] })

	board := make([]BoardSlot, len(values))
	for i, v := range values {
		board[i] = BoardSlot{Value: v, State: Unfilled}
	}
	return board, GenerateHand(rng, values, increment, HandSize)
}

// GenerateHand builds a hand of size cards from the given board values.
//
// A shuffled sample of the distinct board values (up to size of them) is
// taken first, and then random values from [1, MaxCardValue-increment] are
// added until size distinct underlying values are chosen. If the value range
// is too small to hold size distinct values, the hand is smaller.
// Each card's value is its underlying value plus the increment.
func GenerateHand(rng *rand.Rand, boardValues []int, increment, size int) []HandCard {
	size = min(size, valueRange(increment))

	sample := make([]int, len(boardValues))
	copy(sample, boardValues)
	rng.Shuffle(len(sample), func(i, j int) { sample[i], sample[j] = sample[j], sample[i] })

	chosen := make([]int, 0, size)
	seen := make(map[int]bool, size)
	for _, v := range sample {
		if len(chosen) == size {
			break
		}
		if !seen[v] {
			seen[v] = true
			chosen = append(chosen, v)
		}
	}
	for len(chosen) < size {
		v := drawValue(rng, increment)
		if !seen[v] {
			seen[v] = true
			chosen = append(chosen, v)
		}
	}
	rng.Shuffle(len(chosen), func(i, j int) { chosen[i], chosen[j] = chosen[j], chosen[i] })

	hand := make([]HandCard, len(chosen))
	for i, v := range chosen {
		hand[i] = HandCard{ID: i, Value: v + increment, State: Unfilled}
	}
	return hand
}
