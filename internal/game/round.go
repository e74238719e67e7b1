package game

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// Round is one timed play session.
//
// A Round is not safe for concurrent use: callers serialize every call,
// the way the server does with a per-session lock.
type Round struct {
	ID            string
	Increment     int
	StartedAt     time.Time
	Status        Status
	TotalScore    int
	Player1Score  int
	Player2Score  int
	Board         []BoardSlot
	Hand          []HandCard
	Regenerations int

	rng        *rand.Rand
	nextCardID int
	discarded  bool
	summary    *RoundSummary
}

// Result of a placement attempt.
type Result string

const (
	ResultMatched  Result = "matched"
	ResultRejected Result = "rejected"
	ResultStale    Result = "stale" // The round is over or was discarded: nothing changed.
)

// PlacementOutcome is returned by Round.AttemptPlacement.
type PlacementOutcome struct {
	Result      Result    `json:"result"`
	CardValue   int       `json:"card_value"`
	Target      SlotRef   `json:"target"`
	Played      *HandCard `json:"played,omitempty"` // The card that left the hand, on a match.
	Regenerated bool      `json:"regenerated"`      // Board and hand were dealt again after this match.
	Round       RoundView `json:"round"`
}

// StartRound creates a new Round in progress, with zeroed scores and a freshly dealt board.
//
// An invalid increment is replaced by DefaultIncrement: callers that want to tell
// the user should check it with ValidateIncrement or ParseIncrement first.
// If rng is nil, a clock-seeded source is used.
func StartRound(increment int, now time.Time, rng *rand.Rand) *Round {
	if rng == nil {
		rng = NewRand()
	}
	r := &Round{
		ID:        uuid.NewString(),
		Increment: NormalizeIncrement(increment),
		StartedAt: now,
		Status:    InProgress,
		rng:       rng,
	}
	r.deal()
	return r
}

// deal replaces board and hand with freshly generated ones.
func (r *Round) deal() {
	board, hand := GenerateBoard(r.rng, r.Increment)
	for i := range hand {
		hand[i].ID = r.nextCardID
		r.nextCardID++
	}
	r.Board, r.Hand = board, hand
}

// IsStale returns whether the round no longer accepts operations: it ended or was discarded.
func (r *Round) IsStale() bool {
	return r.Status != InProgress || r.discarded
}

// Discard marks the round as superseded, e.g. when the player goes back home or
// starts another round. Every later operation on it is a no-op.
func (r *Round) Discard() {
	r.discarded = true
}

// Discarded returns whether Discard was called.
func (r *Round) Discarded() bool {
	return r.discarded
}

// AttemptPlacement tries to place the hand card with value cardValue onto target.
//
// The placement matches iff cardValue == target value + Increment. On a match the
// target takes the card's value, the card leaves the hand and the total score grows by
// MatchAward. When the total reaches a multiple of RegenerateEvery, board and hand are
// dealt again, and the award is also attributed to player 1 (board target) or
// player 2 (hand target).
// A wrong placement only flags the target with RejectedFlash.
//
// Operations on a stale round return ResultStale and change nothing.
// An error is returned, and nothing changes, if the target or the card don't exist.
func (r *Round) AttemptPlacement(cardValue int, target SlotRef) (PlacementOutcome, error) {
	outcome := PlacementOutcome{CardValue: cardValue, Target: target}
	if r.IsStale() {
		outcome.Result = ResultStale
		outcome.Round = r.View()
		return outcome, nil
	}

	var targetValue *int
	var targetState, targetBefore *SlotState
	switch target.Zone {
	case ZoneBoard:
		if target.Index < 0 || target.Index >= len(r.Board) {
			return outcome, fmt.Errorf("%w: %s", ErrUnknownTarget, target)
		}
		slot := &r.Board[target.Index]
		targetValue, targetState, targetBefore = &slot.Value, &slot.State, &slot.beforeFlash
	case ZoneHand:
		if target.Index < 0 || target.Index >= len(r.Hand) {
			return outcome, fmt.Errorf("%w: %s", ErrUnknownTarget, target)
		}
		card := &r.Hand[target.Index]
		targetValue, targetState, targetBefore = &card.Value, &card.State, &card.beforeFlash
	default:
		return outcome, fmt.Errorf("%w: unknown zone %q", ErrUnknownTarget, target.Zone)
	}

	cardIdx := r.findCard(cardValue, target)
	if cardIdx < 0 {
		return outcome, fmt.Errorf("%w: no card with value %d", ErrCardNotInHand, cardValue)
	}

	r.ClearFeedback()
	if cardValue != *targetValue+r.Increment {
		*targetBefore = *targetState
		*targetState = RejectedFlash
		outcome.Result = ResultRejected
		outcome.Round = r.View()
		return outcome, nil
	}

	*targetValue = cardValue
	*targetState = Matched
	played := r.Hand[cardIdx]
	played.Played = true
	r.Hand = append(r.Hand[:cardIdx], r.Hand[cardIdx+1:]...)
	r.TotalScore += MatchAward

	if r.TotalScore%RegenerateEvery == 0 {
		r.deal()
		r.Regenerations++
		outcome.Regenerated = true
		if target.Zone == ZoneBoard {
			r.Player1Score += MatchAward
		} else {
			r.Player2Score += MatchAward
		}
	}

	outcome.Result = ResultMatched
	outcome.Played = &played
	outcome.Round = r.View()
	return outcome, nil
}

// findCard returns the index of the first card in hand with the given value that is not the target itself,
// or -1 if there is none.
func (r *Round) findCard(value int, target SlotRef) int {
	for i, c := range r.Hand {
		if target.Zone == ZoneHand && target.Index == i {
			continue
		}
		if c.Value == value && !c.Played {
			return i
		}
	}
	return -1
}

// ClearFeedback reverts any RejectedFlash target to the state it had before the rejection.
func (r *Round) ClearFeedback() {
	for i := range r.Board {
		if r.Board[i].State == RejectedFlash {
			r.Board[i].State = r.Board[i].beforeFlash
		}
	}
	for i := range r.Hand {
		if r.Hand[i].State == RejectedFlash {
			r.Hand[i].State = r.Hand[i].beforeFlash
		}
	}
}

// Tick reports the countdown at time now. It doesn't change the round.
//
// The round is running while RoundDuration minus the whole seconds elapsed is
// non-negative, and expired once it goes negative; the caller is then expected
// to call EndRound. Ended or discarded rounds report TimerStopped.
func (r *Round) Tick(now time.Time) TimerStatus {
	if r.IsStale() {
		return TimerStatus{State: TimerStopped}
	}
	remaining := RoundDuration - elapsedSeconds(r.StartedAt, now)
	if remaining < 0 {
		return TimerStatus{State: TimerExpired}
	}
	return TimerStatus{State: TimerRunning, Remaining: remaining}
}

// EndRound ends the round, freezes the scores and decides the winner.
// Calling it again returns the same summary.
func (r *Round) EndRound() RoundSummary {
	if r.summary != nil {
		return *r.summary
	}
	r.Status = Ended
	r.ClearFeedback()
	winner := Tie
	if r.Player1Score > r.Player2Score {
		winner = Player1
	} else if r.Player2Score > r.Player1Score {
		winner = Player2
	}
	r.summary = &RoundSummary{
		RoundID:      r.ID,
		TotalScore:   r.TotalScore,
		Player1Score: r.Player1Score,
		Player2Score: r.Player2Score,
		Winner:       winner,
	}
	return *r.summary
}

// View returns a copy of the round's current state, safe to hand over to the presentation layer.
func (r *Round) View() RoundView {
	v := RoundView{
		ID:            r.ID,
		Increment:     r.Increment,
		Status:        r.Status,
		TotalScore:    r.TotalScore,
		Player1Score:  r.Player1Score,
		Player2Score:  r.Player2Score,
		Board:         make([]BoardSlot, len(r.Board)),
		Hand:          make([]HandCard, len(r.Hand)),
		Regenerations: r.Regenerations,
	}
	copy(v.Board, r.Board)
	copy(v.Hand, r.Hand)
	return v
}
