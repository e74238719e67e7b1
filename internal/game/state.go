package game

import (
	"fmt"
	"strings"
	"time"
)

// Status of a Round.
type Status int

const (
	NotStarted Status = iota
	InProgress
	Ended
)

func (s Status) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case InProgress:
		return "in_progress"
	case Ended:
		return "ended"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// SlotState is the feedback state of a board slot or of a hand card used as a drop target.
type SlotState int

const (
	Unfilled      SlotState = iota
	Matched                 // A correct card was placed on it: its value is now the card's value.
	RejectedFlash           // Transient: a wrong card was just placed on it.
)

func (s SlotState) String() string {
	switch s {
	case Unfilled:
		return "unfilled"
	case Matched:
		return "matched"
	case RejectedFlash:
		return "rejected"
	}
	return fmt.Sprintf("SlotState(%d)", int(s))
}

// Zone where a drop target lives.
type Zone string

const (
	ZoneBoard Zone = "board"
	ZoneHand  Zone = "hand"
)

// SlotRef identifies a drop target: a board slot or a card in the hand, by index.
type SlotRef struct {
	Zone  Zone `json:"zone"`
	Index int  `json:"index"`
}

func (r SlotRef) String() string {
	return fmt.Sprintf("%s[%d]", r.Zone, r.Index)
}

// BoardSlot is one of the BoardSize positions on the board.
type BoardSlot struct {
	Value int       `json:"value"`
	State SlotState `json:"state"`

	// beforeFlash is the state to revert to once the RejectedFlash feedback is cleared.
	beforeFlash SlotState
}

// HandCard is a card held by the player.
type HandCard struct {
	ID     int       `json:"id"`
	Value  int       `json:"value"`
	State  SlotState `json:"state"`  // Only changes when the card is used as a drop target.
	Played bool      `json:"played"` // Set on the card that was correctly placed, as it leaves the hand.

	beforeFlash SlotState
}

// Winner of a round, decided by comparing the player scores.
type Winner string

const (
	Player1 Winner = "player1"
	Player2 Winner = "player2"
	Tie     Winner = "tie"
)

// Message to display at the end of the round.
func (w Winner) Message() string {
	switch w {
	case Player1:
		return "Player 1 wins!"
	case Player2:
		return "Player 2 wins!"
	default:
		return "It's a tie!"
	}
}

// RoundSummary is the frozen result of an ended Round.
type RoundSummary struct {
	RoundID      string `json:"round_id"`
	TotalScore   int    `json:"total_score"`
	Player1Score int    `json:"player1_score"`
	Player2Score int    `json:"player2_score"`
	Winner       Winner `json:"winner"`
}

// TimerState tells whether a round's countdown is still going.
type TimerState string

const (
	TimerRunning TimerState = "running"
	TimerExpired TimerState = "expired" // The caller should end the round.
	TimerStopped TimerState = "stopped" // Round already ended or discarded.
)

// TimerStatus is returned by Round.Tick.
type TimerStatus struct {
	State     TimerState `json:"state"`
	Remaining int        `json:"remaining"` // Seconds left, only meaningful when State is TimerRunning.
}

// RoundView is a read-only copy of a Round, used by the presentation layer for rendering.
type RoundView struct {
	ID            string      `json:"id"`
	Increment     int         `json:"increment"`
	Status        Status      `json:"status"`
	TotalScore    int         `json:"total_score"`
	Player1Score  int         `json:"player1_score"`
	Player2Score  int         `json:"player2_score"`
	Board         []BoardSlot `json:"board"`
	Hand          []HandCard  `json:"hand"`
	Regenerations int         `json:"regenerations"` // Number of times the board was dealt again.
}

func (v *RoundView) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Round %s: status=%s, increment=%d, score=%d (p1=%d, p2=%d), board=[",
		v.ID, v.Status, v.Increment, v.TotalScore, v.Player1Score, v.Player2Score)
	for i, s := range v.Board {
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "%d", s.Value)
		if s.State == Matched {
			sb.WriteString("*")
		}
	}
	sb.WriteString("], hand=[")
	for i, c := range v.Hand {
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "%d", c.Value)
	}
	sb.WriteString("]")
	return sb.String()
}

// elapsedSeconds since start, truncated to whole seconds. A now before start counts as 0.
func elapsedSeconds(start, now time.Time) int {
	return max(0, int(now.Sub(start)/time.Second))
}
