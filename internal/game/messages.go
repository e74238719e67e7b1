package game

import (
	"encoding/json"
	"fmt"
)

// Message type for WebSocket communication between client and server.
type MessageType string

const (
	MsgTypeStart   MessageType = "start"   // Client starts a new round (also "Play Again")
	MsgTypePlace   MessageType = "place"   // Client places a card onto a slot
	MsgTypeHome    MessageType = "home"    // Client goes back home, discarding the round
	MsgTypeState   MessageType = "state"   // Server sends the full round state
	MsgTypeOutcome MessageType = "outcome" // Server sends the result of a placement
	MsgTypeTick    MessageType = "tick"    // Server sends the remaining time
	MsgTypeEnded   MessageType = "ended"   // Server sends the round summary, once time is up
	MsgTypeNotice  MessageType = "notice"  // Server sends an informational notice (no state change)
	MsgTypeError   MessageType = "error"   // Server sends an error message
)

// WsMessage represents a WebSocket message.
type WsMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewWsMessage creates a new WsMessage with a marshaled payload.
func NewWsMessage(msgType MessageType, payload interface{}) (WsMessage, error) {
	if payload == nil {
		return WsMessage{Type: msgType}, nil
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return WsMessage{}, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return WsMessage{
		Type:    msgType,
		Payload: payloadBytes,
	}, nil
}

// Parse unmarshals the message payload into one of the message types (StartMessage, PlaceMessage, etc.)
func (m *WsMessage) Parse() (any, error) {
	var target any
	switch m.Type {
	case MsgTypeStart:
		target = &StartMessage{}
	case MsgTypePlace:
		target = &PlaceMessage{}
	case MsgTypeHome:
		target = &HomeMessage{}
	case MsgTypeState:
		target = &StateMessage{}
	case MsgTypeOutcome:
		target = &OutcomeMessage{}
	case MsgTypeTick:
		target = &TickMessage{}
	case MsgTypeEnded:
		target = &EndedMessage{}
	case MsgTypeNotice:
		target = &NoticeMessage{}
	case MsgTypeError:
		target = &ErrorMessage{}
	default:
		return nil, fmt.Errorf("unknown message type: %s", m.Type)
	}

	if len(m.Payload) == 0 {
		return target, nil
	}

	err := json.Unmarshal(m.Payload, target)
	return target, err
}

// StartMessage is the payload for MsgTypeStart.
type StartMessage struct {
	Mode      Mode   `json:"mode"`
	Increment string `json:"increment"` // As typed by the user, validated by the server.
}

// PlaceMessage is the payload for MsgTypePlace.
type PlaceMessage struct {
	RoundID   string  `json:"round_id"` // Placements for any other round are ignored.
	CardValue int     `json:"card_value"`
	Target    SlotRef `json:"target"`
}

// HomeMessage: empty.
type HomeMessage struct{}

// StateMessage is the payload for MsgTypeState.
type StateMessage struct {
	Round     RoundView `json:"round"`
	Remaining int       `json:"remaining"`
}

// OutcomeMessage is the payload for MsgTypeOutcome.
type OutcomeMessage struct {
	PlacementOutcome
}

// TickMessage is the payload for MsgTypeTick.
type TickMessage struct {
	RoundID   string `json:"round_id"`
	Remaining int    `json:"remaining"` // Seconds
}

// EndedMessage is the payload for MsgTypeEnded.
type EndedMessage struct {
	Summary RoundSummary `json:"summary"`
}

// NoticeMessage is the payload for MsgTypeNotice.
type NoticeMessage struct {
	Message string `json:"message"`
}

// ErrorMessage is the payload for MsgTypeError.
type ErrorMessage struct {
	Message string `json:"message"`
}
