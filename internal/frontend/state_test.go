package frontend

import (
	"testing"

	"github.com/janpfeifer/MathCards/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T) *GlobalClientState {
	t.Helper()
	s := &GlobalClientState{
		Increment: "2",
		Remaining: game.RoundDuration,
		Listeners: make(map[string]func()),
	}
	prev := State
	State = s
	t.Cleanup(func() { State = prev })
	return s
}

func mustMessage(t *testing.T, msgType game.MessageType, payload any) game.WsMessage {
	t.Helper()
	msg, err := game.NewWsMessage(msgType, payload)
	require.NoError(t, err)
	return msg
}

func TestNoticeSurvivesRoundStateAndClearsOnHome(t *testing.T) {
	s := newTestState(t)
	notified := 0
	s.Listeners["test"] = func() { notified++ }

	s.handleMessage(mustMessage(t, game.MsgTypeNotice, game.NoticeMessage{Message: game.InvalidIncrementNotice}))
	assert.Equal(t, game.InvalidIncrementNotice, s.Notice)

	round := game.RoundView{
		ID:        "r1",
		Increment: game.DefaultIncrement,
		Status:    game.InProgress,
		Board:     []game.BoardSlot{{Value: 3}, {Value: 7}, {Value: 11}, {Value: 20}},
		Hand:      []game.HandCard{{ID: 0, Value: 5}, {ID: 1, Value: 9}},
	}
	s.handleMessage(mustMessage(t, game.MsgTypeState, game.StateMessage{Round: round, Remaining: game.RoundDuration}))
	require.NotNil(t, s.Round)
	assert.Equal(t, "r1", s.Round.ID)
	assert.Equal(t, game.InvalidIncrementNotice, s.Notice, "a new round must not hide the notice explaining its increment")

	// Without a connection SendHome only resets the local state.
	s.SendHome()
	assert.Empty(t, s.Notice)
	assert.Nil(t, s.Round)
	assert.Equal(t, game.RoundDuration, s.Remaining)
	assert.Equal(t, 3, notified)
}

func TestHandClickAction(t *testing.T) {
	testCases := []struct {
		name      string
		selected  int
		clicked   int
		placeOnto bool
		want      handAction
	}{
		{"nothing selected", 0, 5, false, handSelect},
		{"nothing selected with shift", 0, 5, true, handSelect},
		{"switch selection", 5, 9, false, handSelect},
		{"click selected card", 5, 5, false, handDeselect},
		{"shift-click selected card", 5, 5, true, handDeselect},
		{"shift-click other card", 5, 9, true, handPlace},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, handClickAction(tc.selected, tc.clicked, tc.placeOnto))
		})
	}
}
