package frontend

import (
	"context"
	"fmt"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/janpfeifer/MathCards/internal/game"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
	"k8s.io/klog/v2"
)

// GlobalClientState manages the connection and the last known state of the round.
type GlobalClientState struct {
	Conn  *websocket.Conn
	Error string

	// Notice to show the user, e.g. online mode not being implemented.
	Notice string

	// Increment as typed in the start page, reused by "Play Again".
	Increment string

	// Round state, as last received from the server.
	Round     *game.RoundView
	Remaining int
	Summary   *game.RoundSummary

	// Selected is the value of the hand card the player picked up, or 0.
	Selected   int
	LastResult game.Result
	LastTarget game.SlotRef

	// Listeners for state updates
	Listeners map[string]func()
}

var State *GlobalClientState

func InitState() {
	if State == nil {
		klog.V(1).Infof("InitState: creating new state (was nil)")
		State = &GlobalClientState{
			Increment: fmt.Sprintf("%d", game.DefaultIncrement),
			Remaining: game.RoundDuration,
			Listeners: make(map[string]func()),
		}
	} else {
		klog.V(1).Infof("InitState: state already exists")
	}
}

func (s *GlobalClientState) Notify() {
	klog.V(2).Infof("GlobalClientState: Notifying %d listeners", len(s.Listeners))
	for _, l := range s.Listeners {
		if l != nil {
			l()
		}
	}
}

// reset clears the round state and any pending notice, as when going back to the start page.
func (s *GlobalClientState) reset() {
	s.Notice = ""
	s.Round = nil
	s.Summary = nil
	s.Remaining = game.RoundDuration
	s.Selected = 0
	s.LastResult = ""
}

// ConnectWS connects to the server, if not connected yet.
func (s *GlobalClientState) ConnectWS() error {
	if s.Conn != nil {
		return nil
	}

	wsURL := fmt.Sprintf("ws://%s/ws", app.Window().URL().Host)
	klog.Infof("ConnectWS: Connecting to %s", wsURL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		klog.Errorf("ConnectWS: Dial failed: %v", err)
		return fmt.Errorf("dial failed: %w", err)
	}
	s.Conn = conn

	klog.Infof("ConnectWS: Connected. Starting read loop.")
	go s.readLoop(conn)
	return nil
}

func (s *GlobalClientState) readLoop(conn *websocket.Conn) {
	ctx := context.Background()
	for {
		var msg game.WsMessage
		err := wsjson.Read(ctx, conn, &msg)
		if err != nil {
			klog.Errorf("readLoop: WS read error: %v", err)
			break
		}
		klog.V(2).Infof("readLoop: received message type: %s", msg.Type)
		s.handleMessage(msg)
	}
	if s.Conn == conn {
		s.Conn = nil
		s.Error = "Connection to the server lost."
		s.Notify()
	}
}

func (s *GlobalClientState) handleMessage(msg game.WsMessage) {
	p, err := msg.Parse()
	if err != nil {
		klog.Errorf("handleMessage: Failed to parse %s message: %v", msg.Type, err)
		return
	}

	switch m := p.(type) {
	case *game.StateMessage:
		klog.V(1).Infof("handleMessage: %s", &m.Round)
		if s.Round == nil || s.Round.ID != m.Round.ID {
			s.Summary = nil
			s.Selected = 0
			s.LastResult = ""
		}
		s.Round = &m.Round
		s.Remaining = m.Remaining
		s.Error = ""

	case *game.OutcomeMessage:
		if s.Round == nil || s.Round.ID != m.Round.ID {
			return
		}
		s.Round = &m.Round
		s.LastResult = m.Result
		s.LastTarget = m.Target
		if m.Result == game.ResultMatched {
			s.Selected = 0
		}

	case *game.TickMessage:
		if s.Round == nil || s.Round.ID != m.RoundID {
			return
		}
		s.Remaining = m.Remaining

	case *game.EndedMessage:
		if s.Round == nil || s.Round.ID != m.Summary.RoundID {
			return
		}
		s.Summary = &m.Summary
		s.Round.Status = game.Ended
		s.Remaining = 0
		s.Selected = 0

	case *game.NoticeMessage:
		s.Notice = m.Message

	case *game.ErrorMessage:
		s.Error = m.Message

	default:
		klog.Warningf("handleMessage: unexpected message type %s", msg.Type)
		return
	}
	s.Notify()
}

func (s *GlobalClientState) send(msgType game.MessageType, payload any) {
	if s.Conn == nil {
		return
	}
	msg, err := game.NewWsMessage(msgType, payload)
	if err != nil {
		klog.Errorf("send: Failed to create %s message: %v", msgType, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
	defer cancel()
	if err := wsjson.Write(ctx, s.Conn, msg); err != nil {
		klog.Errorf("send: Failed to send %s message: %v", msgType, err)
	}
}

// StartGame asks the server for a new round in the given mode.
// Online mode is not implemented: it only sets a notice, without contacting the server.
func (s *GlobalClientState) StartGame(mode game.Mode) error {
	if err := game.CheckMode(mode); err != nil {
		klog.Infof("StartGame: %v", err)
		s.Notice = game.OnlineModeNotice
		s.Notify()
		return err
	}
	if err := s.ConnectWS(); err != nil {
		s.Error = fmt.Sprintf("Failed to connect to the server: %v", err)
		s.Notify()
		return err
	}
	s.reset()
	s.send(game.MsgTypeStart, game.StartMessage{Mode: mode, Increment: s.Increment})
	return nil
}

// SendPlace places the selected card onto target.
func (s *GlobalClientState) SendPlace(target game.SlotRef) {
	if s.Round == nil || s.Selected == 0 || s.Summary != nil {
		return
	}
	s.send(game.MsgTypePlace, game.PlaceMessage{RoundID: s.Round.ID, CardValue: s.Selected, Target: target})
}

// SendHome discards the round on the server and resets the local state.
func (s *GlobalClientState) SendHome() {
	s.send(game.MsgTypeHome, nil)
	s.reset()
	s.Notify()
}
