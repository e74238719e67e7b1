package server

import (
	"context"
	"net"
	"net/http"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/janpfeifer/MathCards/internal/game"
)

// pipeListener serves HTTP connections over net.Pipe
type pipeListener struct {
	ch   chan net.Conn
	done chan struct{}
}

func (l *pipeListener) Accept() (net.Conn, error) {
	select {
	case c := <-l.ch:
		return c, nil
	case <-l.done:
		return nil, net.ErrClosed
	}
}

func (l *pipeListener) Close() error {
	select {
	case <-l.done:
	default:
		close(l.done)
	}
	return nil
}

func (l *pipeListener) Addr() net.Addr { return &net.TCPAddr{} }

// recorder collects every message received by a client connection.
type recorder struct {
	mu   sync.Mutex
	msgs []game.WsMessage
}

func (r *recorder) drain(ctx context.Context, conn *websocket.Conn) {
	for {
		var msg game.WsMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			return
		}
		r.mu.Lock()
		r.msgs = append(r.msgs, msg)
		r.mu.Unlock()
	}
}

func (r *recorder) count(msgType game.MessageType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.msgs {
		if m.Type == msgType {
			n++
		}
	}
	return n
}

// last returns the payload of the last message of the given type, or nil.
func (r *recorder) last(t *testing.T, msgType game.MessageType) any {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.msgs) - 1; i >= 0; i-- {
		if r.msgs[i].Type == msgType {
			p, err := r.msgs[i].Parse()
			if err != nil {
				t.Fatalf("Failed to parse %s: %v", msgType, err)
			}
			return p
		}
	}
	return nil
}

// startPipeServer serves s over an in-memory listener and returns a connected client,
// with its messages being recorded.
func startPipeServer(t *testing.T, ctx context.Context, s *ServerState) (*websocket.Conn, *recorder) {
	srv := &http.Server{Handler: http.HandlerFunc(s.HandleWS)}
	listener := &pipeListener{ch: make(chan net.Conn, 10), done: make(chan struct{})}
	t.Cleanup(func() { listener.Close() })
	go srv.Serve(listener)
	t.Cleanup(func() { srv.Close() })

	opts := &websocket.DialOptions{
		HTTPClient: &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
					cli, srv := net.Pipe()
					listener.ch <- srv
					return cli, nil
				},
			},
		},
	}
	conn, _, err := websocket.Dial(ctx, "http://localhost/ws", opts)
	if err != nil {
		t.Fatalf("Dial error: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })

	rec := &recorder{}
	go rec.drain(ctx, conn)
	return conn, rec
}

func sendMsg(t *testing.T, ctx context.Context, conn *websocket.Conn, msgType game.MessageType, payload any) {
	msg, err := game.NewWsMessage(msgType, payload)
	if err != nil {
		t.Fatalf("Failed to create %s message: %v", msgType, err)
	}
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		t.Fatalf("Failed to send %s message: %v", msgType, err)
	}
}

func TestRoundExpires(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		s := NewServerState(Options{Seed: 1})
		conn, rec := startPipeServer(t, ctx, s)

		sendMsg(t, ctx, conn, game.MsgTypeStart, game.StartMessage{Mode: game.ModeOffline, Increment: "10"})
		synctest.Wait()
		state, ok := rec.last(t, game.MsgTypeState).(*game.StateMessage)
		if !ok {
			t.Fatalf("No state received after start")
		}

		// Just before the deadline the round is still running, with 0 seconds to go.
		time.Sleep(60*time.Second + 500*time.Millisecond)
		synctest.Wait()
		if n := rec.count(game.MsgTypeEnded); n != 0 {
			t.Fatalf("Round ended too early")
		}
		tick := rec.last(t, game.MsgTypeTick).(*game.TickMessage)
		if tick.Remaining != 0 || tick.RoundID != state.Round.ID {
			t.Errorf("Unexpected last tick: %+v", tick)
		}
		if n := rec.count(game.MsgTypeTick); n != 60 {
			t.Errorf("Expected 60 ticks, got %d", n)
		}

		time.Sleep(time.Second)
		synctest.Wait()
		if n := rec.count(game.MsgTypeEnded); n != 1 {
			t.Fatalf("Expected the round to end once, got %d ended messages", n)
		}
		ended := rec.last(t, game.MsgTypeEnded).(*game.EndedMessage)
		if ended.Summary.RoundID != state.Round.ID || ended.Summary.Winner != game.Tie {
			t.Errorf("Unexpected summary: %+v", ended.Summary)
		}

		// No more ticks once the round ended, and placements are ignored.
		ticks := rec.count(game.MsgTypeTick)
		if value, target, ok := findMatch(state.Round); ok {
			sendMsg(t, ctx, conn, game.MsgTypePlace, game.PlaceMessage{RoundID: state.Round.ID, CardValue: value, Target: target})
		}
		time.Sleep(30 * time.Second)
		synctest.Wait()
		if n := rec.count(game.MsgTypeTick); n != ticks {
			t.Errorf("Ticks delivered after the round ended: %d -> %d", ticks, n)
		}
		if n := rec.count(game.MsgTypeOutcome); n != 0 {
			t.Errorf("Placement accepted after the round ended")
		}

		var session *Session
		s.mu.RLock()
		for _, sess := range s.Sessions {
			session = sess
		}
		s.mu.RUnlock()
		view, ok := session.Round()
		if !ok || view.Status != game.Ended || view.TotalScore != 0 {
			t.Errorf("Expected the ended round to be kept, got %v %+v", ok, view)
		}
	})
}

func TestPlayAgainDiscardsRound(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		s := NewServerState(Options{Seed: 2})
		conn, rec := startPipeServer(t, ctx, s)

		sendMsg(t, ctx, conn, game.MsgTypeStart, game.StartMessage{Mode: game.ModeOffline, Increment: "2"})
		synctest.Wait()
		first := rec.last(t, game.MsgTypeState).(*game.StateMessage).Round

		time.Sleep(30 * time.Second)
		sendMsg(t, ctx, conn, game.MsgTypeStart, game.StartMessage{Mode: game.ModeOffline, Increment: "6"})
		synctest.Wait()
		second := rec.last(t, game.MsgTypeState).(*game.StateMessage).Round
		if second.ID == first.ID || second.Increment != 6 {
			t.Fatalf("Expected a new round with increment 6, got %s", &second)
		}

		// A placement for the first round is stale.
		if value, target, ok := findMatch(first); ok {
			sendMsg(t, ctx, conn, game.MsgTypePlace, game.PlaceMessage{RoundID: first.ID, CardValue: value, Target: target})
		}

		time.Sleep(90 * time.Second)
		synctest.Wait()
		if n := rec.count(game.MsgTypeOutcome); n != 0 {
			t.Errorf("Placement for a discarded round was accepted")
		}
		if n := rec.count(game.MsgTypeEnded); n != 1 {
			t.Fatalf("Expected one ended message, got %d", n)
		}
		ended := rec.last(t, game.MsgTypeEnded).(*game.EndedMessage)
		if ended.Summary.RoundID != second.ID {
			t.Errorf("Expected round %s to end, got %s", second.ID, ended.Summary.RoundID)
		}
	})
}

func TestBackToHomeStopsTicks(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		s := NewServerState(Options{})
		conn, rec := startPipeServer(t, ctx, s)

		sendMsg(t, ctx, conn, game.MsgTypeStart, game.StartMessage{Mode: game.ModeOffline, Increment: "8"})
		time.Sleep(5*time.Second + 100*time.Millisecond)
		synctest.Wait()
		if n := rec.count(game.MsgTypeTick); n != 5 {
			t.Errorf("Expected 5 ticks, got %d", n)
		}

		sendMsg(t, ctx, conn, game.MsgTypeHome, nil)
		synctest.Wait()
		time.Sleep(2 * time.Minute)
		synctest.Wait()
		if n := rec.count(game.MsgTypeTick); n != 5 {
			t.Errorf("Ticks delivered after going home: %d", n)
		}
		if n := rec.count(game.MsgTypeEnded); n != 0 {
			t.Errorf("Discarded round should not end")
		}
	})
}

func TestRejectedFeedbackClears(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		s := NewServerState(Options{Seed: 3, FeedbackDelay: 300 * time.Millisecond})
		conn, rec := startPipeServer(t, ctx, s)

		sendMsg(t, ctx, conn, game.MsgTypeStart, game.StartMessage{Mode: game.ModeOffline, Increment: "4"})
		synctest.Wait()
		round := rec.last(t, game.MsgTypeState).(*game.StateMessage).Round

		value, target := findMismatch(round)
		sendMsg(t, ctx, conn, game.MsgTypePlace, game.PlaceMessage{RoundID: round.ID, CardValue: value, Target: target})
		synctest.Wait()
		outcome := rec.last(t, game.MsgTypeOutcome).(*game.OutcomeMessage)
		if outcome.Result != game.ResultRejected || outcome.Round.Board[0].State != game.RejectedFlash {
			t.Fatalf("Expected rejection with flash, got %+v", outcome.PlacementOutcome)
		}
		if n := rec.count(game.MsgTypeState); n != 1 {
			t.Fatalf("Feedback cleared too early")
		}

		time.Sleep(300 * time.Millisecond)
		synctest.Wait()
		if n := rec.count(game.MsgTypeState); n != 2 {
			t.Fatalf("Expected a state update once the feedback is cleared, got %d", n)
		}
		state := rec.last(t, game.MsgTypeState).(*game.StateMessage)
		if state.Round.Board[0].State != game.Unfilled || state.Round.TotalScore != 0 {
			t.Errorf("Unexpected state after feedback: %s", &state.Round)
		}
		if state.Remaining != game.RoundDuration {
			t.Errorf("Expected %d seconds remaining, got %d", game.RoundDuration, state.Remaining)
		}
	})
}

func TestInjectedClock(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// A clock that never advances: the ticker keeps firing, but the round never runs out of time.
		frozen := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		s := NewServerState(Options{Seed: 4, Now: func() time.Time { return frozen }})
		conn, rec := startPipeServer(t, ctx, s)

		sendMsg(t, ctx, conn, game.MsgTypeStart, game.StartMessage{Mode: game.ModeOffline, Increment: "2"})
		time.Sleep(2*time.Minute + 100*time.Millisecond)
		synctest.Wait()
		if n := rec.count(game.MsgTypeTick); n != 120 {
			t.Errorf("Expected 120 ticks, got %d", n)
		}
		tick := rec.last(t, game.MsgTypeTick).(*game.TickMessage)
		if tick.Remaining != game.RoundDuration {
			t.Errorf("Expected %d seconds remaining with a frozen clock, got %d", game.RoundDuration, tick.Remaining)
		}
		if n := rec.count(game.MsgTypeEnded); n != 0 {
			t.Errorf("Round ended with a frozen clock")
		}
	})
}
