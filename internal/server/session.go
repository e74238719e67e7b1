package server

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/janpfeifer/MathCards/internal/game"
	"k8s.io/klog/v2"
)

// Session is one connected player. It owns at most one live round, and the ticker driving it.
type Session struct {
	ID   string
	conn *websocket.Conn
	opts Options
	rng  *rand.Rand

	mu         sync.Mutex
	round      *game.Round
	stopTicker context.CancelFunc
}

func newSession(id string, conn *websocket.Conn, opts Options, rng *rand.Rand) *Session {
	return &Session{
		ID:   id,
		conn: conn,
		opts: opts,
		rng:  rng,
	}
}

// Round returns a view of the current round, and false if there is none.
func (s *Session) Round() (game.RoundView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.round == nil {
		return game.RoundView{}, false
	}
	return s.round.View(), true
}

// serve reads client messages until the connection fails or ctx is done.
func (s *Session) serve(ctx context.Context) {
	for {
		var msg game.WsMessage
		if err := wsjson.Read(ctx, s.conn, &msg); err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure && !errors.Is(err, context.Canceled) {
				klog.V(1).Infof("Session %s: read error: %v", s.ID, err)
			}
			return
		}

		p, err := msg.Parse()
		if err != nil {
			klog.Warningf("Session %s: failed to parse %q message: %v", s.ID, msg.Type, err)
			s.send(ctx, game.MsgTypeError, game.ErrorMessage{Message: err.Error()})
			continue
		}

		switch m := p.(type) {
		case *game.StartMessage:
			s.handleStart(ctx, m)
		case *game.PlaceMessage:
			s.handlePlace(ctx, m)
		case *game.HomeMessage:
			s.handleHome()
		default:
			klog.Warningf("Session %s: unexpected message type %q from client", s.ID, msg.Type)
		}
	}
}

// handleStart starts a new round, discarding the current one, if any.
func (s *Session) handleStart(ctx context.Context, m *game.StartMessage) {
	if err := game.CheckMode(m.Mode); err != nil {
		klog.Infof("Session %s: %v", s.ID, err)
		s.send(ctx, game.MsgTypeNotice, game.NoticeMessage{Message: game.OnlineModeNotice})
		return
	}
	increment, err := game.ParseIncrement(m.Increment)
	if err != nil {
		klog.V(1).Infof("Session %s: %v", s.ID, err)
		s.send(ctx, game.MsgTypeNotice, game.NoticeMessage{Message: game.InvalidIncrementNotice})
	}

	s.mu.Lock()
	s.discardLocked()
	round := game.StartRound(increment, s.opts.Now(), s.rng)
	s.round = round
	tickerCtx, cancel := context.WithCancel(ctx)
	s.stopTicker = cancel
	view := round.View()
	status := round.Tick(round.StartedAt)
	s.mu.Unlock()

	klog.Infof("Session %s: started round %s with increment %d", s.ID, round.ID, increment)
	s.send(ctx, game.MsgTypeState, game.StateMessage{Round: view, Remaining: status.Remaining})
	go s.tickLoop(ctx, tickerCtx, round)
}

func (s *Session) handlePlace(ctx context.Context, m *game.PlaceMessage) {
	s.mu.Lock()
	round := s.round
	if round == nil || round.ID != m.RoundID {
		s.mu.Unlock()
		klog.V(1).Infof("Session %s: ignoring placement for stale round %q", s.ID, m.RoundID)
		return
	}
	outcome, err := round.AttemptPlacement(m.CardValue, m.Target)
	s.mu.Unlock()

	if err != nil {
		klog.Warningf("Session %s: placement of %d on %s: %v", s.ID, m.CardValue, m.Target, err)
		s.send(ctx, game.MsgTypeError, game.ErrorMessage{Message: err.Error()})
		return
	}
	if outcome.Result == game.ResultStale {
		klog.V(1).Infof("Session %s: placement after round %s ended ignored", s.ID, round.ID)
		return
	}
	klog.V(2).Infof("Session %s: placed %d on %s: %s (score %d)",
		s.ID, m.CardValue, m.Target, outcome.Result, outcome.Round.TotalScore)
	s.send(ctx, game.MsgTypeOutcome, game.OutcomeMessage{PlacementOutcome: outcome})

	if outcome.Result == game.ResultRejected {
		time.AfterFunc(s.opts.FeedbackDelay, func() { s.clearFeedback(ctx, round) })
	}
}

// clearFeedback clears the rejection flash of round, if it is still the live round.
func (s *Session) clearFeedback(ctx context.Context, round *game.Round) {
	s.mu.Lock()
	if s.round != round || round.IsStale() {
		s.mu.Unlock()
		return
	}
	round.ClearFeedback()
	view := round.View()
	status := round.Tick(s.opts.Now())
	s.mu.Unlock()
	s.send(ctx, game.MsgTypeState, game.StateMessage{Round: view, Remaining: status.Remaining})
}

// handleHome discards the current round: the player went back to the start page.
func (s *Session) handleHome() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discardLocked()
}

// tickLoop delivers timer updates for round until it expires, or until stop is done
// (the round was discarded). Messages are written with ctx, the connection's context.
func (s *Session) tickLoop(ctx, stop context.Context, round *game.Round) {
	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop.Done():
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		if s.round != round {
			s.mu.Unlock()
			return
		}
		status := round.Tick(s.opts.Now())
		switch status.State {
		case game.TimerRunning:
			s.mu.Unlock()
			s.send(ctx, game.MsgTypeTick, game.TickMessage{RoundID: round.ID, Remaining: status.Remaining})

		case game.TimerExpired:
			summary := round.EndRound()
			s.stopTicker()
			s.stopTicker = nil
			s.mu.Unlock()
			klog.Infof("Session %s: round %s ended: score=%d, winner=%s",
				s.ID, round.ID, summary.TotalScore, summary.Winner)
			s.send(ctx, game.MsgTypeEnded, game.EndedMessage{Summary: summary})
			return

		default:
			s.mu.Unlock()
			return
		}
	}
}

// discardLocked discards the current round and stops its ticker. s.mu must be held.
func (s *Session) discardLocked() {
	if s.stopTicker != nil {
		s.stopTicker()
		s.stopTicker = nil
	}
	if s.round != nil {
		klog.V(1).Infof("Session %s: discarding round %s", s.ID, s.round.ID)
		s.round.Discard()
		s.round = nil
	}
}

// close discards the current round, if any.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discardLocked()
}

func (s *Session) send(ctx context.Context, msgType game.MessageType, payload any) {
	msg, err := game.NewWsMessage(msgType, payload)
	if err != nil {
		klog.Errorf("Session %s: failed to create %s message: %v", s.ID, msgType, err)
		return
	}
	writeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := wsjson.Write(writeCtx, s.conn, msg); err != nil {
		klog.V(1).Infof("Session %s: failed to send %s: %v", s.ID, msgType, err)
	}
}
