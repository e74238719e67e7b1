package server

import (
	"math/rand/v2"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/janpfeifer/MathCards/internal/game"
	"k8s.io/klog/v2"
)

// ServerState holds the live sessions, one per connected client.
type ServerState struct {
	Address string

	opts     Options
	mu       sync.RWMutex
	Sessions map[string]*Session

	sessionCount atomic.Uint64
}

// NewServerState creates an empty ServerState.
func NewServerState(opts Options) *ServerState {
	defaults := DefaultOptions()
	if opts.TickInterval <= 0 {
		opts.TickInterval = defaults.TickInterval
	}
	if opts.FeedbackDelay <= 0 {
		opts.FeedbackDelay = defaults.FeedbackDelay
	}
	if opts.Now == nil {
		opts.Now = defaults.Now
	}
	return &ServerState{
		opts:     opts,
		Sessions: make(map[string]*Session),
	}
}

// newRand returns the random source for a new session.
// With a fixed seed, sessions are reproducible in the order they connect.
func (s *ServerState) newRand() *rand.Rand {
	n := s.sessionCount.Add(1)
	if s.opts.Seed == 0 {
		return game.NewRand()
	}
	return rand.New(rand.NewPCG(s.opts.Seed, n))
}

// HandleWS upgrades the connection and serves a game session on it until the client disconnects.
func (s *ServerState) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		klog.Errorf("HandleWS: accept failed: %v", err)
		return
	}
	defer conn.CloseNow()

	session := newSession(uuid.NewString(), conn, s.opts, s.newRand())
	s.mu.Lock()
	s.Sessions[session.ID] = session
	s.mu.Unlock()
	klog.V(1).Infof("HandleWS: session %s connected from %s", session.ID, r.RemoteAddr)

	session.serve(r.Context())

	s.mu.Lock()
	delete(s.Sessions, session.ID)
	s.mu.Unlock()
	session.close()
	klog.V(1).Infof("HandleWS: session %s disconnected", session.ID)
}

// CloseAll stops the rounds of every session and closes their connections with
// websocket.StatusGoingAway. Hijacked connections are not closed by http.Server.Shutdown.
func (s *ServerState) CloseAll() {
	s.mu.RLock()
	sessions := make([]*Session, 0, len(s.Sessions))
	for _, session := range s.Sessions {
		sessions = append(sessions, session)
	}
	s.mu.RUnlock()

	for _, session := range sessions {
		session.close()
		if err := session.conn.Close(websocket.StatusGoingAway, "server shutting down"); err != nil {
			klog.V(1).Infof("CloseAll: session %s: %v", session.ID, err)
		}
	}
}
