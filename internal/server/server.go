package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/janpfeifer/MathCards/internal/frontend"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
	"k8s.io/klog/v2"
)

// Options configure the server.
type Options struct {
	// Addr to listen on. If empty, an automatic port on localhost is used.
	Addr string

	// TickInterval between two timer updates sent to the client.
	TickInterval time.Duration

	// FeedbackDelay is how long a rejected placement stays flagged before it is cleared.
	FeedbackDelay time.Duration

	// Now is the clock rounds are timed with. If nil, time.Now is used.
	Now func() time.Time

	// Seed for the random source of the rounds. If 0, rounds are seeded from the clock.
	Seed uint64
}

// DefaultOptions returns the options used by the server binary when no flags are given.
func DefaultOptions() Options {
	return Options{
		TickInterval:  time.Second,
		FeedbackDelay: 500 * time.Millisecond,
		Now:           time.Now,
	}
}

// Run starts the server and blocks until the context is canceled.
//
// If started is not nil, the server state is sent to it once the server is listening,
// which is how callers learn the address when opts.Addr is empty.
func Run(ctx context.Context, opts Options, started chan<- *ServerState) error {
	// Initialize global client state for server-side prerendering without panic
	frontend.InitState()

	// Register go-app routes so the server knows how to prerender them
	app.Route("/", func() app.Composer { return &frontend.Home{} })
	app.RouteWithRegexp("^/game.*", func() app.Composer { return &frontend.Game{} })

	// The web assets and the compiled webassembly
	// are served natively by the go-app framework
	h := &app.Handler{
		Name:        "MathCards",
		Description: "Drag each card onto the slot it adds up to",
		Styles: []string{
			"/web/css/main.css",
		},
	}

	addr := opts.Addr
	if addr == "" {
		addr = "localhost:0"
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	serverState := NewServerState(opts)
	serverState.Address = listener.Addr().String()

	mux := http.NewServeMux()

	// Register WebSocket endpoint
	mux.HandleFunc("/ws", serverState.HandleWS)

	// Serve the go-app UI
	mux.Handle("/web/", http.StripPrefix("/web/", http.FileServer(http.Dir("web/"))))
	mux.Handle("/", h)

	srv := &http.Server{
		Handler: mux,
	}

	go func() {
		klog.Infof("Server started on %s", serverState.Address)
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			klog.Errorf("Server error: %v", err)
		}
	}()
	if started != nil {
		started <- serverState
	}

	<-ctx.Done()

	// Graceful shutdown with 5 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	klog.Infof("Shutting down server...")
	serverState.CloseAll()
	return srv.Shutdown(shutdownCtx)
}
