package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/janpfeifer/MathCards/internal/server"
	"k8s.io/klog/v2"
)

var defaults = server.DefaultOptions()

var (
	flagAddr     = flag.String("addr", "", "Address to listen on (default: auto-port on localhost)")
	flagTick     = flag.Duration("tick", defaults.TickInterval, "Interval between timer updates sent to the players")
	flagFeedback = flag.Duration("feedback", defaults.FeedbackDelay, "How long a wrong placement is shown before it is cleared")
	flagSeed     = flag.Uint64("seed", 0, "Seed for dealing cards, for reproducible games (default: seeded from the clock)")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	opts := server.Options{
		Addr:          *flagAddr,
		TickInterval:  *flagTick,
		FeedbackDelay: *flagFeedback,
		Seed:          *flagSeed,
	}

	started := make(chan *server.ServerState, 1)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		state := <-started
		fmt.Printf("MathCards server listening on http://%s\n", state.Address)
	}()

	if err := server.Run(ctx, opts, started); err != nil {
		klog.Fatal(err)
	}
}
