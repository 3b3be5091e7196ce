// Command timelinesched is the host program: it assembles a TimelinePlan,
// initializes the timeline dispatcher, starts it, and runs it until
// SIGINT/SIGTERM triggers a graceful shutdown.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fla-os/timeline-scheduler/internal/demotasks"
	"github.com/fla-os/timeline-scheduler/internal/dispatcher"
	"github.com/fla-os/timeline-scheduler/internal/obslog"
)

// tickDuration is the wall-clock duration of one scheduler tick. The
// original kernel's tick source is a hardware timer; here it is simply a
// fixed Go duration.
const tickDuration = 5 * time.Millisecond

func main() {
	os.Exit(run())
}

func run() int {
	p, err := demotasks.Plan(tickDuration)
	if err != nil {
		obslog.Default.Crit().Err(err).Log("failed to build timeline plan")
		return 1
	}

	d := dispatcher.New()

	if err := d.Init(p); err != nil {
		// Any error from init is a fatal boot condition, signaled to the
		// host by return code - there is no partially-initialized state to
		// recover from.
		obslog.Default.Crit().Err(err).Log("timeline plan failed validation")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := d.Start(ctx); err != nil {
		obslog.Default.Crit().Err(err).Log("failed to start dispatcher")
		return 1
	}

	<-ctx.Done()
	obslog.Default.Info().Log("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := d.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintln(os.Stderr, "dispatcher shutdown:", err)
		return 1
	}

	return 0
}
