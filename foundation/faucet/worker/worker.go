// Package worker implements the background processes for the faucet: the
// block tick that closes epochs and the payout dispatcher.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/DavidBacZit/nadfaucet/business/sys/database"
	"github.com/DavidBacZit/nadfaucet/foundation/faucet/payout"
	"github.com/DavidBacZit/nadfaucet/foundation/faucet/state"
)

// Config holds the settings for the background processes.
type Config struct {
	DB             *database.DB
	Sender         payout.Sender
	PollInterval   time.Duration
	MaxAttempts    int
	SendsPerSecond int

	// OnPayoutResolved is an optional hook invoked when a payout reaches
	// a terminal status, used by the application to count resolutions.
	OnPayoutResolved func(status string)
}

// Worker manages the tick and dispatch workflows for the faucet.
type Worker struct {
	state     *state.State
	db        *database.DB
	sender    payout.Sender
	cfg       Config
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	evHandler state.EventHandler
}

// Run creates a worker, registers it with the state package, and starts
// up all the background processes.
func Run(st *state.State, cfg Config, evHandler state.EventHandler) {
	ctx, cancel := context.WithCancel(context.Background())

	w := Worker{
		state:     st,
		db:        cfg.DB,
		sender:    cfg.Sender,
		cfg:       cfg,
		ctx:       ctx,
		cancel:    cancel,
		evHandler: evHandler,
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Load the set of operations we need to run.
	operations := []func(){
		w.blockOperations,
		w.payoutOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	for i := 0; i < g; i++ {
		<-hasStarted
	}
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutines performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.cancel()
	w.wg.Wait()
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.ctx.Done():
		return true
	default:
		return false
	}
}

// sleep waits for the duration or returns early on shutdown, reporting
// whether the full duration elapsed.
func (w *Worker) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-w.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
